package cache

import (
	"testing"
	"time"

	"github.com/Craigmindset/prevetta/internal/model"
)

func TestVerdictCache_PutAndGet(t *testing.T) {
	c := NewVerdictCache(NewMemory(time.Minute, time.Minute), time.Minute)

	item := model.NewScriptItem("cached copy", model.CampaignRadio)
	result := &model.ItemResult{
		ItemID:   item.ID,
		FileName: item.Name,
		Verdict:  model.ComplianceVerdict{Score: 85, Status: model.StatusApproved, Summary: "ok"},
	}

	if _, found := c.Get(item); found {
		t.Fatal("Expected miss before Put")
	}

	c.Put(item, result)

	got, found := c.Get(item)
	if !found {
		t.Fatal("Expected hit after Put")
	}
	if got.Verdict.Score != 85 || got.Verdict.Status != model.StatusApproved {
		t.Errorf("Unexpected cached verdict: %+v", got.Verdict)
	}
}

// Items with identical content share a fingerprint regardless of their IDs;
// changed content gets its own entry.
func TestVerdictCache_FingerprintKeying(t *testing.T) {
	c := NewVerdictCache(NewMemory(time.Minute, time.Minute), time.Minute)

	a := model.NewScriptItem("same copy", model.CampaignRadio)
	b := model.NewScriptItem("same copy", model.CampaignRadio)
	other := model.NewScriptItem("different copy", model.CampaignRadio)

	c.Put(a, &model.ItemResult{Verdict: model.ComplianceVerdict{Score: 70}})

	if _, found := c.Get(b); !found {
		t.Error("Expected identical content to hit the same entry")
	}
	if _, found := c.Get(other); found {
		t.Error("Expected different content to miss")
	}

	// Same content under a different campaign type is a different key: the
	// generative prompt differs.
	tv := model.NewScriptItem("same copy", model.CampaignTV)
	if _, found := c.Get(tv); found {
		t.Error("Expected a different campaign type to miss")
	}
}

func TestVerdictCache_NilSafe(t *testing.T) {
	var c *VerdictCache

	item := model.NewScriptItem("copy", model.CampaignGeneric)
	if _, found := c.Get(item); found {
		t.Error("Expected nil cache to always miss")
	}
	c.Put(item, &model.ItemResult{}) // must not panic
}

func TestFromConfig_Disabled(t *testing.T) {
	if c := FromConfig(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("Expected nil cache when disabled")
	}
}

func TestDisk_SetGetExpiry(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, time.Minute)

	if err := d.Set("prevetta:v1:abc", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := d.Get("prevetta:v1:abc")
	if !found || string(val) != "value" {
		t.Fatalf("Expected hit with value, got %q found=%v", val, found)
	}

	// Entries past their TTL are dropped on read.
	if err := d.Set("expired", []byte("old"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := d.Get("expired"); found {
		t.Error("Expected expired entry dropped")
	}
}

func TestDisk_SanitizesKeys(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Minute)

	key := "prevetta:v1:../../etc/passwd"
	if err := d.Set(key, []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := d.Get(key); !found {
		t.Error("Expected sanitized key round-trip")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Populate only the disk layer, as a previous process would have.
	first := NewDisk(dir, time.Minute)
	if err := first.Set("k", []byte("persisted"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	l := NewLayered(time.Minute, dir, time.Minute)
	val, found := l.Get("k")
	if !found || string(val) != "persisted" {
		t.Fatalf("Expected disk hit through the layered store, got %q found=%v", val, found)
	}

	// After promotion the memory layer serves the key even if the disk copy
	// disappears.
	if err := first.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := l.Get("k"); !found {
		t.Error("Expected promoted entry served from memory")
	}
}

func TestMemory_DeleteAndClear(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	_ = m.Set("a", []byte("1"), 0)
	_ = m.Set("b", []byte("2"), 0)

	if err := m.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := m.Get("a"); found {
		t.Error("Expected deleted key to miss")
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := m.Get("b"); found {
		t.Error("Expected cleared cache to miss")
	}
}
