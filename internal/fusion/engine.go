// Package fusion reconciles the verdicts of several independent, fallible
// classifiers into one conservative compliance decision. Safety-relevant
// categories compose by conservative-OR: any flagged signal is sufficient to
// reject, and the absence of a signal's opinion is never sufficient to
// approve. The policy is an explicit ordered rule list evaluated
// top-to-bottom with first-match-wins semantics so precedence stays
// auditable rule by rule.
package fusion

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Craigmindset/prevetta/internal/model"
)

// nudityPattern matches moderation category names that trigger the strict
// nudity/sexual/minors screen.
var nudityPattern = regexp.MustCompile(`(?i)sexual|minors|nudity`)

var minorsPattern = regexp.MustCompile(`(?i)minors`)

// Signals indexes classifier verdicts by source for rule evaluation.
type Signals struct {
	bySource map[string]*model.ClassifierVerdict
}

// NewSignals indexes a verdict set. Later verdicts for the same source win,
// but adapters emit at most one verdict per item.
func NewSignals(verdicts []*model.ClassifierVerdict) Signals {
	m := make(map[string]*model.ClassifierVerdict, len(verdicts))
	for _, v := range verdicts {
		if v != nil {
			m[v.Source] = v
		}
	}
	return Signals{bySource: m}
}

// Get returns the verdict for a source, or nil when the adapter never ran.
func (s Signals) Get(source string) *model.ClassifierVerdict {
	return s.bySource[source]
}

// FailureCodes returns the error code per source for signals that could not
// be completed, so callers can tell which signal was unavailable. Degraded
// and failed signals are both listed; "ran and found nothing" is not.
func (s Signals) FailureCodes() map[string]string {
	var out map[string]string
	for src, v := range s.bySource {
		if v.State != model.SignalOK {
			if out == nil {
				out = make(map[string]string)
			}
			out[src] = v.FailureCode
		}
	}
	return out
}

type ruleInput struct {
	item    model.Item
	kind    model.MediaKind
	signals Signals
}

// rule is one step of the fusion policy. Apply returns nil when the rule
// does not govern the item; the first rule to return a verdict wins.
type rule struct {
	name  string
	apply func(in ruleInput) *model.ComplianceVerdict
}

// Engine evaluates the ordered fusion rule list.
type Engine struct {
	rules []rule
}

// NewEngine builds the strict conservative-bias policy.
func NewEngine() *Engine {
	return &Engine{rules: []rule{
		{name: "image_nudity_screen", apply: imageNudityScreen},
		{name: "image_moderation_catch_all", apply: imageModerationCatchAll},
		{name: "image_primary_unavailable", apply: imagePrimaryUnavailable},
		{name: "image_clear", apply: imageClear},
		{name: "script_analysis", apply: scriptAnalysis},
		{name: "transcript_moderation", apply: transcriptModeration},
		{name: "unsupported_fallback", apply: unsupportedFallback},
	}}
}

// Fuse computes the compliance verdict for one item from its classifier
// verdicts. Pure: re-running on the same inputs yields an identical verdict.
func (e *Engine) Fuse(item model.Item, kind model.MediaKind, verdicts []*model.ClassifierVerdict) model.ComplianceVerdict {
	in := ruleInput{item: item, kind: kind, signals: NewSignals(verdicts)}

	var out *model.ComplianceVerdict
	for _, r := range e.rules {
		if v := r.apply(in); v != nil {
			out = v
			break
		}
	}
	if out == nil {
		// No rule matched: fixed fallback, never an unhandled failure.
		out = reviewFallback("No applicable screening rule matched; manual review recommended.")
	}

	applyJudgeDegradation(in, out)
	if out.PreVetting == "" {
		out.PreVetting = "Content has been analyzed for compliance and brand safety standards."
	}
	return *out
}

// --- image rules ---

// flaggedNudityKeys returns the primary moderation categories matching the
// nudity/sexual/minors pattern, sorted for deterministic issue order.
func flaggedNudityKeys(primary *model.ClassifierVerdict) []string {
	if !primary.Usable() {
		return nil
	}
	var keys []string
	for k, flagged := range primary.Categories {
		if flagged && nudityPattern.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// flaggedKeys returns all flagged categories, sorted.
func flaggedKeys(primary *model.ClassifierVerdict) []string {
	var keys []string
	for k, flagged := range primary.Categories {
		if flagged {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// imageNudityScreen rejects when either layer of the strict nudity screen
// fires: primary categories matching the nudity pattern, or any of the
// vision judge booleans. Either signal alone is sufficient.
func imageNudityScreen(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaImage {
		return nil
	}
	primary := in.signals.Get(model.SourceModeration)
	judge := in.signals.Get(model.SourceVisionJudge)

	nudityKeys := flaggedNudityKeys(primary)
	judgeFlag := judge.Usable() && judge.Judgment != nil && judge.Judgment.AnyFlag()
	if len(nudityKeys) == 0 && !judgeFlag {
		return nil
	}

	v := &model.ComplianceVerdict{
		Score:   15,
		Status:  model.StatusRejected,
		Summary: "Nudity/sexual content flagged by automated screening.",
	}
	replacer := strings.NewReplacer("_", " ", "-", " ")
	for _, k := range nudityKeys {
		sev := model.SeverityHigh
		if minorsPattern.MatchString(k) {
			sev = model.SeverityCritical
		}
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueNudityViolation,
			Severity: sev,
			Message:  fmt.Sprintf("Flagged category: %s", replacer.Replace(k)),
		})
	}
	if judgeFlag {
		sev := model.SeverityHigh
		if judge.Judgment.MinorsInvolved {
			sev = model.SeverityCritical
		}
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueNudityViolation,
			Severity: sev,
			Message:  "Vision judge detected nudity/sexual indicators (explicit_nudity/partial_nudity/see_through/sexual_activity/minors_involved).",
		})
	}
	return v
}

// imageModerationCatchAll rejects images the moderation model flagged for
// any non-nudity reason.
func imageModerationCatchAll(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaImage {
		return nil
	}
	primary := in.signals.Get(model.SourceModeration)
	if !primary.Usable() || !primary.Flagged {
		return nil
	}

	v := &model.ComplianceVerdict{
		Score:   25,
		Status:  model.StatusRejected,
		Summary: "Content flagged by moderation model.",
	}
	keys := flaggedKeys(primary)
	if len(keys) == 0 {
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueContentModeration,
			Severity: model.SeverityHigh,
			Message:  "Model flagged the image for policy risk.",
		})
		return v
	}
	for _, k := range keys {
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueContentModeration,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("Model flagged category: %s", k),
		})
	}
	return v
}

// imagePrimaryUnavailable keeps an image out of the approved state when the
// primary moderation signal could not be trusted. A clean secondary opinion
// alone is never sufficient to approve.
func imagePrimaryUnavailable(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaImage {
		return nil
	}
	primary := in.signals.Get(model.SourceModeration)
	if primary.Usable() {
		return nil
	}

	v := reviewFallback("Primary moderation signal unavailable; manual review recommended.")
	v.Issues = append(v.Issues, model.Issue{
		Type:     model.IssueSafetyFallback,
		Severity: model.SeverityMedium,
		Message:  "Primary moderation classifier did not return a usable result.",
	})
	return v
}

// imageClear approves an image the strict screen found nothing on.
func imageClear(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaImage {
		return nil
	}
	return &model.ComplianceVerdict{
		Score:   90,
		Status:  model.StatusApproved,
		Summary: "Image cleared by strict nudity screening.",
	}
}

// --- text rule ---

// scriptAnalysis seeds the verdict from the generative pass, then intersects
// it with the moderation pass over the same text. When moderation flags
// content the generative pass missed, the status is forced to rejected and
// the score capped at 40 — a monotonic downgrade, never an upgrade.
func scriptAnalysis(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaText {
		return nil
	}
	gen := in.signals.Get(model.SourceGenerative)
	mod := in.signals.Get(model.SourceModeration)

	var v *model.ComplianceVerdict
	switch {
	case gen.Usable() && gen.Analysis != nil:
		a := gen.Analysis
		v = &model.ComplianceVerdict{
			Score:           a.Score,
			Status:          a.Status,
			Summary:         a.Summary,
			Recommendations: append([]string(nil), a.Recommendations...),
		}
		v.Issues = append(v.Issues, a.Issues...)
		// The generative model sometimes reports approved alongside issues
		// it itself rated medium or worse. Status is floored to match the
		// worst issue: critical rejects, medium or high needs review.
		for _, is := range v.Issues {
			switch {
			case is.Severity.AtLeast(model.SeverityCritical):
				v.Status = model.WorseStatus(v.Status, model.StatusRejected)
			case is.Severity.AtLeast(model.SeverityMedium):
				v.Status = model.WorseStatus(v.Status, model.StatusNeedsReview)
			}
		}
	case gen != nil && gen.State == model.SignalDegraded:
		v = reviewFallback("Generative analysis response could not be parsed; manual review recommended.")
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueSafetyFallback,
			Severity: model.SeverityMedium,
			Message:  "Generative analysis failed to parse; manual review recommended.",
		})
	default:
		v = reviewFallback("Generative analysis unavailable; manual review recommended.")
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueSafetyFallback,
			Severity: model.SeverityMedium,
			Message:  "Generative analysis classifier did not return a usable result.",
		})
	}

	switch {
	case mod.Usable() && mod.Flagged:
		v.Status = model.StatusRejected
		if v.Score > 40 {
			v.Score = 40
		}
		keys := flaggedKeys(mod)
		if len(keys) == 0 {
			v.Issues = append(v.Issues, model.Issue{
				Type:     model.IssueContentModeration,
				Severity: model.SeverityHigh,
				Message:  "Script contains policy-violating content.",
			})
		}
		for _, k := range keys {
			v.Issues = append(v.Issues, model.Issue{
				Type:     model.IssueContentModeration,
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("Script flagged for category: %s", k),
			})
		}
		v.Summary = "Script flagged by moderation screening."
	case mod != nil && mod.State == model.SignalDegraded:
		v.Status = model.WorseStatus(v.Status, model.StatusNeedsReview)
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueSafetyFallback,
			Severity: model.SeverityMedium,
			Message:  "Moderation response failed to parse; manual review recommended.",
		})
	}

	return v
}

// --- audio/video rule ---

// transcriptModeration vets audio/video by moderating the human-reviewed
// transcript as text. No generative or vision pass applies.
func transcriptModeration(in ruleInput) *model.ComplianceVerdict {
	if in.kind != model.MediaAudio && in.kind != model.MediaVideo {
		return nil
	}
	mod := in.signals.Get(model.SourceModeration)

	var v *model.ComplianceVerdict
	switch {
	case mod.Usable() && mod.Flagged:
		v = &model.ComplianceVerdict{
			Score:   40,
			Status:  model.StatusRejected,
			Summary: "Transcription failed moderation.",
			Issues: []model.Issue{{
				Type:     model.IssueContentModeration,
				Severity: model.SeverityHigh,
				Message:  "Transcription contains policy-violating content.",
			}},
		}
	case mod.Usable():
		v = &model.ComplianceVerdict{
			Score:   90,
			Status:  model.StatusApproved,
			Summary: "Transcription cleared moderation.",
		}
	case mod != nil && mod.State == model.SignalDegraded:
		v = reviewFallback("Moderation response could not be parsed; manual review recommended.")
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueSafetyFallback,
			Severity: model.SeverityMedium,
			Message:  "Moderation response failed to parse; manual review recommended.",
		})
	default:
		v = reviewFallback("Moderation signal unavailable; manual review recommended.")
		v.Issues = append(v.Issues, model.Issue{
			Type:     model.IssueSafetyFallback,
			Severity: model.SeverityMedium,
			Message:  "Moderation classifier did not return a usable result.",
		})
	}

	v.Transcription = in.item.Transcription
	v.PreVetting = fmt.Sprintf("%s content transcription analyzed for compliance and brand safety standards.", in.item.Campaign)
	return v
}

// --- fallback rule ---

// unsupportedFallback handles items no other rule governs (unrecognized
// media kinds). Unsupported types are never silently approved.
func unsupportedFallback(in ruleInput) *model.ComplianceVerdict {
	return reviewFallback("Unsupported file type for automated checks; manual review recommended.")
}

func reviewFallback(summary string) *model.ComplianceVerdict {
	return &model.ComplianceVerdict{
		Score:   60,
		Status:  model.StatusNeedsReview,
		Summary: summary,
	}
}

// applyJudgeDegradation escalates image items whose secondary vision-judge
// opinion was missing or unparseable. The downgrade only ever lowers the
// outcome: it never suppresses a primary rejection, and a missing secondary
// opinion never on its own produces approval.
func applyJudgeDegradation(in ruleInput, v *model.ComplianceVerdict) {
	if in.kind != model.MediaImage {
		return
	}
	judge := in.signals.Get(model.SourceVisionJudge)
	if judge == nil || judge.State == model.SignalOK {
		return
	}

	v.Status = model.WorseStatus(v.Status, model.StatusNeedsReview)
	msg := "Vision judge failed to parse; manual review recommended."
	if judge.State == model.SignalFailed {
		msg = "Vision judge unavailable; manual review recommended."
	}
	v.Issues = append(v.Issues, model.Issue{
		Type:     model.IssueSafetyFallback,
		Severity: model.SeverityMedium,
		Message:  msg,
	})
}
