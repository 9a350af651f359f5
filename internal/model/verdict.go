package model

// Status is the terminal compliance decision for one item.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusRejected    Status = "rejected"
	StatusError       Status = "error"
)

// statusRank orders statuses by severity for tie-breaking: whenever two
// signals disagree, the more severe outcome governs.
func statusRank(s Status) int {
	switch s {
	case StatusApproved:
		return 0
	case StatusNeedsReview:
		return 1
	case StatusRejected:
		return 2
	case StatusError:
		return 3
	default:
		return 1
	}
}

// WorseStatus returns the more severe of two statuses
// (reject beats needs_review beats approve).
func WorseStatus(a, b Status) Status {
	if statusRank(b) > statusRank(a) {
		return b
	}
	return a
}

// Severity grades a compliance finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	rank := map[Severity]int{SeverityLow: 0, SeverityMedium: 1, SeverityHigh: 2, SeverityCritical: 3}
	return rank[s] >= rank[min]
}

// IssueCategory classifies a compliance finding.
type IssueCategory string

const (
	IssueCompliance        IssueCategory = "compliance"
	IssueBrand             IssueCategory = "brand"
	IssueLegal             IssueCategory = "legal"
	IssueAccessibility     IssueCategory = "accessibility"
	IssueContentModeration IssueCategory = "content_moderation"
	IssueNudityViolation   IssueCategory = "nudity_violation"
	IssueSafetyFallback    IssueCategory = "safety_fallback"
	IssueSystem            IssueCategory = "system"
)

// Issue is a single compliance finding. Append-only within one item's
// processing; discovery order is preserved for audit.
type Issue struct {
	Type     IssueCategory `json:"type"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
}

// CopyrightIssue describes a potential copyright conflict.
type CopyrightIssue struct {
	Description   string `json:"description"`
	ReferenceLink string `json:"referenceLink,omitempty"`
}

// ComplianceVerdict is the final vetting output for one item. Created once
// per item per run and never updated in place; re-analysis produces a new
// verdict. JSON field names match the public API surface.
type ComplianceVerdict struct {
	Score           int              `json:"score"`
	Status          Status           `json:"status"`
	Issues          []Issue          `json:"issues"`
	Recommendations []string         `json:"recommendations"`
	CopyrightIssues []CopyrightIssue `json:"copyrightIssues"`
	Summary         string           `json:"summary"`
	PreVetting      string           `json:"preVetting,omitempty"`
	Transcription   string           `json:"transcription,omitempty"`
}

// HasCritical reports whether any issue carries critical severity.
func (v *ComplianceVerdict) HasCritical() bool {
	for _, is := range v.Issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// ModerationReport echoes the primary moderation signal (and the secondary
// judge, for images) back to the caller alongside the verdict.
type ModerationReport struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
	SecondaryJudge *VisionJudgment    `json:"secondary_judge,omitempty"`
}

// FileInfo describes the submitted file for the caller's records.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// ItemResult is the assembled terminal outcome for one item: the verdict
// plus per-item metadata shaped for the boundary.
type ItemResult struct {
	ItemID   string            `json:"item_id"`
	FileName string            `json:"fileName"`
	FileType string            `json:"fileType"`
	FileSize int64             `json:"fileSize"`
	Verdict  ComplianceVerdict `json:"verdict"`

	Moderation *ModerationReport `json:"moderation,omitempty"`
	FileInfo   *FileInfo         `json:"file_info,omitempty"`

	// FailedSignals lists classifier sources that were unavailable for this
	// item (transport failures), with their error codes. Distinguishable
	// from "classifier ran and found nothing".
	FailedSignals map[string]string `json:"failed_signals,omitempty"`
}
