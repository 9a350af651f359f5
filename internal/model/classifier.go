package model

// Classifier source identifiers. Each adapter stamps its verdicts with one
// of these so fusion and the orchestrator can tell signals apart.
const (
	SourceModeration  = "moderation"   // primary moderation classifier
	SourceVisionJudge = "vision_judge" // secondary vision judgment model
	SourceGenerative  = "generative"   // generative descriptive analysis
)

// SignalState records whether a classifier signal can be trusted.
type SignalState string

const (
	// SignalOK means the classifier responded and the response parsed.
	SignalOK SignalState = "ok"
	// SignalDegraded means the classifier responded but the payload could
	// not be parsed as expected. Distinct from both "clean" and "failed":
	// a degraded signal escalates the item to at least needs_review.
	SignalDegraded SignalState = "degraded"
	// SignalFailed means the call itself failed (timeout, network, auth,
	// quota). The signal is absent for voting but the failure is recorded.
	SignalFailed SignalState = "failed"
)

// VisionJudgment is the structured output of the secondary vision judge.
type VisionJudgment struct {
	ExplicitNudity bool    `json:"explicit_nudity"`
	SexualActivity bool    `json:"sexual_activity"`
	PartialNudity  bool    `json:"partial_nudity"`
	SeeThrough     bool    `json:"see_through"`
	MinorsInvolved bool    `json:"minors_involved"`
	Confidence     float64 `json:"confidence"`
}

// AnyFlag reports whether any of the judgment booleans fired.
func (v VisionJudgment) AnyFlag() bool {
	return v.ExplicitNudity || v.SexualActivity || v.PartialNudity || v.SeeThrough || v.MinorsInvolved
}

// GenerativeAnalysis is the structured verdict proposed by the generative
// descriptive-analysis classifier for text/script content.
type GenerativeAnalysis struct {
	Score           int      `json:"score"`
	Status          Status   `json:"status"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
}

// ClassifierVerdict is the normalized output of one adapter call for one
// item. Produced by exactly one adapter call and never mutated afterwards.
type ClassifierVerdict struct {
	Source         string              `json:"source"`
	State          SignalState         `json:"state"`
	Flagged        bool                `json:"flagged"`
	Categories     map[string]bool     `json:"categories"`
	CategoryScores map[string]float64  `json:"category_scores"`
	Judgment       *VisionJudgment     `json:"judgment,omitempty"`
	Analysis       *GenerativeAnalysis `json:"analysis,omitempty"`

	// FailureCode carries the transport/format error code when State is
	// degraded or failed, so callers can tell which signal was unavailable
	// and why. Empty for ok signals.
	FailureCode string `json:"failure_code,omitempty"`
}

// Usable reports whether the signal carries a parsed classifier opinion.
func (v *ClassifierVerdict) Usable() bool {
	return v != nil && v.State == SignalOK
}

// FailedVerdict builds the record of an adapter call that could not be
// completed. The signal is absent for voting purposes.
func FailedVerdict(source, code string) *ClassifierVerdict {
	return &ClassifierVerdict{Source: source, State: SignalFailed, FailureCode: code}
}

// DegradedVerdict builds the record of an adapter response that was received
// but could not be parsed. Never treated as "clean".
func DegradedVerdict(source, code string) *ClassifierVerdict {
	return &ClassifierVerdict{Source: source, State: SignalDegraded, FailureCode: code}
}
