package fusion

import "github.com/Craigmindset/prevetta/internal/model"

// arconRecommendations are fixed domain-compliance annotations appended to
// every verdict regardless of outcome. Policy text, not classifier output.
var arconRecommendations = []string{
	"Ensure compliance with ARCON advertising standards",
	"Verify cultural appropriateness for Nigerian market",
	"Check for required disclaimers and legal text",
}

// Aggregate deduplicates issues and recommendations in first-seen order,
// appends the fixed compliance recommendations exactly once, and guarantees
// the verdict's issues, recommendations and copyrightIssues fields are
// present even when every classifier returned none.
func Aggregate(v *model.ComplianceVerdict) {
	v.Issues = dedupeIssues(v.Issues)

	recs := append(append([]string(nil), v.Recommendations...), arconRecommendations...)
	v.Recommendations = dedupeStrings(recs)

	if v.Issues == nil {
		v.Issues = []model.Issue{}
	}
	if v.CopyrightIssues == nil {
		v.CopyrightIssues = []model.CopyrightIssue{}
	}
}

// dedupeIssues drops repeats of the same (category, message) pair,
// preserving discovery order for audit.
func dedupeIssues(issues []model.Issue) []model.Issue {
	if len(issues) == 0 {
		return []model.Issue{}
	}
	type key struct {
		t model.IssueCategory
		m string
	}
	seen := make(map[key]bool, len(issues))
	out := make([]model.Issue, 0, len(issues))
	for _, is := range issues {
		k := key{is.Type, is.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, is)
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
