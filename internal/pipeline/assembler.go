package pipeline

import (
	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/normalize"
)

// assemble shapes the final verdict plus per-item metadata for the boundary:
// the moderation echo block for media items, file info, and the list of
// signals that were unavailable (distinguishable from "ran and found
// nothing").
func assemble(item model.Item, route normalize.Route, verdicts []*model.ClassifierVerdict, verdict model.ComplianceVerdict) *model.ItemResult {
	result := &model.ItemResult{
		ItemID:   item.ID,
		FileName: item.Name,
		FileType: item.ContentType,
		FileSize: item.Size,
		Verdict:  verdict,
		FileInfo: &model.FileInfo{
			Name: item.Name,
			Size: item.Size,
			Type: item.ContentType,
		},
	}

	var moderation, judge *model.ClassifierVerdict
	for _, v := range verdicts {
		if v == nil {
			continue
		}
		switch v.Source {
		case model.SourceModeration:
			moderation = v
		case model.SourceVisionJudge:
			judge = v
		}
		if v.State == model.SignalFailed {
			if result.FailedSignals == nil {
				result.FailedSignals = make(map[string]string)
			}
			result.FailedSignals[v.Source] = v.FailureCode
		}
	}

	// The moderation echo applies to media items only; the text-analysis
	// response shape carries no moderation block.
	if route.Kind != model.MediaText && moderation != nil {
		report := &model.ModerationReport{
			Flagged:        moderation.Flagged,
			Categories:     moderation.Categories,
			CategoryScores: moderation.CategoryScores,
		}
		if report.Categories == nil {
			report.Categories = map[string]bool{}
		}
		if report.CategoryScores == nil {
			report.CategoryScores = map[string]float64{}
		}
		if judge != nil && judge.Judgment != nil {
			report.SecondaryJudge = judge.Judgment
		}
		result.Moderation = report
	}

	return result
}
