package engine

import (
	"sort"
	"time"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pkg/utils"
)

// buildResponse 把最终候选封装成响应信封：rank 从 1 递增、
// 信号拆解、理由列表、模型标识与响应级诊断信息。
func (e *Engine) buildResponse(
	req *core.RecommendRequest,
	rctx *core.RecommendContext,
	items []*core.Item,
	pool int,
	model string,
	start time.Time,
) *core.RecommendResponse {
	results := make([]core.RecommendResult, 0, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}

		breakdown := core.ScoreBreakdown{
			Collaborative: it.Scores["collaborative"],
			ContentBased:  it.Scores["content_based"],
			Popularity:    it.Scores["popularity"],
			Recency:       it.Scores["recency"],
		}
		// 没有参与打分的信号用车辆的派生分数补齐拆解
		if v := e.catalog.Vehicle(it.VehicleID); v != nil {
			if breakdown.Popularity == 0 {
				breakdown.Popularity = v.Popularity
			}
			if breakdown.Recency == 0 {
				breakdown.Recency = v.Recency
			}
		}

		var reasons []string
		if lbl, ok := it.Labels["reason"]; ok {
			reasons = utils.SplitValues(lbl)
		}

		results = append(results, core.RecommendResult{
			VehicleID:    it.VehicleID,
			Score:        it.Score,
			Rank:         i + 1,
			Scores:       breakdown,
			Reasons:      reasons,
			ModelVersion: model,
			Confidence:   clamp01(it.Score),
		})
	}

	return &core.RecommendResponse{
		Recommendations: results,
		Metadata: core.ResponseMetadata{
			TotalCount:     len(results),
			ProcessingTime: time.Since(start),
			ModelUsed:      model,
		},
		Debug: &core.ResponseDebug{
			UserSegment:   userSegment(rctx.User),
			Filters:       req.Context.SearchFilters,
			CandidatePool: pool,
		},
	}
}

// fallbackResponse 是所有失败路径的出口：目录热度序的保守推荐，
// 固定的兜底分数与置信度，模型标识指明走了兜底。
func (e *Engine) fallbackResponse(req *core.RecommendRequest, start time.Time) *core.RecommendResponse {
	limit := e.cfg.DefaultLimit
	var excluded func(string) bool
	if req != nil {
		if req.Context.Limit > 0 {
			limit = req.Context.Limit
		}
		rctx := &core.RecommendContext{ExcludeIDs: req.ExcludeVehicleIDs}
		excluded = rctx.Excluded
	}

	var vehicles []*core.Vehicle
	if e.catalog != nil {
		vehicles = append(vehicles, e.catalog.Vehicles...)
	}
	sort.SliceStable(vehicles, func(i, j int) bool {
		return vehicles[i].Popularity > vehicles[j].Popularity
	})

	results := make([]core.RecommendResult, 0, limit)
	for _, v := range vehicles {
		if v == nil {
			continue
		}
		if excluded != nil && excluded(v.ID) {
			continue
		}
		results = append(results, core.RecommendResult{
			VehicleID:    v.ID,
			Score:        e.cfg.Fallback.Score,
			Rank:         len(results) + 1,
			Scores:       core.ScoreBreakdown{Popularity: v.Popularity, Recency: v.Recency},
			Reasons:      []string{"popular pick while we learn your taste"},
			ModelVersion: ModelFallback,
			Confidence:   e.cfg.Fallback.Confidence,
		})
		if len(results) >= limit {
			break
		}
	}

	return &core.RecommendResponse{
		Recommendations: results,
		Metadata: core.ResponseMetadata{
			TotalCount:     len(results),
			ProcessingTime: time.Since(start),
			ModelUsed:      ModelFallback,
		},
	}
}

// userSegment 按预算中点粗分用户层级（仅用于 debug 展示）。
func userSegment(user *core.UserProfile) string {
	if user == nil || !user.HasBudget() {
		return "general"
	}
	mid := user.BudgetMid()
	switch {
	case mid < 3000:
		return "budget"
	case mid < 6000:
		return "midrange"
	default:
		return "premium"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
