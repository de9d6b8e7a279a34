package behavior

import "sort"

// 参与度分级，从会话内行为推断。
const (
	EngagementVeryHigh = "very_high"
	EngagementHigh     = "high"
	EngagementMedium   = "medium"
	EngagementLow      = "low"
)

// VehicleFrequency 是会话内单辆车的关注度汇总。
// Score 为该车浏览次数占总浏览次数的比例。
type VehicleFrequency struct {
	VehicleID string  `json:"vehicleId"`
	Views     int     `json:"views"`
	Score     float64 `json:"score"`
}

// Preferences 是会话内行为的偏好画像，随每次投递一起上报，
// 也可通过 Recorder.AnalyzePreferences 随时获取。
type Preferences struct {
	TopVehicles       []VehicleFrequency `json:"topVehicles"`
	UniqueVehicles    int                `json:"uniqueVehicles"`
	TotalInteractions int                `json:"totalInteractions"`
	ExplicitActions   int                `json:"explicitActions"`
	AvgViewDuration   float64            `json:"avgViewDuration"` // 秒
	Engagement        string             `json:"engagement"`
}

// topVehicles 按浏览次数取前 n，次数相同按 ID 稳定排序。
func topVehicles(viewCounts map[string]int, totalViews, n int) []VehicleFrequency {
	out := make([]VehicleFrequency, 0, len(viewCounts))
	for id, c := range viewCounts {
		score := 0.0
		if totalViews > 0 {
			score = float64(c) / float64(totalViews)
		}
		out = append(out, VehicleFrequency{VehicleID: id, Views: c, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
