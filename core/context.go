package core

import "github.com/carfin/carreco/pkg/utils"

// RecommendContext 承载单次请求的用户/场景信息，贯穿整个 Pipeline 透传。
// 由引擎从 RecommendRequest 构建，Node 之间只读共享。
type RecommendContext struct {
	UserID string
	Scene  RequestType

	// User 是强类型用户画像，可能为 nil（冷启动/匿名）
	User *UserProfile

	CurrentVehicleID string
	SearchFilters    map[string]string
	Limit            int
	ExcludeIDs       []string

	// Labels 是请求级标签，可驱动 Pipeline 行为（如规则过滤）
	Labels map[string]utils.Label

	// Params 请求级上下文参数（设备、实验桶等），按需透传
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// Excluded 检查车辆是否在请求的排除列表中。
func (rctx *RecommendContext) Excluded(vehicleID string) bool {
	for _, id := range rctx.ExcludeIDs {
		if id == vehicleID {
			return true
		}
	}
	return false
}
