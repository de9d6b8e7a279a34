package filter

import (
	"context"

	"github.com/carfin/carreco/core"
)

// ExcludeFilter 过滤请求显式排除的车辆（excludeVehicleIds）。
// 排除列表来自请求上下文，无需外部存储。
type ExcludeFilter struct{}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || len(rctx.ExcludeIDs) == 0 {
		return false, nil
	}
	return rctx.Excluded(item.VehicleID), nil
}
