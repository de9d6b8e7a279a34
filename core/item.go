package core

import "github.com/carfin/carreco/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选车辆 + 各信号分数 + 元信息 + 标签。
// Labels 用于解释与策略驱动；Score 用于排序决策；Scores 保留各信号的分数拆解。
type Item struct {
	VehicleID string
	Score     float64

	// Scores 是信号级分数拆解，key 为信号名：
	// collaborative / content_based / popularity / recency
	Scores map[string]float64

	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(vehicleID string) *Item {
	return &Item{
		VehicleID: vehicleID,
		Score:     0,
		Scores:    make(map[string]float64),
		Meta:      make(map[string]any),
		Labels:    make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutScore 写入信号分数拆解。
func (it *Item) PutScore(signal string, score float64) {
	if it.Scores == nil {
		it.Scores = make(map[string]float64)
	}
	it.Scores[signal] = score
}

// AddReason 追加一条可读的推荐理由（按 Label 合并规则以 '|' 累积）。
func (it *Item) AddReason(reason, source string) {
	it.PutLabel("reason", utils.Label{Value: reason, Source: source})
}
