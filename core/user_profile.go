package core

// UserProfile 是用户画像：人口属性 + 偏好约束。
// 对打分引擎而言是只读输入；行为历史通过目录快照与
// SimilarityProvider 间接引用，不在画像内展开。
type UserProfile struct {
	UserID string

	Age    int
	Income int    // 年收入，万韩元
	Purpose string // commute / family / business / leisure

	PreferredBrands []string

	// 预算区间，万韩元；0 表示未设置
	BudgetMin int
	BudgetMax int
}

// HasBudget 返回画像是否携带有效预算区间。
func (p *UserProfile) HasBudget() bool {
	return p != nil && p.BudgetMin > 0 && p.BudgetMax >= p.BudgetMin
}

// BudgetMid 返回预算区间中点。
func (p *UserProfile) BudgetMid() float64 {
	if !p.HasBudget() {
		return 0
	}
	return float64(p.BudgetMin+p.BudgetMax) / 2
}

// PrefersBrand 检查品牌是否在偏好列表中。
func (p *UserProfile) PrefersBrand(brand string) bool {
	if p == nil {
		return false
	}
	for _, b := range p.PreferredBrands {
		if b == brand {
			return true
		}
	}
	return false
}
