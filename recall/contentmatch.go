package recall

import (
	"context"
	"math"
	"sort"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
)

// ContentMatch 是基于内容的召回源：候选车辆属性与用户画像直接比对。
//
// 加权匹配分：
//   - 40% 预算契合：区间内满分；区间外按与区间中点的距离线性衰减，下限 0
//   - 30% 用途 → 车型查表匹配，未命中给 0.3 部分分
//   - 20% 品牌偏好精确匹配
//   - 10% 年龄段 → 目标车型查表匹配，未命中给 0.5 部分分
//
// 画像带预算时，候选先圈定在放宽后的预算窗口内（BudgetStretch）；
// 总分低于 Cutoff（默认 0.3）的候选直接丢弃。
type ContentMatch struct {
	Catalog *core.Catalog
	Config  *config.ContentConfig
}

func (r *ContentMatch) Name() string { return "recall.content_match" }

func (r *ContentMatch) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.User == nil {
		return nil, nil
	}
	cfg := r.Config
	if cfg == nil {
		cfg = &config.Default().Content
	}
	user := rctx.User

	out := make([]*core.Item, 0)
	for _, v := range r.Catalog.Vehicles {
		if v == nil {
			continue
		}
		if user.HasBudget() && !withinStretchedBudget(v.Price, user, cfg.BudgetStretch) {
			continue
		}

		budget := budgetScore(v.Price, user)
		purpose := purposeScore(v.Category, user.Purpose, cfg)
		brand := 0.0
		if user.PrefersBrand(v.Brand) {
			brand = 1.0
		}
		age := ageScore(v.Category, user.Age, cfg)

		score := cfg.BudgetWeight*budget +
			cfg.PurposeWeight*purpose +
			cfg.BrandWeight*brand +
			cfg.AgeWeight*age
		if score <= cfg.Cutoff {
			continue
		}

		it := core.NewItem(v.ID)
		it.Score = score
		it.PutScore("content_based", score)
		it.Meta["brand"] = v.Brand
		it.Meta["category"] = v.Category
		it.Meta["price"] = v.Price
		it.AddReason(contentReason(budget, purpose, brand, user), "content")
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// withinStretchedBudget 检查价格是否落在放宽后的预算窗口内。
func withinStretchedBudget(price int, user *core.UserProfile, stretch float64) bool {
	if stretch <= 1 {
		stretch = 1
	}
	lo := float64(user.BudgetMin) / stretch
	hi := float64(user.BudgetMax) * stretch
	p := float64(price)
	return p >= lo && p <= hi
}

// budgetScore 计算预算分量。
// 区间内满分；区间外按与中点距离线性衰减（距离/中点），下限 0。
// 无预算时给中性分 0.5。
func budgetScore(price int, user *core.UserProfile) float64 {
	if !user.HasBudget() {
		return 0.5
	}
	p := float64(price)
	if p >= float64(user.BudgetMin) && p <= float64(user.BudgetMax) {
		return 1.0
	}
	mid := user.BudgetMid()
	if mid <= 0 {
		return 0
	}
	credit := 1.0 - math.Abs(p-mid)/mid
	if credit < 0 {
		return 0
	}
	return credit
}

// purposeScore 计算用途分量：查表命中满分，未命中部分分。
func purposeScore(category, purpose string, cfg *config.ContentConfig) float64 {
	categories, ok := cfg.PurposeCategories[purpose]
	if !ok {
		return cfg.PurposePartial
	}
	for _, c := range categories {
		if c == category {
			return 1.0
		}
	}
	return cfg.PurposePartial
}

// ageScore 计算年龄段分量：按 AgeBand 查目标车型，未命中部分分。
func ageScore(category string, age int, cfg *config.ContentConfig) float64 {
	if age <= 0 {
		return cfg.AgePartial
	}
	for _, band := range cfg.AgeBands {
		if age < band.MaxAge {
			for _, c := range band.Categories {
				if c == category {
					return 1.0
				}
			}
			return cfg.AgePartial
		}
	}
	return cfg.AgePartial
}

// contentReason 按主导分量生成可读理由。
func contentReason(budget, purpose, brand float64, user *core.UserProfile) string {
	switch {
	case brand == 1.0:
		return "one of your preferred brands"
	case budget == 1.0 && user.HasBudget():
		return "fits your budget range"
	case purpose == 1.0 && user.Purpose != "":
		return "matches your " + user.Purpose + " usage"
	default:
		return "close to your stated preferences"
	}
}
