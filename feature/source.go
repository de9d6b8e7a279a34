// Package feature 负责车辆相似度特征向量的生产：
// 引擎初始化时从这里取向量并注册到 SimilarityProvider。
package feature

import (
	"context"
	"time"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
)

// Source 是车辆特征向量的来源抽象。
// CatalogSource 从目录快照现算；FeastSource 从 Feast 在线特征库拉取。
type Source interface {
	Name() string

	// Vectors 返回每辆车的相似度特征向量（vehicleID → 特征名 → 值）
	Vectors(ctx context.Context, catalog *core.Catalog) (map[string]map[string]float64, error)
}

// CatalogSource 从目录快照派生特征向量，并把 popularity / recency
// 两个派生分数回填到 Vehicle 上（打分信封会引用它们）。
type CatalogSource struct {
	Popularity *config.PopularityConfig

	// Now 可注入，便于测试；为空取 time.Now
	Now func() time.Time
}

func (s *CatalogSource) Name() string { return "feature.catalog" }

func (s *CatalogSource) Vectors(
	_ context.Context,
	catalog *core.Catalog,
) (map[string]map[string]float64, error) {
	if catalog == nil {
		return nil, nil
	}
	popCfg := s.Popularity
	if popCfg == nil {
		popCfg = &config.Default().Popularity
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	// 热度：加权交互计数归一
	counts := make(map[string]float64)
	for _, it := range catalog.History {
		if it == nil {
			continue
		}
		if w, ok := popCfg.Weights[string(it.Type)]; ok {
			counts[it.VehicleID] += w
		}
	}

	norm := popCfg.Norm
	if norm <= 0 {
		norm = 100
	}
	currentYear := now().Year()

	out := make(map[string]map[string]float64, len(catalog.Vehicles))
	for _, v := range catalog.Vehicles {
		if v == nil {
			continue
		}

		popularity := counts[v.ID] / norm
		if popularity > 1 {
			popularity = 1
		}
		if popularity < 0 {
			popularity = 0
		}

		// 新旧程度：10 年线性衰减
		recency := 1.0 - float64(currentYear-v.Year)/10.0
		if recency < 0 {
			recency = 0
		}
		if recency > 1 {
			recency = 1
		}

		v.Popularity = popularity
		v.Recency = recency

		vec := v.FeatureVector()
		vec["popularity"] = popularity
		vec["recency"] = recency
		out[v.ID] = vec
	}
	return out, nil
}

var _ Source = (*CatalogSource)(nil)
