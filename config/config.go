// Package config 集中管理产品调参常量。
// 置信度表、权重占比、时长分桶、交互权重等阈值都是具名、
// 可覆盖的配置，而不是散落在代码里的字面量。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DurationBucket 是浏览时长到置信度的阶梯映射中的一档：
// 时长 < Below 秒时取 Confidence。
type DurationBucket struct {
	Below      int     `yaml:"below"`
	Confidence float64 `yaml:"confidence"`
}

// AgeBand 是年龄段到目标车型的映射：Age < MaxAge 时命中该档。
type AgeBand struct {
	MaxAge     int      `yaml:"max_age"`
	Categories []string `yaml:"categories"`
}

// EngagementConfig 是参与度分级阈值。
type EngagementConfig struct {
	VeryHighRatio  float64 `yaml:"very_high_ratio"`
	HighRatio      float64 `yaml:"high_ratio"`
	MediumMinTotal int     `yaml:"medium_min_total"`
}

// ContentConfig 是内容匹配策略的权重与查表配置。
type ContentConfig struct {
	BudgetWeight  float64 `yaml:"budget_weight"`
	PurposeWeight float64 `yaml:"purpose_weight"`
	BrandWeight   float64 `yaml:"brand_weight"`
	AgeWeight     float64 `yaml:"age_weight"`

	// Cutoff 以下的候选直接丢弃
	Cutoff float64 `yaml:"cutoff"`

	// 查表未命中的部分分
	PurposePartial float64 `yaml:"purpose_partial"`
	AgePartial     float64 `yaml:"age_partial"`

	// BudgetStretch 控制候选圈定的预算放宽倍数：
	// 价格落在 [min/stretch, max*stretch] 之外的车辆不进入候选。
	// 区间内、预算外的车辆由预算分量按中点距离线性衰减。
	BudgetStretch float64 `yaml:"budget_stretch"`

	// PurposeCategories: 用途 → 匹配车型列表
	PurposeCategories map[string][]string `yaml:"purpose_categories"`

	// AgeBands: 年龄段 → 目标车型列表，按 MaxAge 升序
	AgeBands []AgeBand `yaml:"age_bands"`
}

// CollaborativeConfig 是协同信号的配置。
type CollaborativeConfig struct {
	Weight           float64  `yaml:"weight"`
	SimilarUsersK    int      `yaml:"similar_users_k"`
	SimilarUsersUse  int      `yaml:"similar_users_use"`
	FavoritesPerUser int      `yaml:"favorites_per_user"`
	FavoredTypes     []string `yaml:"favored_types"`
}

// PopularityConfig 是热度信号的配置。
type PopularityConfig struct {
	// Weights: 交互类型 → 热度权重（skip 为负）
	Weights map[string]float64 `yaml:"weights"`

	// Norm: 加权计数除以 Norm 后截断到 1
	Norm float64 `yaml:"norm"`
}

// HomepageConfig 是首页混合策略的配置。
type HomepageConfig struct {
	// PersonalizedRatio: limit 中来自个性化结果的比例，其余由热度补足
	PersonalizedRatio float64 `yaml:"personalized_ratio"`
}

// DiversityConfig 是品牌多样性重排的配置。
type DiversityConfig struct {
	// FreeSlots: 前 N 个槽位无条件接受，不检查品牌重复
	FreeSlots int `yaml:"free_slots"`
}

// FlushConfig 是行为日志投递的配置。
type FlushConfig struct {
	IntervalSec int `yaml:"interval_sec"`
	TimeoutSec  int `yaml:"timeout_sec"`

	// FallbackCap: 投递失败时兜底存储的条数上限，超出丢弃最旧
	FallbackCap int `yaml:"fallback_cap"`
}

// SessionConfig 是会话上下文的配置。
type SessionConfig struct {
	// ClickPatternCap: 点击序列环形缓冲容量
	ClickPatternCap int `yaml:"click_pattern_cap"`
}

// FallbackConfig 是兜底响应的配置。
type FallbackConfig struct {
	Score      float64 `yaml:"score"`
	Confidence float64 `yaml:"confidence"`
}

// Config 是 carreco 的全量调参配置。
type Config struct {
	DefaultLimit int `yaml:"default_limit"`

	// InitialConfidence: 交互类型 → 初始置信度
	InitialConfidence map[string]float64 `yaml:"initial_confidence"`

	// DurationBuckets: 浏览时长阶梯，按 Below 升序；超出最后一档取 LongViewConfidence
	DurationBuckets    []DurationBucket `yaml:"duration_buckets"`
	LongViewConfidence float64          `yaml:"long_view_confidence"`

	Engagement    EngagementConfig    `yaml:"engagement"`
	Content       ContentConfig       `yaml:"content"`
	Collaborative CollaborativeConfig `yaml:"collaborative"`
	Popularity    PopularityConfig    `yaml:"popularity"`
	Homepage      HomepageConfig      `yaml:"homepage"`
	Diversity     DiversityConfig     `yaml:"diversity"`
	Flush         FlushConfig         `yaml:"flush"`
	Session       SessionConfig       `yaml:"session"`
	Fallback      FallbackConfig      `yaml:"fallback"`

	// Rules: CEL 业务规则表达式，命中即过滤（见 filter.RuleFilter）
	Rules []string `yaml:"rules"`
}

// Default 返回产品当前线上调参值。
// 这些数值是运营调优的结果，不是推导出来的约束。
func Default() *Config {
	return &Config{
		DefaultLimit: 10,
		InitialConfidence: map[string]float64{
			"view":       0.2,
			"like":       0.8,
			"inquiry":    0.9,
			"test_drive": 0.95,
			"share":      0.6,
		},
		DurationBuckets: []DurationBucket{
			{Below: 5, Confidence: 0.1},
			{Below: 15, Confidence: 0.3},
			{Below: 30, Confidence: 0.5},
			{Below: 60, Confidence: 0.7},
		},
		LongViewConfidence: 0.9,
		Engagement: EngagementConfig{
			VeryHighRatio:  0.3,
			HighRatio:      0.1,
			MediumMinTotal: 10,
		},
		Content: ContentConfig{
			BudgetWeight:   0.4,
			PurposeWeight:  0.3,
			BrandWeight:    0.2,
			AgeWeight:      0.1,
			Cutoff:         0.3,
			PurposePartial: 0.3,
			AgePartial:     0.5,
			BudgetStretch:  1.3,
			PurposeCategories: map[string][]string{
				"commute":  {"compact", "sedan", "hatchback"},
				"family":   {"suv", "minivan", "wagon"},
				"business": {"sedan", "luxury"},
				"leisure":  {"suv", "sports", "convertible"},
			},
			AgeBands: []AgeBand{
				{MaxAge: 30, Categories: []string{"compact", "hatchback", "sports"}},
				{MaxAge: 45, Categories: []string{"sedan", "suv"}},
				{MaxAge: 200, Categories: []string{"sedan", "suv", "luxury"}},
			},
		},
		Collaborative: CollaborativeConfig{
			Weight:           0.8,
			SimilarUsersK:    10,
			SimilarUsersUse:  5,
			FavoritesPerUser: 10,
			FavoredTypes:     []string{"like", "save", "detail_view"},
		},
		Popularity: PopularityConfig{
			Weights: map[string]float64{
				"click":       1,
				"long_hover":  2,
				"like":        5,
				"save":        8,
				"detail_view": 3,
				"compare_add": 4,
				"skip":        -1,
			},
			Norm: 100,
		},
		Homepage: HomepageConfig{
			PersonalizedRatio: 0.7,
		},
		Diversity: DiversityConfig{
			FreeSlots: 3,
		},
		Flush: FlushConfig{
			IntervalSec: 300,
			TimeoutSec:  10,
			FallbackCap: 1000,
		},
		Session: SessionConfig{
			ClickPatternCap: 50,
		},
		Fallback: FallbackConfig{
			Score:      0.5,
			Confidence: 0.3,
		},
	}
}

// InteractionConfidence 返回交互类型的初始置信度，未配置的类型取 0.5。
func (c *Config) InteractionConfidence(interactionType string) float64 {
	if v, ok := c.InitialConfidence[interactionType]; ok {
		return v
	}
	return 0.5
}

// ViewConfidence 按浏览时长（秒）查阶梯表，超出最后一档取 LongViewConfidence。
func (c *Config) ViewConfidence(seconds int) float64 {
	for _, b := range c.DurationBuckets {
		if seconds < b.Below {
			return b.Confidence
		}
	}
	return c.LongViewConfidence
}

// Load 在默认配置之上叠加 YAML 覆盖。
// map 按 key 合并，slice 与标量整体替换。
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	return cfg, nil
}

// LoadFile 从文件加载配置覆盖。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}
