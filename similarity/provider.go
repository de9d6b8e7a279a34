// Package similarity 定义相似度子系统的消费契约。
// 线上实现是外部的数值训练服务（NCF 等），本模块只按固定接口消费，
// 不重新推导其内部数学；MemoryProvider 仅作为开发/测试参考实现。
package similarity

import (
	"context"

	"github.com/carfin/carreco/core"
)

// UserSimilarity 是一条相似用户记录，按相似度降序返回。
type UserSimilarity struct {
	UserID     string
	Similarity float64
}

// CarSimilarity 是一条相似车辆记录，按相似度降序返回。
type CarSimilarity struct {
	CarID      string
	Similarity float64
}

// UserStats 是辅助统计，仅用于诊断展示。
type UserStats struct {
	InteractionCount int
	VehicleCount     int
	AvgConfidence    float64
}

// Provider 是相似度后端的策略抽象。
// 替换后端（NCF、矩阵分解、外部 RPC）不应触及打分引擎。
type Provider interface {
	// UpdateUserCarInteraction 训练期注入：初始化时每个 (user, vehicle)
	// 交互组恰好提交一次
	UpdateUserCarInteraction(ctx context.Context, userID, vehicleID string, interactions []*core.Interaction) error

	// SetCarFeatures 注册车辆的相似度特征向量
	SetCarFeatures(ctx context.Context, vehicleID string, features map[string]float64) error

	// FindSimilarUsers 返回与 userID 最相似的 k 个用户，相似度降序
	FindSimilarUsers(ctx context.Context, userID string, k int) ([]UserSimilarity, error)

	// FindSimilarCars 返回与 vehicleID 最相似的 k 辆车，相似度降序
	FindSimilarCars(ctx context.Context, vehicleID string, k int) ([]CarSimilarity, error)

	// GetUserStats 返回用户的辅助统计（诊断用）
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
}
