package similarity

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/carfin/carreco/core"
)

// MemoryProvider 是 Provider 的内存参考实现：
// 用户侧以“车辆 → 置信度累计”为行为向量做余弦相似，
// 车辆侧以注册的特征向量做余弦相似。
//
// 仅用于开发与测试；线上请接入外部训练服务。
type MemoryProvider struct {
	mu sync.RWMutex

	// userVectors: userID → (vehicleID → 累计置信度)
	userVectors map[string]map[string]float64

	// carFeatures: vehicleID → 特征向量
	carFeatures map[string]map[string]float64

	// stats: userID → 交互统计
	stats map[string]*UserStats
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		userVectors: make(map[string]map[string]float64),
		carFeatures: make(map[string]map[string]float64),
		stats:       make(map[string]*UserStats),
	}
}

func (p *MemoryProvider) UpdateUserCarInteraction(
	_ context.Context,
	userID, vehicleID string,
	interactions []*core.Interaction,
) error {
	if userID == "" || vehicleID == "" || len(interactions) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	vec := p.userVectors[userID]
	if vec == nil {
		vec = make(map[string]float64)
		p.userVectors[userID] = vec
	}

	st := p.stats[userID]
	if st == nil {
		st = &UserStats{}
		p.stats[userID] = st
	}

	var sum float64
	for _, it := range interactions {
		vec[vehicleID] += it.Confidence
		sum += it.Confidence
	}
	prevTotal := float64(st.InteractionCount) * st.AvgConfidence
	st.InteractionCount += len(interactions)
	st.VehicleCount = len(vec)
	st.AvgConfidence = (prevTotal + sum) / float64(st.InteractionCount)
	return nil
}

func (p *MemoryProvider) SetCarFeatures(
	_ context.Context,
	vehicleID string,
	features map[string]float64,
) error {
	if vehicleID == "" {
		return nil
	}
	cloned := make(map[string]float64, len(features))
	for k, v := range features {
		cloned[k] = v
	}

	p.mu.Lock()
	p.carFeatures[vehicleID] = cloned
	p.mu.Unlock()
	return nil
}

func (p *MemoryProvider) FindSimilarUsers(
	_ context.Context,
	userID string,
	k int,
) ([]UserSimilarity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	target, ok := p.userVectors[userID]
	if !ok || len(target) == 0 || k <= 0 {
		return nil, nil
	}

	out := make([]UserSimilarity, 0, len(p.userVectors))
	for otherID, vec := range p.userVectors {
		if otherID == userID {
			continue
		}
		if sim := cosine(target, vec); sim > 0 {
			out = append(out, UserSimilarity{UserID: otherID, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (p *MemoryProvider) FindSimilarCars(
	_ context.Context,
	vehicleID string,
	k int,
) ([]CarSimilarity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	target, ok := p.carFeatures[vehicleID]
	if !ok || len(target) == 0 || k <= 0 {
		return nil, nil
	}

	out := make([]CarSimilarity, 0, len(p.carFeatures))
	for otherID, vec := range p.carFeatures {
		if otherID == vehicleID {
			continue
		}
		if sim := cosine(target, vec); sim > 0 {
			out = append(out, CarSimilarity{CarID: otherID, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (p *MemoryProvider) GetUserStats(_ context.Context, userID string) (*UserStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st, ok := p.stats[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeNotFound, "similarity: unknown user "+userID)
	}
	cloned := *st
	return &cloned, nil
}

// cosine 计算两个稀疏向量的余弦相似度。
func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Provider = (*MemoryProvider)(nil)
