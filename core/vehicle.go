package core

// Vehicle 是车辆目录中的一条候选记录。
// 目录在启动时以不可变快照的形式注入，推荐核心只读不写。
type Vehicle struct {
	ID       string
	Brand    string // 현대 / 기아 / BMW / 벤츠 ...
	Model    string
	Category string // compact / sedan / suv / minivan / sports / luxury ...
	FuelType string // gasoline / diesel / hybrid / electric
	Price    int    // 万韩元（만원）
	Year     int
	Mileage  int // km

	// Popularity / Recency 是派生分数（0-1），由 feature.CatalogSource
	// 根据交互日志与车辆年份计算后回填。
	Popularity float64
	Recency    float64
}

// FeatureVector 返回车辆的相似度特征向量。
// 数值特征做朴素归一，离散特征 one-hot；该向量仅用于注册到
// SimilarityProvider，不参与本模块内的打分。
func (v *Vehicle) FeatureVector() map[string]float64 {
	features := map[string]float64{
		"price":   float64(v.Price) / 10000.0,
		"year":    float64(v.Year-2000) / 30.0,
		"mileage": float64(v.Mileage) / 200000.0,
	}
	if v.Brand != "" {
		features["brand:"+v.Brand] = 1
	}
	if v.Category != "" {
		features["category:"+v.Category] = 1
	}
	if v.FuelType != "" {
		features["fuel:"+v.FuelType] = 1
	}
	return features
}
