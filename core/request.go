package core

import "time"

// RequestType 是推荐请求的场景类型，决定引擎分发到哪条策略。
type RequestType string

const (
	RequestHomepage     RequestType = "homepage"
	RequestSearch       RequestType = "search"
	RequestSimilar      RequestType = "similar"
	RequestPersonalized RequestType = "personalized"
)

// RequestContext 是请求的场景上下文。
type RequestContext struct {
	Type             RequestType       `json:"type"`
	CurrentVehicleID string            `json:"currentVehicleId,omitempty"`
	SearchFilters    map[string]string `json:"searchFilters,omitempty"`
	Limit            int               `json:"limit"`
}

// RecommendRequest 是打分引擎的唯一公共入口参数。
type RecommendRequest struct {
	UserID            string          `json:"userId"`
	User              *UserProfile    `json:"-"`
	Context           RequestContext  `json:"context"`
	ExcludeVehicleIDs []string        `json:"excludeVehicleIds,omitempty"`
}

// ScoreBreakdown 是单条推荐的信号分数拆解。
type ScoreBreakdown struct {
	Collaborative float64 `json:"collaborative"`
	ContentBased  float64 `json:"contentBased"`
	Popularity    float64 `json:"popularity"`
	Recency       float64 `json:"recency"`
}

// RecommendResult 是响应中的一条推荐。
// 同一响应内 VehicleID 唯一，Rank 严格递增且 Score 非递增。
type RecommendResult struct {
	VehicleID    string         `json:"vehicleId"`
	Score        float64        `json:"score"`
	Rank         int            `json:"rank"`
	Scores       ScoreBreakdown `json:"scores"`
	Reasons      []string       `json:"reasons"`
	ModelVersion string         `json:"modelVersion"`
	Confidence   float64        `json:"confidence"`
}

// ResponseMetadata 是响应级的诊断信息。
type ResponseMetadata struct {
	TotalCount     int           `json:"totalCount"`
	ProcessingTime time.Duration `json:"processingTime"`
	ModelUsed      string        `json:"modelUsed"`
}

// ResponseDebug 是可选的调试信息。
type ResponseDebug struct {
	UserSegment   string            `json:"userSegment,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	CandidatePool int               `json:"candidatePool"`
}

// RecommendResponse 是打分引擎的响应信封。
// 任何失败路径都以合法的 Response 结束，绝不向调用方抛错。
type RecommendResponse struct {
	Recommendations []RecommendResult `json:"recommendations"`
	Metadata        ResponseMetadata  `json:"metadata"`
	Debug           *ResponseDebug    `json:"debug,omitempty"`
}
