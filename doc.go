// Package carreco 是二手车推荐核心（Car Recommendation Core）。
//
// 两个子系统：
//   - behavior: 会话内行为采集（浏览时长、显式动作、偏好分析、周期投递）
//   - engine: 打分引擎（个性化/首页/相似车/搜索四种场景，Pipeline 编排）
//
// 设计要点：
//   - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
//   - Labels-first: 推荐理由与召回来源以 Label 全链路透传，支持 explain
//   - 相似度外置: 引擎只消费 similarity.Provider，不实现相似度数学
//   - 永不抛错: 引擎任何失败路径都降级为合法的兜底响应
package carreco

import "github.com/carfin/carreco/pipeline"

// 轻量 facade：便于用户直接 import "carreco" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
