package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 推荐理由（reason）、召回来源等都以 Label 形式挂在候选上。
// Value 与 Source 的语义由业务自定义；carreco 只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / rule ...
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 如果你需要更复杂的优先级/覆盖规则，可以在上层封装自己的 merge 策略。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// SplitValues 将累积后的 Label 值拆回单条列表。
func SplitValues(lbl Label) []string {
	if lbl.Value == "" {
		return nil
	}
	out := make([]string, 0, 2)
	start := 0
	for i := 0; i < len(lbl.Value); i++ {
		if lbl.Value[i] == '|' {
			if i > start {
				out = append(out, lbl.Value[start:i])
			}
			start = i + 1
		}
	}
	if start < len(lbl.Value) {
		out = append(out, lbl.Value[start:])
	}
	return out
}
