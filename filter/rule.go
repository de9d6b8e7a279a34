package filter

import (
	"context"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pkg/dsl"
)

// RuleFilter 是 CEL 表达式驱动的业务规则过滤器。
// 表达式求值为 true 的候选被过滤，例如：
//
//	label.recall_source == "popular" && item.score < 0.1
//	rctx.scene == "homepage" && label.brand == "BMW"
//
// 表达式写在配置里（config.Rules），规则调整不需要改代码。
// 表达式求值失败时保留候选（宁可多出结果，不误杀）。
type RuleFilter struct {
	Expressions []string
}

func NewRuleFilter(expressions []string) *RuleFilter {
	return &RuleFilter{Expressions: expressions}
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if len(f.Expressions) == 0 {
		return false, nil
	}

	eval := dsl.NewEval(item, rctx)
	for _, expr := range f.Expressions {
		matched, err := eval.Evaluate(expr)
		if err != nil {
			continue
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
