package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/reelkit/reelkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是候选排除规则的解释器，使用 CEL (Common Expression Language) 实现。
// 一条规则编译一次，对整批候选逐条求值；返回 true 表示候选命中规则。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.rating < 6.0 / item.year < 1990 / item.score >= 0.5
//   - 包含："horror" in item.genres
//   - 逻辑：item.type == "movie" && item.duration > 180
//   - 标签：label.algorithm == "trending"（label.key 不存在时为 null）
//
// 示例：
//   - `"horror" in item.genres` → 排除恐怖片
//   - `item.year < 1990 && item.rating < 7.0` → 排除低分老片
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译一条排除规则。编译失败返回错误，引擎应在加载配置时就暴露坏规则。
func NewEval(expr string) (*Eval, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Eval{expr: expr, prg: prg}, nil
}

// Expr 返回规则的原始表达式文本。
func (e *Eval) Expr() string {
	return e.expr
}

// Evaluate 对单个候选求值，返回布尔结果。
// 求值出错（比如访问不存在的字段）视为不命中，由调用方决定是否记日志。
func (e *Eval) Evaluate(cand *core.Candidate, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(cand, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", e.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return boolean, got %T", e.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(cand *core.Candidate, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(cand.Labels))
	labelAccessor := make(map[string]any, len(cand.Labels))
	for k, v := range cand.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		// label.key 直接取 value，存在性用 label.key != null 判断
		labelAccessor[k] = v.Value
	}

	item := map[string]any{
		"score":  cand.Score,
		"labels": labels,
	}
	if c := cand.Content; c != nil {
		item["id"] = c.ID
		item["title"] = c.Title
		item["type"] = c.Type
		item["genres"] = c.Genres
		item["year"] = c.Year
		item["rating"] = c.Rating
		item["duration"] = c.Duration
	}

	input := map[string]any{
		"item":  item,
		"label": labelAccessor,
	}
	if rctx != nil {
		input["rctx"] = map[string]any{
			"subject":   rctx.Subject.Key(),
			"algorithm": rctx.Algorithm,
			"variant":   rctx.Variant,
			"params":    rctx.Params,
		}
	} else {
		input["rctx"] = map[string]any{}
	}
	return input
}
