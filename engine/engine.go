// Package engine 把画像、打分、实验分流、过滤与生命周期编排成
// 完整的推荐生成链路。打分器负责"排序谁在前"，engine 负责其余一切：
// 目标校验、过期清理、算法选择、排除过滤、截断落盘与历史记录。
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/experiment"
	"github.com/reelkit/reelkit/pkg/dsl"
	"github.com/reelkit/reelkit/pkg/logx"
	"github.com/reelkit/reelkit/profile"
	"github.com/reelkit/reelkit/scorer"
)

// DefaultAlgorithm 未指定算法时的默认选择。
const DefaultAlgorithm = scorer.AlgorithmHybrid

// Options 是 Engine 的依赖集合。
type Options struct {
	Recommendations core.RecommendationStore
	Feedback        core.FeedbackStore
	History         core.HistoryStore
	Ratings         core.RatingStore
	Watchlist       core.WatchlistStore

	Profiles *profile.Builder
	Scorers  *scorer.Registry
	Assigner *experiment.Assigner

	Config *config.Config
	Logger *logx.Logger

	// Now 可注入的时钟，nil 时使用 time.Now
	Now func() time.Time
}

// Engine 是推荐生成的入口。
type Engine struct {
	recs      core.RecommendationStore
	feedback  core.FeedbackStore
	history   core.HistoryStore
	ratings   core.RatingStore
	watchlist core.WatchlistStore

	profiles *profile.Builder
	scorers  *scorer.Registry
	assigner *experiment.Assigner

	cfg   *config.Config
	log   *logx.Logger
	nowFn func() time.Time

	// rules 在构造时编译完成，坏规则在启动时就暴露
	rules []*dsl.Eval

	// sf 按目标串行化生成：同一目标的并发 Generate 只算一次
	sf singleflight.Group
}

func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logx.Nop()
	}
	e := &Engine{
		recs:      opts.Recommendations,
		feedback:  opts.Feedback,
		history:   opts.History,
		ratings:   opts.Ratings,
		watchlist: opts.Watchlist,
		profiles:  opts.Profiles,
		scorers:   opts.Scorers,
		assigner:  opts.Assigner,
		cfg:       opts.Config,
		log:       logger,
		nowFn:     opts.Now,
	}
	for _, expr := range opts.Config.ExcludeRules {
		rule, err := dsl.NewEval(expr)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "exclude rule: "+err.Error())
		}
		e.rules = append(e.rules, rule)
	}
	return e, nil
}

func (e *Engine) now() time.Time {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now()
}

// GenerateRequest 描述一次生成调用。
type GenerateRequest struct {
	Subject core.Subject
	// Algorithm 为空时用默认算法；实验分流可能改写它
	Algorithm string
	// Limit 期望条数，0 取配置默认值
	Limit int
	// ExperimentID 可选：命中运行中的实验时按变体选算法
	ExperimentID string
	// Params 请求级上下文参数，透传给打分器与排除规则
	Params map[string]any
}

// Generate 为目标生成一批推荐并原子落盘。
//
// 流程：校验目标 → 过期清理 → 解析画像 → 实验分流 → 按 2×limit 打分
// → 排除过滤（已评分/已在清单/已有活跃推荐/规则/批内去重）→ 截断
// → 整批落盘 + 写生成历史 → 活跃集超限归档。
//
// 只有目标非法、目标不存在、或兜底链全空时才向调用方返回错误。
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) ([]*core.Recommendation, error) {
	if err := req.Subject.Validate(); err != nil {
		return nil, err
	}
	v, err, _ := e.sf.Do(req.Subject.Key(), func() (any, error) {
		return e.generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*core.Recommendation), nil
}

func (e *Engine) generate(ctx context.Context, req GenerateRequest) ([]*core.Recommendation, error) {
	now := e.now()
	limit := e.cfg.ClampLimit(req.Limit)

	if _, err := e.recs.ExpireDue(ctx, now); err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "expire pass: "+err.Error())
	}

	prof, err := e.profiles.Resolve(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	variant := ""
	if req.ExperimentID != "" && e.assigner != nil {
		v, algo, err := e.assigner.Resolve(ctx, req.ExperimentID, req.Subject.ID(), now)
		if err != nil {
			return nil, err
		}
		variant = v
		if algo != "" {
			algorithm = algo
		}
	}

	rctx := &core.RecommendContext{
		Subject:      req.Subject,
		Profile:      prof,
		Algorithm:    algorithm,
		Limit:        limit,
		Now:          now,
		ExperimentID: req.ExperimentID,
		Variant:      variant,
		Params:       req.Params,
	}

	cands, used, err := e.scoreWithFallback(ctx, rctx, algorithm, 2*limit)
	if err != nil {
		return nil, err
	}
	// 兜底链生效时，落盘记录实际产出的算法而不是请求的算法
	algorithm = used

	cands, err = e.filterCandidates(ctx, req.Subject, rctx, cands)
	if err != nil {
		return nil, err
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}

	recs := make([]*core.Recommendation, 0, len(cands))
	for _, cand := range cands {
		recs = append(recs, &core.Recommendation{
			ID:           uuid.NewString(),
			Subject:      req.Subject,
			ContentID:    cand.ContentID(),
			Score:        cand.Score,
			Algorithm:    algorithm,
			Reasoning:    cand.Reasoning,
			ExperimentID: req.ExperimentID,
			Variant:      variant,
			Status:       core.StatusActive,
			CreatedAt:    now,
			ExpiresAt:    now.Add(e.cfg.ExpirationFor(algorithm)),
		})
	}
	hist := &core.GenerationHistory{
		ID:           uuid.NewString(),
		Subject:      req.Subject,
		Algorithm:    algorithm,
		GeneratedAt:  now,
		Total:        len(recs),
		ExperimentID: req.ExperimentID,
		Variant:      variant,
	}
	if err := e.recs.SaveBatch(ctx, recs, hist); err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "save batch: "+err.Error())
	}

	if err := e.archiveOverCap(ctx, req.Subject, now); err != nil {
		return nil, err
	}

	e.log.Info("recommendations generated",
		"subject", req.Subject.Key(),
		"algorithm", algorithm,
		"count", len(recs),
		"variant", variant,
	)
	return recs, nil
}

// scoreWithFallback 执行所选算法，产出为空或失败时沿
// content_based → trending → popularity 的兜底链依次尝试，
// 返回候选与实际产出候选的算法名。全链为空时返回 ALGORITHM_FAILURE。
func (e *Engine) scoreWithFallback(ctx context.Context, rctx *core.RecommendContext, algorithm string, want int) ([]*core.Candidate, string, error) {
	chain := []string{algorithm, scorer.AlgorithmContentBased, scorer.AlgorithmTrending, scorer.AlgorithmPopularity}
	tried := make(map[string]bool, len(chain))
	for _, name := range chain {
		if tried[name] {
			continue
		}
		tried[name] = true
		s, err := e.scorers.Get(name)
		if err != nil {
			e.log.Warn("algorithm unavailable, trying next", "algorithm", name, "err", err)
			continue
		}
		cands, err := s.Score(ctx, rctx, want)
		if err != nil {
			e.log.Warn("scorer failed, trying next", "algorithm", name, "err", err)
			continue
		}
		if len(cands) > 0 {
			return cands, name, nil
		}
	}
	return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeAlgorithmFailure,
		"no algorithm produced candidates for "+rctx.Subject.Key())
}

// ShouldRegenerate 判断是否值得重新生成：没有活跃推荐，
// 或最新一条已超过最小间隔。minInterval 为 0 时取配置默认值。
func (e *Engine) ShouldRegenerate(ctx context.Context, subject core.Subject, minInterval time.Duration) (bool, error) {
	if err := subject.Validate(); err != nil {
		return false, err
	}
	if minInterval <= 0 {
		minInterval = e.cfg.MinRegenInterval()
	}
	newest, err := e.recs.NewestBySubject(ctx, subject)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return true, nil
		}
		return false, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load newest: "+err.Error())
	}
	return e.now().Sub(newest.CreatedAt) > minInterval, nil
}

// Active 返回目标当前的活跃推荐（按分数降序）。
func (e *Engine) Active(ctx context.Context, subject core.Subject) ([]*core.Recommendation, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	recs, err := e.recs.ActiveBySubject(ctx, subject, e.now())
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load active: "+err.Error())
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}
