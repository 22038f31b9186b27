package engine

import (
	"context"

	"github.com/reelkit/reelkit/core"
)

// filterCandidates 应用全部排除规则并做批内去重：
//   - 目标已评分的内容（仅个人目标有评分）
//   - 目标待看清单里的内容
//   - 名下已有推荐行的内容（含已过期/已忽略，直到物理清理）
//   - 命中配置排除规则（CEL）的内容
//   - 同一批次内的重复内容
//
// 顺序保持打分器给出的排序。
func (e *Engine) filterCandidates(ctx context.Context, subject core.Subject, rctx *core.RecommendContext, cands []*core.Candidate) ([]*core.Candidate, error) {
	excluded, err := e.exclusionSet(ctx, subject)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, cand := range cands {
		id := cand.ContentID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, skip := excluded[id]; skip {
			continue
		}
		if e.matchesExcludeRule(cand, rctx) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, cand)
	}
	return out, nil
}

// exclusionSet 收集目标不应再被推荐的内容 ID。
func (e *Engine) exclusionSet(ctx context.Context, subject core.Subject) (map[string]struct{}, error) {
	excluded := make(map[string]struct{})

	if subject.IsPerson() {
		ratings, err := e.ratings.RatingsByPerson(ctx, subject.PersonID)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load ratings: "+err.Error())
		}
		for _, r := range ratings {
			excluded[r.ContentID] = struct{}{}
		}
	}

	entries, err := e.watchlist.EntriesBySubject(ctx, subject)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load watchlist: "+err.Error())
	}
	for _, entry := range entries {
		excluded[entry.ContentID] = struct{}{}
	}

	// 目标名下任何仍在库的推荐行（含 expired/dismissed/archived）都不重复推荐；
	// 物理清理把行删掉之后，内容才重新进入候选池
	existing, err := e.recs.SubjectRecommendations(ctx, subject)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load recommendations: "+err.Error())
	}
	for _, rec := range existing {
		excluded[rec.ContentID] = struct{}{}
	}
	return excluded, nil
}

// matchesExcludeRule 逐条应用配置的 CEL 规则；求值失败只记日志不拦截。
func (e *Engine) matchesExcludeRule(cand *core.Candidate, rctx *core.RecommendContext) bool {
	for _, rule := range e.rules {
		hit, err := rule.Evaluate(cand, rctx)
		if err != nil {
			e.log.Warn("exclude rule evaluation failed", "rule", rule.Expr(), "content", cand.ContentID(), "err", err)
			continue
		}
		if hit {
			return true
		}
	}
	return false
}
