package scorer

import (
	"context"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// Hybrid 线性混合内容打分与协同过滤：
//
//	score = content_weight·内容分 + collaborative_weight·协同分
//
// 两路都为空时退化为热度打分；恰好一路为空时原样返回另一路。
// 同一内容出现在两路时合并推荐理由，按混合分重排。
type Hybrid struct {
	Content       Scorer
	Collaborative Scorer
	Trending      Scorer
	Cfg           config.HybridConfig
}

func (s *Hybrid) Name() string { return AlgorithmHybrid }

func (s *Hybrid) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	contentCands, err := s.Content.Score(ctx, rctx, limit)
	if err != nil {
		return nil, err
	}
	collabCands, err := s.Collaborative.Score(ctx, rctx, limit)
	if err != nil {
		return nil, err
	}

	if len(contentCands) == 0 && len(collabCands) == 0 {
		return s.Trending.Score(ctx, rctx, limit)
	}
	if len(contentCands) == 0 {
		return sortAndTrim(collabCands, limit), nil
	}
	if len(collabCands) == 0 {
		return sortAndTrim(contentCands, limit), nil
	}

	merged := make(map[string]*core.Candidate, len(contentCands)+len(collabCands))
	var order []string
	for _, cand := range contentCands {
		cp := core.NewCandidate(cand.Content, cand.Score*s.Cfg.ContentWeight,
			"Content-based: "+cand.Reasoning)
		cp.PutLabel("algorithm", utils.Label{Value: AlgorithmHybrid, Source: "scorer"})
		merged[cp.ContentID()] = cp
		order = append(order, cp.ContentID())
	}
	for _, cand := range collabCands {
		weighted := cand.Score * s.Cfg.CollaborativeWeight
		if existing, ok := merged[cand.ContentID()]; ok {
			existing.Score += weighted
			existing.Reasoning += " + Collaborative: " + cand.Reasoning
			continue
		}
		cp := core.NewCandidate(cand.Content, weighted, "Collaborative: "+cand.Reasoning)
		cp.PutLabel("algorithm", utils.Label{Value: AlgorithmHybrid, Source: "scorer"})
		merged[cp.ContentID()] = cp
		order = append(order, cp.ContentID())
	}

	out := make([]*core.Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	return sortAndTrim(out, limit), nil
}
