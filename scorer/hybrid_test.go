package scorer_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/scorer"
)

// fixedScorer 返回预置候选，便于单测混合逻辑
type fixedScorer struct {
	name  string
	cands []*core.Candidate
	err   error
}

func (f *fixedScorer) Name() string { return f.name }

func (f *fixedScorer) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.cands) > limit {
		return f.cands[:limit], nil
	}
	return f.cands, nil
}

func cand(id string, score float64, reasoning string) *core.Candidate {
	return core.NewCandidate(&core.ContentItem{ID: id}, score, reasoning)
}

func newHybrid(content, collab, trending scorer.Scorer) *scorer.Hybrid {
	return &scorer.Hybrid{
		Content:       content,
		Collaborative: collab,
		Trending:      trending,
		Cfg:           config.Default().Hybrid,
	}
}

func TestHybridCombinesWeighted(t *testing.T) {
	content := &fixedScorer{name: "content_based", cands: []*core.Candidate{
		cand("both", 1.0, "genre match"),
		cand("only-content", 0.5, "type match"),
	}}
	collab := &fixedScorer{name: "collaborative", cands: []*core.Candidate{
		cand("both", 1.0, "2 similar users"),
	}}
	h := newHybrid(content, collab, &fixedScorer{name: "trending"})

	cands, err := h.Score(context.Background(), personCtx("u1", nil), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	// both: 0.6·1.0 + 0.4·1.0 = 1.0；only-content: 0.6·0.5 = 0.3
	if cands[0].ContentID() != "both" || math.Abs(cands[0].Score-1.0) > 1e-9 {
		t.Errorf("first = %s score %v, want both 1.0", cands[0].ContentID(), cands[0].Score)
	}
	if math.Abs(cands[1].Score-0.3) > 1e-9 {
		t.Errorf("only-content score = %v, want 0.3", cands[1].Score)
	}
	if !strings.Contains(cands[0].Reasoning, "Content-based:") ||
		!strings.Contains(cands[0].Reasoning, "Collaborative:") {
		t.Errorf("merged reasoning = %q, want both halves", cands[0].Reasoning)
	}
}

func TestHybridFallsBackToTrendingWhenBothEmpty(t *testing.T) {
	trending := &fixedScorer{name: "trending", cands: []*core.Candidate{cand("hot", 2.0, "trending")}}
	h := newHybrid(&fixedScorer{name: "content_based"}, &fixedScorer{name: "collaborative"}, trending)

	cands, err := h.Score(context.Background(), personCtx("u1", nil), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 1 || cands[0].ContentID() != "hot" {
		t.Fatalf("expected trending fallback, got %+v", cands)
	}
}

func TestHybridSingleSideKeepsFullWeight(t *testing.T) {
	content := &fixedScorer{name: "content_based", cands: []*core.Candidate{cand("c1", 0.8, "match")}}
	h := newHybrid(content, &fixedScorer{name: "collaborative"}, &fixedScorer{name: "trending"})

	cands, err := h.Score(context.Background(), personCtx("u1", nil), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// 只有一路有结果时不打折
	if len(cands) != 1 || math.Abs(cands[0].Score-0.8) > 1e-9 {
		t.Fatalf("expected content result at full weight, got %+v", cands)
	}
}
