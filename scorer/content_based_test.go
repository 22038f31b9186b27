package scorer_test

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/scorer"
	"github.com/reelkit/reelkit/store"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newContentBased(ms *store.MemoryStore) *scorer.ContentBased {
	cfg := config.Default()
	return &scorer.ContentBased{
		Catalog:      ms,
		Cfg:          cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		Rand:         rand.New(rand.NewSource(1)),
	}
}

func personCtx(personID string, p *core.PersonProfile) *core.RecommendContext {
	return &core.RecommendContext{
		Subject: core.PersonSubject(personID),
		Profile: p,
		Now:     testNow,
	}
}

func TestContentBasedScoreFormula(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(&core.ContentItem{
		ID: "c1", Title: "The Letter", Type: "movie",
		Genres: []string{"Drama"}, Rating: 8,
	})

	p := core.NewPersonProfile("u1")
	p.Genres = map[string]float64{"Drama": 0.8}
	p.Types = map[string]float64{"movie": 0.5}
	p.UpdatedAt = testNow

	cands, err := newContentBased(ms).Score(context.Background(), personCtx("u1", p), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	// 0.6*0.8 + 0.3*0.5 + 0.1*(8/10) = 0.71
	if math.Abs(cands[0].Score-0.71) > 1e-9 {
		t.Errorf("score = %v, want 0.71", cands[0].Score)
	}
}

func TestContentBasedPicksBestGenre(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(&core.ContentItem{
		ID: "c1", Type: "movie", Genres: []string{"Drama", "Comedy"}, Rating: 0,
	})

	p := core.NewPersonProfile("u1")
	p.Genres = map[string]float64{"Drama": 0.2, "Comedy": 0.9}
	p.UpdatedAt = testNow

	cands, err := newContentBased(ms).Score(context.Background(), personCtx("u1", p), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// 只取最匹配的那一个 genre：0.6*0.9
	if math.Abs(cands[0].Score-0.54) > 1e-9 {
		t.Errorf("score = %v, want 0.54", cands[0].Score)
	}
}

func TestContentBasedRanksDescending(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(
		&core.ContentItem{ID: "low", Type: "movie", Genres: []string{"Horror"}, Rating: 5},
		&core.ContentItem{ID: "high", Type: "movie", Genres: []string{"Drama"}, Rating: 9},
		&core.ContentItem{ID: "mid", Type: "show", Genres: []string{"Drama"}, Rating: 6},
	)

	p := core.NewPersonProfile("u1")
	p.Genres = map[string]float64{"Drama": 1.0}
	p.Types = map[string]float64{"movie": 1.0}
	p.UpdatedAt = testNow

	cands, err := newContentBased(ms).Score(context.Background(), personCtx("u1", p), 2)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 (limit)", len(cands))
	}
	if cands[0].ContentID() != "high" || cands[1].ContentID() != "mid" {
		t.Errorf("order = [%s %s], want [high mid]", cands[0].ContentID(), cands[1].ContentID())
	}
}

func TestContentBasedEmptyProfileFallsBackToPopularity(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(
		&core.ContentItem{ID: "good", Type: "movie", Rating: 8.5},
		&core.ContentItem{ID: "bad", Type: "movie", Rating: 4.0},
	)

	p := core.NewPersonProfile("u1")
	p.UpdatedAt = testNow

	cands, err := newContentBased(ms).Score(context.Background(), personCtx("u1", p), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1 (only high-rated content)", len(cands))
	}
	if cands[0].ContentID() != "good" {
		t.Errorf("fallback picked %s, want good", cands[0].ContentID())
	}
	if cands[0].Labels["algorithm"].Value != scorer.AlgorithmPopularity {
		t.Errorf("algorithm label = %q, want popularity", cands[0].Labels["algorithm"].Value)
	}
}

func TestPopularityShufflesWithinTieBand(t *testing.T) {
	ms := store.NewMemoryStore()
	// 同档的四条加一条明显更高的：最高者必须保持第一
	ms.PutContent(
		&core.ContentItem{ID: "top", Type: "movie", Rating: 9.9},
		&core.ContentItem{ID: "a", Type: "movie", Rating: 8.0},
		&core.ContentItem{ID: "b", Type: "movie", Rating: 8.1},
		&core.ContentItem{ID: "c", Type: "movie", Rating: 8.2},
		&core.ContentItem{ID: "d", Type: "movie", Rating: 8.3},
	)
	cfg := config.Default()
	pop := &scorer.Popularity{
		Catalog:      ms,
		Cfg:          cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		Rand:         rand.New(rand.NewSource(7)),
	}
	rctx := &core.RecommendContext{Subject: core.PersonSubject("u1"), Now: testNow}
	cands, err := pop.Score(context.Background(), rctx, 5)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 5 {
		t.Fatalf("got %d candidates, want 5", len(cands))
	}
	if cands[0].ContentID() != "top" {
		t.Errorf("highest-rated item displaced by shuffle: first = %s", cands[0].ContentID())
	}
}
