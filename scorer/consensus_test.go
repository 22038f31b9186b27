package scorer_test

import (
	"context"
	"math"
	"testing"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/scorer"
	"github.com/reelkit/reelkit/store"
)

type staticMembers struct {
	profiles []*core.PersonProfile
}

func (s *staticMembers) MemberProfiles(ctx context.Context, groupID string) ([]*core.PersonProfile, error) {
	return s.profiles, nil
}

func newConsensus(ms *store.MemoryStore, members scorer.MemberProfileSource) *scorer.GroupConsensus {
	cfg := config.Default()
	return &scorer.GroupConsensus{
		Members:      members,
		Catalog:      ms,
		Cfg:          cfg.Consensus,
		ContentCfg:   cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		ScoreScale:   cfg.RatingScale,
	}
}

func memberProfile(id string, genres map[string]float64) *core.PersonProfile {
	p := core.NewPersonProfile(id)
	p.Genres = genres
	p.UpdatedAt = testNow
	return p
}

func groupCtx(groupID string) *core.RecommendContext {
	return &core.RecommendContext{Subject: core.GroupSubject(groupID), Now: testNow}
}

func TestConsensusPenalizesDisagreement(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(
		&core.ContentItem{ID: "agree", Type: "movie", Genres: []string{"Drama"}},
		&core.ContentItem{ID: "split", Type: "movie", Genres: []string{"Horror"}},
	)
	members := &staticMembers{profiles: []*core.PersonProfile{
		memberProfile("a", map[string]float64{"Drama": 0.8, "Horror": 1.0}),
		memberProfile("b", map[string]float64{"Drama": 0.8, "Horror": 0.1}),
	}}

	cands, err := newConsensus(ms, members).Score(context.Background(), groupCtx("g1"), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].ContentID() != "agree" {
		t.Errorf("first = %s, want agree (uniform taste beats split taste)", cands[0].ContentID())
	}
	// agree: 两人都是 0.6*0.8=0.48 → 0.48*(1-0)*0.48
	want := 0.48 * 0.48
	if math.Abs(cands[0].Score-want) > 1e-9 {
		t.Errorf("agree score = %v, want %v", cands[0].Score, want)
	}
}

func TestConsensusFloorClampsThinProfiles(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(&core.ContentItem{ID: "c1", Type: "movie", Genres: []string{"Drama"}})
	// 第二位成员画像为空：原始公式会把候选直接归零，钳底后只压低排序
	members := &staticMembers{profiles: []*core.PersonProfile{
		memberProfile("a", map[string]float64{"Drama": 1.0}),
		memberProfile("b", nil),
	}}

	cands, err := newConsensus(ms, members).Score(context.Background(), groupCtx("g1"), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1 (floor keeps candidate alive)", len(cands))
	}
	if cands[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", cands[0].Score)
	}
}

func TestConsensusRequiresGroupSubject(t *testing.T) {
	ms := store.NewMemoryStore()
	members := &staticMembers{}
	_, err := newConsensus(ms, members).Score(context.Background(), personCtx("u1", nil), 10)
	if !core.IsNotSupported(err) {
		t.Errorf("err = %v, want NOT_SUPPORTED", err)
	}
}

func TestConsensusEmptyGroup(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutContent(&core.ContentItem{ID: "c1", Genres: []string{"Drama"}})
	cands, err := newConsensus(ms, &staticMembers{}).Score(context.Background(), groupCtx("g1"), 10)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want 0 for empty group", len(cands))
	}
}
