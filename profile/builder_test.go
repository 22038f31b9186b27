package profile_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/profile"
	"github.com/reelkit/reelkit/store"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newBuilder(ms *store.MemoryStore, now time.Time) *profile.Builder {
	return &profile.Builder{
		Catalog:   ms,
		Ratings:   ms,
		Watchlist: ms,
		Groups:    ms,
		Profiles:  ms,
		Config:    config.Default(),
		Now:       func() time.Time { return now },
	}
}

func seedComedy(ms *store.MemoryStore) {
	ms.PutContent(
		&core.ContentItem{ID: "c1", Title: "Laughs", Type: "movie", Genres: []string{"Comedy"}, Rating: 7},
		&core.ContentItem{ID: "c2", Title: "More Laughs", Type: "movie", Genres: []string{"Comedy"}, Rating: 8},
		&core.ContentItem{ID: "c3", Title: "Chase", Type: "series", Genres: []string{"Action"}, Rating: 8},
	)
}

func rateAt(ms *store.MemoryStore, personID, contentID string, value float64) {
	ms.PutRating(&core.RatingEvent{
		PersonID:  personID,
		ContentID: contentID,
		Value:     value,
		CreatedAt: testNow.Add(-48 * time.Hour),
	})
}

func TestBuildPersonFromRatings(t *testing.T) {
	ms := store.NewMemoryStore()
	seedComedy(ms)
	rateAt(ms, "u1", "c1", 5)
	rateAt(ms, "u1", "c2", 3)

	p, err := newBuilder(ms, testNow).BuildPerson(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BuildPerson: %v", err)
	}
	// (5/5 + 3/5) / 2 = 0.8
	if math.Abs(p.Genres["Comedy"]-0.8) > 1e-9 {
		t.Errorf("Comedy weight = %v, want 0.8", p.Genres["Comedy"])
	}
	if math.Abs(p.Types["movie"]-0.8) > 1e-9 {
		t.Errorf("movie weight = %v, want 0.8", p.Types["movie"])
	}
	// 0.7*2 / 20 = 0.07
	if math.Abs(p.ConfidenceScore-0.07) > 1e-9 {
		t.Errorf("confidence = %v, want 0.07", p.ConfidenceScore)
	}
	if p.RatingCount != 2 || p.WatchlistCount != 0 {
		t.Errorf("counts = %d/%d, want 2/0", p.RatingCount, p.WatchlistCount)
	}
}

func TestBuildPersonMergesWatchlist(t *testing.T) {
	ms := store.NewMemoryStore()
	seedComedy(ms)
	rateAt(ms, "u1", "c1", 5)
	ms.PutWatchlist(&core.WatchlistEntry{
		Subject: core.PersonSubject("u1"), ContentID: "c2", Status: "planned", AddedAt: testNow,
	})
	ms.PutWatchlist(&core.WatchlistEntry{
		Subject: core.PersonSubject("u1"), ContentID: "c3", Status: "planned", AddedAt: testNow,
	})

	p, err := newBuilder(ms, testNow).BuildPerson(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BuildPerson: %v", err)
	}
	// 已有评分权重 1.0 与待看权重 0.6 取均值
	if math.Abs(p.Genres["Comedy"]-0.8) > 1e-9 {
		t.Errorf("Comedy weight = %v, want 0.8", p.Genres["Comedy"])
	}
	// 仅出现在待看清单的题材直接取待看权重
	if math.Abs(p.Genres["Action"]-0.6) > 1e-9 {
		t.Errorf("Action weight = %v, want 0.6", p.Genres["Action"])
	}
	// (0.7*1 + 0.3*2) / 20 = 0.065
	if math.Abs(p.ConfidenceScore-0.065) > 1e-9 {
		t.Errorf("confidence = %v, want 0.065", p.ConfidenceScore)
	}
}

func TestBuildPersonSaturatedGenreWeight(t *testing.T) {
	ms := store.NewMemoryStore()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("m%d", i)
		ms.PutContent(&core.ContentItem{ID: id, Title: id, Type: "movie", Genres: []string{"Comedy"}, Rating: 7})
		rateAt(ms, "u1", id, 5)
	}

	p, err := newBuilder(ms, testNow).BuildPerson(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BuildPerson: %v", err)
	}
	if math.Abs(p.Genres["Comedy"]-1.0) > 1e-9 {
		t.Errorf("Comedy weight = %v, want 1.0", p.Genres["Comedy"])
	}
	// 0.7*10 / 20 = 0.35
	if math.Abs(p.ConfidenceScore-0.35) > 1e-9 {
		t.Errorf("confidence = %v, want 0.35", p.ConfidenceScore)
	}
}

func TestBuildPersonSkipsMissingContent(t *testing.T) {
	ms := store.NewMemoryStore()
	rateAt(ms, "u1", "gone", 5)

	p, err := newBuilder(ms, testNow).BuildPerson(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BuildPerson: %v", err)
	}
	if len(p.Genres) != 0 {
		t.Errorf("genres = %v, want empty when content is gone", p.Genres)
	}
}

func TestGetOrBuildPersonCachesUntilStale(t *testing.T) {
	ms := store.NewMemoryStore()
	seedComedy(ms)
	rateAt(ms, "u1", "c1", 5)

	ctx := context.Background()
	b := newBuilder(ms, testNow)
	first, err := b.GetOrBuildPerson(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrBuildPerson: %v", err)
	}

	// 有效期内读缓存，新评分不生效
	rateAt(ms, "u1", "c3", 5)
	cached, err := b.GetOrBuildPerson(ctx, "u1")
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if _, ok := cached.Genres["Action"]; ok {
		t.Error("profile rebuilt within max age")
	}
	if !cached.UpdatedAt.Equal(first.UpdatedAt) {
		t.Errorf("updated_at changed: %v -> %v", first.UpdatedAt, cached.UpdatedAt)
	}

	// 超过有效期（默认 7 天）后重建
	later := newBuilder(ms, testNow.Add(8*24*time.Hour))
	rebuilt, err := later.GetOrBuildPerson(ctx, "u1")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, ok := rebuilt.Genres["Action"]; !ok {
		t.Error("stale profile not rebuilt")
	}
}

func TestBuildGroupAveragesMembers(t *testing.T) {
	ms := store.NewMemoryStore()
	seedComedy(ms)
	rateAt(ms, "u1", "c1", 5)
	rateAt(ms, "u2", "c2", 3)
	ms.PutGroup("g1", "u1", "u2")

	gp, err := newBuilder(ms, testNow).BuildGroup(context.Background(), "g1")
	if err != nil {
		t.Fatalf("BuildGroup: %v", err)
	}
	// (1.0 + 0.6) / 2 = 0.8
	if math.Abs(gp.Genres["Comedy"]-0.8) > 1e-9 {
		t.Errorf("Comedy weight = %v, want 0.8", gp.Genres["Comedy"])
	}
	if gp.MemberCount != 2 {
		t.Errorf("member count = %d, want 2", gp.MemberCount)
	}
	// 2 / 10 = 0.2
	if math.Abs(gp.ConfidenceScore-0.2) > 1e-9 {
		t.Errorf("confidence = %v, want 0.2", gp.ConfidenceScore)
	}
}

func TestBuildGroupNotFound(t *testing.T) {
	_, err := newBuilder(store.NewMemoryStore(), testNow).BuildGroup(context.Background(), "nope")
	if !core.IsNotFound(err) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

type staticSeeds struct {
	genres map[string]float64
	err    error
}

func (s *staticSeeds) GenreSeeds(ctx context.Context, personID string) (map[string]float64, error) {
	return s.genres, s.err
}

func TestBuildPersonColdStartSeeds(t *testing.T) {
	ms := store.NewMemoryStore()
	b := newBuilder(ms, testNow)
	b.Seeds = &staticSeeds{genres: map[string]float64{"Comedy": 0.7}}

	p, err := b.BuildPerson(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("BuildPerson: %v", err)
	}
	if math.Abs(p.Genres["Comedy"]-0.7) > 1e-9 {
		t.Errorf("seeded Comedy = %v, want 0.7", p.Genres["Comedy"])
	}

	// 种子来源失败只降级为空画像，不报错
	b.Seeds = &staticSeeds{err: errors.New("feature store down")}
	p, err = b.BuildPerson(context.Background(), "another-user")
	if err != nil {
		t.Fatalf("BuildPerson with failing seeds: %v", err)
	}
	if len(p.Genres) != 0 {
		t.Errorf("genres = %v, want empty on seed failure", p.Genres)
	}
}
