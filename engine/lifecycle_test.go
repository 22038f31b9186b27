package engine_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/engine"
	"github.com/reelkit/reelkit/scorer"
	"github.com/reelkit/reelkit/store"
)

// generateOne 准备一个有画像的用户并生成 limit 条推荐。
func generateOne(t *testing.T, ms *store.MemoryStore, eng *engine.Engine, limit int) []*core.Recommendation {
	t.Helper()
	recs, err := eng.Generate(context.Background(), engine.GenerateRequest{
		Subject:   core.PersonSubject("u1"),
		Algorithm: scorer.AlgorithmContentBased,
		Limit:     limit,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(recs) != limit {
		t.Fatalf("got %d recommendations, want %d", len(recs), limit)
	}
	return recs
}

func TestMarkViewedAndDismiss(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	rec := generateOne(t, ms, eng, 1)[0]

	if err := eng.MarkViewed(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	got, err := ms.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ViewedAt == nil || !got.ViewedAt.Equal(testNow) {
		t.Fatalf("viewed_at = %v, want %v", got.ViewedAt, testNow)
	}

	// 幂等：重复标记不报错也不改时间
	if err := eng.MarkViewed(context.Background(), rec.ID); err != nil {
		t.Fatalf("second MarkViewed: %v", err)
	}

	if err := eng.Dismiss(context.Background(), rec.ID); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	got, _ = ms.Get(context.Background(), rec.ID)
	if got.Status != core.StatusDismissed {
		t.Fatalf("status = %s, want dismissed", got.Status)
	}
	active, err := eng.Active(context.Background(), core.PersonSubject("u1"))
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("dismissed recommendation still active")
	}

	if err := eng.MarkViewed(context.Background(), "missing"); !core.IsNotFound(err) {
		t.Errorf("MarkViewed(missing) err = %v, want NOT_FOUND", err)
	}
}

func TestRecordFeedbackUpsert(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	rec := generateOne(t, ms, eng, 1)[0]

	ctx := context.Background()
	if err := eng.RecordFeedback(ctx, rec.ID, "u9", core.FeedbackLike, "great pick"); err != nil {
		t.Fatalf("RecordFeedback like: %v", err)
	}
	// 同一 (recommendation, person) 再次反馈是覆盖，不产生第二行
	if err := eng.RecordFeedback(ctx, rec.ID, "u9", core.FeedbackDislike, ""); err != nil {
		t.Fatalf("RecordFeedback dislike: %v", err)
	}

	sum, err := eng.FeedbackSummary(ctx, rec.ID)
	if err != nil {
		t.Fatalf("FeedbackSummary: %v", err)
	}
	if sum.Likes != 0 || sum.Dislikes != 1 || sum.Total != 1 {
		t.Fatalf("summary = %+v, want 0 likes / 1 dislike / total 1", sum)
	}

	if err := eng.RecordFeedback(ctx, rec.ID, "u8", core.FeedbackLike, ""); err != nil {
		t.Fatalf("RecordFeedback second person: %v", err)
	}
	sum, _ = eng.FeedbackSummary(ctx, rec.ID)
	if sum.Likes != 1 || sum.Total != 2 || math.Abs(sum.LikeRatio-0.5) > 1e-9 {
		t.Fatalf("summary = %+v, want 1 like of 2", sum)
	}
}

func TestRecordFeedbackClicked(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	rec := generateOne(t, ms, eng, 1)[0]

	ctx := context.Background()
	if err := eng.RecordFeedback(ctx, rec.ID, "u9", core.FeedbackClicked, ""); err != nil {
		t.Fatalf("RecordFeedback clicked: %v", err)
	}
	got, err := ms.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ClickedAt == nil || got.ViewedAt == nil {
		t.Fatal("clicked_at / viewed_at not set after click feedback")
	}
	first := *got.ClickedAt

	// 二次点击不覆盖首次时间
	if err := eng.RecordFeedback(ctx, rec.ID, "u9", core.FeedbackClicked, ""); err != nil {
		t.Fatalf("second click: %v", err)
	}
	got, _ = ms.Get(ctx, rec.ID)
	if !got.ClickedAt.Equal(first) {
		t.Errorf("clicked_at changed on second click: %v -> %v", first, got.ClickedAt)
	}
}

func TestRecordFeedbackValidation(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	rec := generateOne(t, ms, eng, 1)[0]
	ctx := context.Background()

	if err := eng.RecordFeedback(ctx, rec.ID, "u9", "meh", ""); !core.IsInvalidInput(err) {
		t.Errorf("invalid type err = %v, want INVALID_INPUT", err)
	}
	if err := eng.RecordFeedback(ctx, rec.ID, "", core.FeedbackLike, ""); !core.IsInvalidInput(err) {
		t.Errorf("empty person err = %v, want INVALID_INPUT", err)
	}
	if err := eng.RecordFeedback(ctx, "missing", "u9", core.FeedbackLike, ""); !core.IsNotFound(err) {
		t.Errorf("missing recommendation err = %v, want NOT_FOUND", err)
	}
}

func TestUpdateHistoryMetrics(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	recs := generateOne(t, ms, eng, 2)

	ctx := context.Background()
	if err := eng.MarkViewed(ctx, recs[0].ID); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if err := eng.RecordFeedback(ctx, recs[0].ID, "u9", core.FeedbackLike, ""); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	// 刚生成的批次还在刷新间隔内，不回填
	n, err := eng.UpdateHistoryMetrics(ctx)
	if err != nil {
		t.Fatalf("UpdateHistoryMetrics: %v", err)
	}
	if n != 0 {
		t.Fatalf("updated %d within refresh interval, want 0", n)
	}

	later := newTestEngine(t, ms, testNow.Add(2*time.Hour), nil)
	n, err = later.UpdateHistoryMetrics(ctx)
	if err != nil {
		t.Fatalf("UpdateHistoryMetrics: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated %d histories, want 1", n)
	}

	// 已盖回填时间戳，再跑一轮不重复统计
	n, err = later.UpdateHistoryMetrics(ctx)
	if err != nil {
		t.Fatalf("second UpdateHistoryMetrics: %v", err)
	}
	if n != 0 {
		t.Fatalf("re-updated %d histories, want 0", n)
	}
}

func TestExpireAndCleanup(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDramaCatalog(ms, 3)
	rate(ms, "u1", "c1", 5)
	eng := newTestEngine(t, ms, testNow, nil)
	generateOne(t, ms, eng, 2)

	ctx := context.Background()
	later := newTestEngine(t, ms, testNow.Add(100*24*time.Hour), nil)
	expired, err := later.ExpireAndArchive(ctx)
	if err != nil {
		t.Fatalf("ExpireAndArchive: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expired %d, want 2", expired)
	}

	recsDeleted, histDeleted, err := later.CleanupStale(ctx, 0)
	if err != nil {
		t.Fatalf("CleanupStale: %v", err)
	}
	if recsDeleted != 2 {
		t.Errorf("deleted %d recommendations, want 2", recsDeleted)
	}
	if histDeleted != 1 {
		t.Errorf("deleted %d histories, want 1", histDeleted)
	}

	// 物理清理之后内容重新可推荐
	again, err := later.Generate(ctx, engine.GenerateRequest{
		Subject:   core.PersonSubject("u1"),
		Algorithm: scorer.AlgorithmContentBased,
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("Generate after cleanup: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("got %d recommendations after cleanup, want 2", len(again))
	}
}
