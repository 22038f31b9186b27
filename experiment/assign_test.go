package experiment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/store"
)

func splitAB(a, b int) []core.VariantSplit {
	return []core.VariantSplit{
		{Variant: "A", Percent: a, Algorithm: "content_based"},
		{Variant: "B", Percent: b, Algorithm: "hybrid"},
	}
}

func TestBucketRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		b := Bucket("exp-1", fmt.Sprintf("person:%d", i))
		if b < 0 || b > 99 {
			t.Fatalf("Bucket out of range: %d", b)
		}
	}
}

func TestAssignVariantIsStable(t *testing.T) {
	e := &core.Experiment{ID: "exp-1", Split: splitAB(50, 50)}
	first := AssignVariant(e, "person:42")
	for i := 0; i < 100; i++ {
		if got := AssignVariant(e, "person:42"); got != first {
			t.Fatalf("assignment changed between calls: %s -> %s", first, got)
		}
	}
}

func TestAssignVariantCoversAllBuckets(t *testing.T) {
	// 配比和为 100 时每个桶都必须有归属，且比例大致符合配比
	e := &core.Experiment{ID: "exp-cov", Split: splitAB(30, 70)}
	counts := map[string]int{}
	total := 10000
	for i := 0; i < total; i++ {
		v := AssignVariant(e, fmt.Sprintf("person:%d", i))
		if v != "A" && v != "B" {
			t.Fatalf("unexpected variant %q", v)
		}
		counts[v]++
	}
	ratioA := float64(counts["A"]) / float64(total)
	if ratioA < 0.25 || ratioA > 0.35 {
		t.Errorf("variant A ratio = %.3f, want ~0.30", ratioA)
	}
}

func TestAssignVariantCumulativeWalk(t *testing.T) {
	// 人工遍历桶号验证累积游走：桶 < 30 归 A，其余归 B
	e := &core.Experiment{ID: "exp-walk", Split: splitAB(30, 70)}
	for i := 0; i < 500; i++ {
		subject := fmt.Sprintf("person:%d", i)
		bucket := Bucket(e.ID, subject)
		want := "B"
		if bucket < 30 {
			want = "A"
		}
		if got := AssignVariant(e, subject); got != want {
			t.Fatalf("subject %s bucket %d: got %s, want %s", subject, bucket, got, want)
		}
	}
}

func TestAssignVariantMalformedSplit(t *testing.T) {
	// 配比和不足 100：落在空档的桶回落到第一个变体
	e := &core.Experiment{ID: "exp-short", Split: splitAB(10, 10)}
	for i := 0; i < 500; i++ {
		v := AssignVariant(e, fmt.Sprintf("person:%d", i))
		if v != "A" && v != "B" {
			t.Fatalf("unexpected variant %q", v)
		}
	}

	empty := &core.Experiment{ID: "exp-empty"}
	if v := AssignVariant(empty, "person:1"); v != "" {
		t.Errorf("empty split should assign nothing, got %q", v)
	}
}

func TestResolve(t *testing.T) {
	ms := store.NewMemoryStore()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := &Assigner{Experiments: ms}

	running := &core.Experiment{
		ID:     "exp-run",
		Split:  splitAB(100, 0),
		Status: core.ExperimentRunning,
	}
	if err := ms.SaveExperiment(context.Background(), running); err != nil {
		t.Fatal(err)
	}

	variant, algo, err := a.Resolve(context.Background(), "exp-run", "person:1", now)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if variant != "A" || algo != "content_based" {
		t.Errorf("got (%s, %s), want (A, content_based)", variant, algo)
	}

	// 未运行的实验不改写算法
	draft := &core.Experiment{ID: "exp-draft", Split: splitAB(100, 0), Status: core.ExperimentDraft}
	if err := ms.SaveExperiment(context.Background(), draft); err != nil {
		t.Fatal(err)
	}
	variant, algo, err = a.Resolve(context.Background(), "exp-draft", "person:1", now)
	if err != nil || variant != "" || algo != "" {
		t.Errorf("draft experiment: got (%q, %q, %v), want empty", variant, algo, err)
	}

	// 不存在的实验静默跳过
	variant, algo, err = a.Resolve(context.Background(), "nope", "person:1", now)
	if err != nil || variant != "" || algo != "" {
		t.Errorf("missing experiment: got (%q, %q, %v), want empty", variant, algo, err)
	}
}

func TestAdvanceAll(t *testing.T) {
	ms := store.NewMemoryStore()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	a := &Assigner{Experiments: ms}

	startDue := &core.Experiment{ID: "due", Split: splitAB(50, 50), Status: core.ExperimentDraft, StartAt: &past}
	endDue := &core.Experiment{ID: "over", Split: splitAB(50, 50), Status: core.ExperimentRunning, EndAt: &past}
	idle := &core.Experiment{ID: "idle", Split: splitAB(50, 50), Status: core.ExperimentPaused}
	for _, e := range []*core.Experiment{startDue, endDue, idle} {
		if err := ms.SaveExperiment(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := a.AdvanceAll(context.Background(), now)
	if err != nil {
		t.Fatalf("AdvanceAll: %v", err)
	}
	if n != 2 {
		t.Errorf("advanced %d experiments, want 2", n)
	}
	got, _ := ms.GetExperiment(context.Background(), "due")
	if got.Status != core.ExperimentRunning {
		t.Errorf("due status = %s, want running", got.Status)
	}
	got, _ = ms.GetExperiment(context.Background(), "over")
	if got.Status != core.ExperimentCompleted {
		t.Errorf("over status = %s, want completed", got.Status)
	}
}
