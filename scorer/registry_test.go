package scorer_test

import (
	"testing"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/scorer"
	"github.com/reelkit/reelkit/store"
)

func TestDefaultRegistryHasAllAlgorithms(t *testing.T) {
	ms := store.NewMemoryStore()
	r := scorer.DefaultRegistry(ms, ms, ms, &staticMembers{}, config.Default(), nil)

	for _, name := range []string{
		scorer.AlgorithmContentBased,
		scorer.AlgorithmCollaborative,
		scorer.AlgorithmTrending,
		scorer.AlgorithmConsensus,
		scorer.AlgorithmHybrid,
		scorer.AlgorithmPopularity,
	} {
		s, err := r.Get(name)
		if err != nil {
			t.Errorf("Get(%s): %v", name, err)
			continue
		}
		if s.Name() != name {
			t.Errorf("Get(%s).Name() = %s", name, s.Name())
		}
	}
}

func TestRegistryUnknownAlgorithm(t *testing.T) {
	r := scorer.NewRegistry()
	_, err := r.Get("pagerank")
	if !core.IsNotSupported(err) {
		t.Errorf("err = %v, want NOT_SUPPORTED", err)
	}
}
