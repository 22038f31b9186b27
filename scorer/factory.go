package scorer

import (
	"math/rand"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
)

// DefaultRegistry 返回注册了全部内置算法的 Registry。
// rng 可为 nil（热门兜底的洗牌退化为全局随机源）。
func DefaultRegistry(
	catalog core.CatalogStore,
	ratings core.RatingStore,
	watchlist core.WatchlistStore,
	members MemberProfileSource,
	cfg *config.Config,
	rng *rand.Rand,
) *Registry {
	content := &ContentBased{
		Catalog:      catalog,
		Cfg:          cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		Rand:         rng,
	}
	collab := &Collaborative{
		Ratings:     ratings,
		Catalog:     catalog,
		Cfg:         cfg.Collaborative,
		RatingScale: cfg.RatingScale,
	}
	trending := &Trending{
		Ratings:     ratings,
		Watchlist:   watchlist,
		Catalog:     catalog,
		Cfg:         cfg.Trending,
		RatingScale: cfg.RatingScale,
	}

	r := NewRegistry()
	r.Register(content)
	r.Register(collab)
	r.Register(trending)
	r.Register(&Popularity{
		Catalog:      catalog,
		Cfg:          cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		Rand:         rng,
	})
	r.Register(&GroupConsensus{
		Members:      members,
		Catalog:      catalog,
		Cfg:          cfg.Consensus,
		ContentCfg:   cfg.ContentBased,
		QualityScale: cfg.QualityScale,
		ScoreScale:   cfg.RatingScale,
	})
	r.Register(&Hybrid{
		Content:       content,
		Collaborative: collab,
		Trending:      trending,
		Cfg:           cfg.Hybrid,
	})
	return r
}
