package scorer

import (
	"context"
	"fmt"
	"time"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/conv"
	"github.com/reelkit/reelkit/pkg/utils"
)

// Trending 奖励近期互动速度而非历史总量：
//
//	score = 窗口内评分数 × 窗口内均分 / 评分满分 + watchlist_weight × 窗口内加待看次数
//
// 只统计最近 WindowDays 天的信号，窗口外的热度自然衰减。
type Trending struct {
	Ratings     core.RatingStore
	Watchlist   core.WatchlistStore
	Catalog     core.CatalogStore
	Cfg         config.TrendingConfig
	RatingScale float64
}

func (s *Trending) Name() string { return AlgorithmTrending }

func (s *Trending) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	// 请求可临时收窄或放宽热度窗口，以及调整待看信号的配比
	days := int(conv.ConfigGetInt64(rctx.Params, "trending_window_days", int64(s.Cfg.WindowDays)))
	watchlistWeight := conv.ConfigGetFloat64(rctx.Params, "trending_watchlist_weight", s.Cfg.WatchlistWeight)
	since := rctx.Now.Add(-time24h(days))
	stats, err := s.Ratings.RecentRatingStats(ctx, since)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load rating stats: "+err.Error())
	}
	adds, err := s.Watchlist.RecentAddCounts(ctx, since)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load watchlist adds: "+err.Error())
	}

	contentIDs := make(map[string]struct{}, len(stats)+len(adds))
	for id := range stats {
		contentIDs[id] = struct{}{}
	}
	for id := range adds {
		contentIDs[id] = struct{}{}
	}

	var cands []*core.Candidate
	for contentID := range contentIDs {
		item, err := s.Catalog.GetContent(ctx, contentID)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load content: "+err.Error())
		}
		st := stats[contentID]
		ratingScore := float64(st.Count) * st.Avg() / s.RatingScale
		watchlistScore := float64(adds[contentID]) * watchlistWeight
		score := ratingScore + watchlistScore
		if score <= 0 {
			continue
		}
		cand := core.NewCandidate(item, score,
			fmt.Sprintf("Trending: %d recent ratings, %d watchlist adds", st.Count, adds[contentID]))
		cand.PutLabel("algorithm", utils.Label{Value: AlgorithmTrending, Source: "scorer"})
		cands = append(cands, cand)
	}
	return sortAndTrim(cands, limit), nil
}

func time24h(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
