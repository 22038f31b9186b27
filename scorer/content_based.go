package scorer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// ContentBased 按画像的类型偏好给全量候选打分。
//
// 打分公式（权重可配）：
//
//	score = genre_weight·max(候选各 genre 的偏好) + type_weight·类型偏好 + rating_weight·(质量分/满分)
//
// 画像完全没有偏好数据时退化为热门兜底（按质量分排序，同档洗牌）。
type ContentBased struct {
	Catalog      core.CatalogStore
	Cfg          config.ContentBasedConfig
	QualityScale float64

	// Rand 兜底洗牌的随机源，可注入以便测试；nil 时每次新建
	Rand *rand.Rand
}

func (s *ContentBased) Name() string { return AlgorithmContentBased }

func (s *ContentBased) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	if core.IsEmptyProfile(rctx.Profile) {
		return popularityFallback(ctx, s.Catalog, s.Cfg, s.QualityScale, s.Rand, limit)
	}
	genres := rctx.Profile.GenrePreferences()
	types := rctx.Profile.TypePreferences()

	items, err := s.Catalog.ListContent(ctx)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "list content: "+err.Error())
	}
	var cands []*core.Candidate
	for _, item := range items {
		score := scoreContent(item, genres, types, s.Cfg, s.QualityScale)
		if score <= 0 {
			continue
		}
		cand := core.NewCandidate(item, score, contentReasoning(item, genres, types, s.QualityScale))
		cand.PutLabel("algorithm", utils.Label{Value: AlgorithmContentBased, Source: "scorer"})
		cands = append(cands, cand)
	}
	return sortAndTrim(cands, limit), nil
}

// scoreContent 是内容打分的核心公式，共识打分器按成员复用。
func scoreContent(c *core.ContentItem, genres, types map[string]float64, cfg config.ContentBasedConfig, qualityScale float64) float64 {
	score := 0.0
	best := 0.0
	for _, g := range c.Genres {
		if w, ok := genres[g]; ok && w > best {
			best = w
		}
	}
	score += best * cfg.GenreWeight
	if w, ok := types[c.Type]; ok {
		score += w * cfg.TypeWeight
	}
	if c.Rating > 0 && qualityScale > 0 {
		score += (c.Rating / qualityScale) * cfg.RatingWeight
	}
	return score
}

// contentReasoning 生成面向用户的推荐理由。
func contentReasoning(c *core.ContentItem, genres, types map[string]float64, qualityScale float64) string {
	var reasons []string
	var matched []string
	for _, g := range c.Genres {
		if w, ok := genres[g]; ok && w > 0.5 {
			matched = append(matched, g)
		}
	}
	if len(matched) > 0 {
		reasons = append(reasons, "matches your interest in "+strings.Join(matched, ", "))
	}
	if w, ok := types[c.Type]; ok && w > 0.5 {
		reasons = append(reasons, fmt.Sprintf("you enjoy %ss", c.Type))
	}
	if c.Rating >= 0.7*qualityScale {
		reasons = append(reasons, fmt.Sprintf("highly rated (%.1f/%.0f)", c.Rating, qualityScale))
	}
	if len(reasons) == 0 {
		return "Recommended for you"
	}
	return "Recommended because " + strings.Join(reasons, " and ")
}

// Popularity 是无画像数据时的兜底：按质量分取头部内容，
// 同档（分差在 FallbackTieBand 内）洗牌，避免榜单长期冻结。
type Popularity struct {
	Catalog      core.CatalogStore
	Cfg          config.ContentBasedConfig
	QualityScale float64
	Rand         *rand.Rand
}

func (s *Popularity) Name() string { return AlgorithmPopularity }

func (s *Popularity) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	return popularityFallback(ctx, s.Catalog, s.Cfg, s.QualityScale, s.Rand, limit)
}

func popularityFallback(ctx context.Context, catalog core.CatalogStore, cfg config.ContentBasedConfig, qualityScale float64, rng *rand.Rand, limit int) ([]*core.Candidate, error) {
	items, err := catalog.ListContent(ctx)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "list content: "+err.Error())
	}
	minRating := 0.7 * qualityScale
	var cands []*core.Candidate
	for _, item := range items {
		if item.Rating < minRating {
			continue
		}
		cand := core.NewCandidate(item, item.Rating,
			fmt.Sprintf("Popular choice: high rating (%.1f/%.0f)", item.Rating, qualityScale))
		cand.PutLabel("algorithm", utils.Label{Value: AlgorithmPopularity, Source: "scorer"})
		cands = append(cands, cand)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ContentID() < cands[j].ContentID()
	})
	if limit > 0 && len(cands) > 2*limit {
		cands = cands[:2*limit]
	}
	shuffleTies(cands, cfg.FallbackTieBand, rng)
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

// shuffleTies 在分差不超过 band 的相邻段内洗牌，段间顺序不变。
func shuffleTies(cands []*core.Candidate, band float64, rng *rand.Rand) {
	if len(cands) < 2 {
		return
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	start := 0
	for i := 1; i <= len(cands); i++ {
		if i < len(cands) && cands[start].Score-cands[i].Score <= band {
			continue
		}
		if i-start > 1 {
			seg := cands[start:i]
			shuffle(len(seg), func(a, b int) { seg[a], seg[b] = seg[b], seg[a] })
		}
		start = i
	}
}
