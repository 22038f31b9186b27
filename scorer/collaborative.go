package scorer

import (
	"context"
	"fmt"
	"sort"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// Collaborative 基于"口味相近的人"做协同过滤。
//
// 流程：
//  1. 找出与目标共享至少 MinSharedItems 条评分的其他人
//  2. 在共享条目的评分向量上算余弦相似度，保留 > MinSimilarity 的邻居
//  3. 取前 MaxNeighbors 个邻居的高分未看内容，按 相似度×归一化评分 加权
//  4. 同一内容的多个邻居贡献取均值
//
// 小组目标没有自己的评分向量，直接产出空结果，由引擎的兜底链接管。
type Collaborative struct {
	Ratings     core.RatingStore
	Catalog     core.CatalogStore
	Cfg         config.CollaborativeConfig
	RatingScale float64
}

func (s *Collaborative) Name() string { return AlgorithmCollaborative }

func (s *Collaborative) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	if rctx.Subject.IsGroup() {
		return nil, nil
	}
	personID := rctx.Subject.PersonID

	own, err := s.Ratings.RatingsByPerson(ctx, personID)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load ratings: "+err.Error())
	}
	if len(own) == 0 {
		return nil, nil
	}
	ownMap := make(map[string]float64, len(own))
	ownContents := make([]string, 0, len(own))
	for _, r := range own {
		ownMap[r.ContentID] = r.Value
		ownContents = append(ownContents, r.ContentID)
	}

	neighbors, err := s.findNeighbors(ctx, personID, ownMap, ownContents)
	if err != nil {
		return nil, err
	}
	if len(neighbors) > s.Cfg.MaxNeighbors {
		neighbors = neighbors[:s.Cfg.MaxNeighbors]
	}

	// 邻居的高分未看内容，按 相似度×归一化评分 累积
	highBar := s.Cfg.HighRatingRatio * s.RatingScale
	contributions := make(map[string][]float64)
	for _, nb := range neighbors {
		ratings, err := s.Ratings.RatingsByPerson(ctx, nb.personID)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load neighbor ratings: "+err.Error())
		}
		for _, r := range ratings {
			if r.Value < highBar {
				continue
			}
			if _, seen := ownMap[r.ContentID]; seen {
				continue
			}
			contributions[r.ContentID] = append(contributions[r.ContentID], nb.similarity*(r.Value/s.RatingScale))
		}
	}

	var cands []*core.Candidate
	for contentID, scores := range contributions {
		item, err := s.Catalog.GetContent(ctx, contentID)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load content: "+err.Error())
		}
		sum := 0.0
		for _, v := range scores {
			sum += v
		}
		cand := core.NewCandidate(item, sum/float64(len(scores)),
			fmt.Sprintf("Recommended based on %d similar users", len(scores)))
		cand.PutLabel("algorithm", utils.Label{Value: AlgorithmCollaborative, Source: "scorer"})
		cands = append(cands, cand)
	}
	return sortAndTrim(cands, limit), nil
}

type neighbor struct {
	personID   string
	similarity float64
}

// findNeighbors 返回按相似度降序的邻居列表。
func (s *Collaborative) findNeighbors(ctx context.Context, personID string, ownMap map[string]float64, ownContents []string) ([]neighbor, error) {
	others, err := s.Ratings.RatingsForContents(ctx, ownContents)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "load shared ratings: "+err.Error())
	}
	byPerson := make(map[string]map[string]float64)
	for _, r := range others {
		if r.PersonID == personID {
			continue
		}
		m, ok := byPerson[r.PersonID]
		if !ok {
			m = make(map[string]float64)
			byPerson[r.PersonID] = m
		}
		m[r.ContentID] = r.Value
	}

	var neighbors []neighbor
	for otherID, theirMap := range byPerson {
		var shared []string
		for contentID := range theirMap {
			if _, ok := ownMap[contentID]; ok {
				shared = append(shared, contentID)
			}
		}
		if len(shared) < s.Cfg.MinSharedItems {
			continue
		}
		sort.Strings(shared)
		vecA := make([]float64, len(shared))
		vecB := make([]float64, len(shared))
		for i, contentID := range shared {
			vecA[i] = ownMap[contentID]
			vecB[i] = theirMap[contentID]
		}
		if sim := CosineSimilarity(vecA, vecB); sim > s.Cfg.MinSimilarity {
			neighbors = append(neighbors, neighbor{personID: otherID, similarity: sim})
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].personID < neighbors[j].personID
	})
	return neighbors, nil
}
