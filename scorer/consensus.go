package scorer

import (
	"context"
	"fmt"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// MemberProfileSource 提供小组全体成员的个人画像（profile.Builder 实现）。
type MemberProfileSource interface {
	MemberProfiles(ctx context.Context, groupID string) ([]*core.PersonProfile, error)
}

// GroupConsensus 找"全组都不反感且整体喜欢"的内容。
//
// 对每个候选，按每位成员的画像算内容分，然后：
//
//	consensus = mean(成员分) × (1 − (max−min)/满分) × min(成员分)
//
// 均值奖励整体喜好，分歧项惩罚口味割裂，min 项惩罚任何一位强烈不喜欢。
// 成员分先按 ScoreFloor 钳底：薄画像打出的 0 分只压低排序，不直接否决。
type GroupConsensus struct {
	Members      MemberProfileSource
	Catalog      core.CatalogStore
	Cfg          config.ConsensusConfig
	ContentCfg   config.ContentBasedConfig
	QualityScale float64
	// ScoreScale 分歧归一化的满分基准（与评分满分一致）
	ScoreScale float64
}

func (s *GroupConsensus) Name() string { return AlgorithmConsensus }

func (s *GroupConsensus) Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error) {
	if !rctx.Subject.IsGroup() {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodeNotSupported,
			"group_consensus requires a group subject")
	}
	profiles, err := s.Members.MemberProfiles(ctx, rctx.Subject.GroupID)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	items, err := s.Catalog.ListContent(ctx)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodePersistenceFailure, "list content: "+err.Error())
	}

	var cands []*core.Candidate
	for _, item := range items {
		minScore, maxScore := 0.0, 0.0
		sum := 0.0
		for i, mp := range profiles {
			ms := scoreContent(item, mp.Genres, mp.Types, s.ContentCfg, s.QualityScale)
			if ms < s.Cfg.ScoreFloor {
				ms = s.Cfg.ScoreFloor
			}
			sum += ms
			if i == 0 || ms < minScore {
				minScore = ms
			}
			if i == 0 || ms > maxScore {
				maxScore = ms
			}
		}
		avg := sum / float64(len(profiles))
		disagreement := maxScore - minScore
		consensus := avg * (1 - disagreement/s.ScoreScale) * minScore
		if consensus <= 0 {
			continue
		}
		cand := core.NewCandidate(item, consensus,
			fmt.Sprintf("Group consensus: avg %.2f, min %.2f", avg, minScore))
		cand.PutLabel("algorithm", utils.Label{Value: AlgorithmConsensus, Source: "scorer"})
		cands = append(cands, cand)
	}
	return sortAndTrim(cands, limit), nil
}
