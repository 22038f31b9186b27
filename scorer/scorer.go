// Package scorer 提供可互换的打分策略：同一个接口，五种算法。
//
// 打分器只负责"给候选打分并排序"，不做过滤与持久化；
// 排除已评分/已在清单/已有活跃推荐的内容是 engine 的职责。
package scorer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reelkit/reelkit/core"
)

// 内置算法名。推荐行上的 Algorithm 字段、实验分组里的
// variant 配置、过期窗口配置都以这些名字为键。
const (
	AlgorithmContentBased  = "content_based"
	AlgorithmCollaborative = "collaborative"
	AlgorithmTrending      = "trending"
	AlgorithmConsensus     = "group_consensus"
	AlgorithmHybrid        = "hybrid"
	AlgorithmPopularity    = "popularity"
)

// Scorer 是打分策略的统一接口。
// 返回按分数降序、截断到 limit 的候选序列；产出为空不算错误。
type Scorer interface {
	Name() string
	Score(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error)
}

// Registry 管理按名字注册的打分器，线程安全。
type Registry struct {
	mu      sync.RWMutex
	scorers map[string]Scorer
}

func NewRegistry() *Registry {
	return &Registry{scorers: make(map[string]Scorer)}
}

// Register 注册一个打分器，重名覆盖。
func (r *Registry) Register(s Scorer) {
	if s == nil || s.Name() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers[s.Name()] = s
}

// Get 按名字取打分器，未注册返回 NOT_SUPPORTED。
func (r *Registry) Get(name string) (Scorer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scorers[name]
	if !ok {
		return nil, core.NewDomainError(core.ModuleScorer, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown algorithm %q, supported: %v", name, r.names()))
	}
	return s, nil
}

// Names 返回已注册的算法名列表（排序），用于错误提示与校验。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.scorers))
	for n := range r.scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sortAndTrim 按分数降序排序并截断，分数相同按内容 ID 保证稳定输出。
func sortAndTrim(cands []*core.Candidate, limit int) []*core.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].ContentID() < cands[j].ContentID()
	})
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}
