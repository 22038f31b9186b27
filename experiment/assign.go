// Package experiment 提供 A/B 实验的确定性分流与状态推进。
//
// 分流是纯函数：对 (experiment, subject) 做稳定哈希落入 [0,99] 桶，
// 再沿固定顺序的流量配比累积游走，不需要持久化的分配表。
package experiment

import (
	"context"
	"crypto/md5"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/logx"
)

// Bucket 计算 (experiment, subject) 的稳定桶号，范围 [0, 99]。
// 哈希输入为 "<experimentID>_<subjectID>"，md5 摘要按大整数取模。
func Bucket(experimentID, subjectID string) int {
	sum := md5.Sum([]byte(experimentID + "_" + subjectID))
	mod := 0
	for _, b := range sum {
		mod = (mod*256 + int(b)) % 100
	}
	return mod
}

// AssignVariant 按实验的流量配比给目标分配变体。
// 配比为空返回 ""；桶号落在累积配比之外（配比和不足 100）时回落到第一个变体。
func AssignVariant(e *core.Experiment, subjectID string) string {
	if len(e.Split) == 0 {
		return ""
	}
	bucket := Bucket(e.ID, subjectID)
	cumulative := 0
	for _, vs := range e.Split {
		cumulative += vs.Percent
		if bucket < cumulative {
			return vs.Variant
		}
	}
	return e.Split[0].Variant
}

// Assigner 把实验配置解析为"该目标用哪个算法"。
type Assigner struct {
	Experiments core.ExperimentStore
	Logger      *logx.Logger
}

func (a *Assigner) log() *logx.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logx.Nop()
}

// Resolve 返回目标在实验中的变体与该变体配置的算法。
// 实验不存在、未在运行或变体没配算法时返回空串：调用方使用自己的默认算法。
func (a *Assigner) Resolve(ctx context.Context, experimentID, subjectID string, now time.Time) (variant, algorithm string, err error) {
	e, err := a.Experiments.GetExperiment(ctx, experimentID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			a.log().Debug("experiment not found, using default algorithm", "experiment_id", experimentID)
			return "", "", nil
		}
		return "", "", core.NewDomainError(core.ModuleExperiment, core.ErrorCodePersistenceFailure, "load experiment: "+err.Error())
	}
	if !e.RunningAt(now) {
		return "", "", nil
	}
	variant = AssignVariant(e, subjectID)
	if variant == "" {
		return "", "", nil
	}
	if vc, ok := e.VariantConfig(variant); ok {
		algorithm = vc.Algorithm
	}
	return variant, algorithm, nil
}

// AdvanceAll 推进全部实验的状态（到点启动、到期结束），返回变更条数。
// 维护任务按天调用。
func (a *Assigner) AdvanceAll(ctx context.Context, now time.Time) (int, error) {
	list, err := a.Experiments.ListExperiments(ctx)
	if err != nil {
		return 0, core.NewDomainError(core.ModuleExperiment, core.ErrorCodePersistenceFailure, "list experiments: "+err.Error())
	}
	n := 0
	for _, e := range list {
		if !e.Advance(now) {
			continue
		}
		if err := a.Experiments.SaveExperiment(ctx, e); err != nil {
			return n, core.NewDomainError(core.ModuleExperiment, core.ErrorCodePersistenceFailure, "save experiment: "+err.Error())
		}
		a.log().Info("experiment status advanced", "experiment_id", e.ID, "status", e.Status)
		n++
	}
	return n, nil
}
