package core

import "time"

// ExperimentStatus 是 A/B 实验的状态。
type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentRunning   ExperimentStatus = "running"
	ExperimentPaused    ExperimentStatus = "paused"
	ExperimentCompleted ExperimentStatus = "completed"
)

// VariantSplit 是实验的一个分组：名称、流量百分比、以及该组使用的算法。
// 分组顺序即分桶遍历顺序，因此用有序 slice 而不是 map 表达，
// 保证同一配置下的分桶结果可复现。
type VariantSplit struct {
	Variant   string `yaml:"variant" json:"variant"`
	Percent   int    `yaml:"percent" json:"percent"`
	Algorithm string `yaml:"algorithm" json:"algorithm"`
}

// Experiment 是一个推荐算法 A/B 实验。
// 分桶是无状态的（实验 ID + 目标 ID 稳定哈希），不需要落分配表。
type Experiment struct {
	ID          string
	Name        string
	Description string

	Split  []VariantSplit
	Status ExperimentStatus

	StartAt *time.Time
	EndAt   *time.Time

	PrimaryMetric string // click_rate / like_rate / view_rate

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VariantConfig 按名称查找分组配置。
func (e *Experiment) VariantConfig(variant string) (VariantSplit, bool) {
	for _, v := range e.Split {
		if v.Variant == variant {
			return v, true
		}
	}
	return VariantSplit{}, false
}

// Advance 按时间推进实验状态：
//   - draft 且到达 StartAt -> running
//   - running 且超过 EndAt -> completed
//
// 返回状态是否发生变化；由维护任务按日调用。
func (e *Experiment) Advance(now time.Time) bool {
	switch e.Status {
	case ExperimentDraft:
		if e.StartAt != nil && !now.Before(*e.StartAt) {
			e.Status = ExperimentRunning
			e.UpdatedAt = now
			return true
		}
	case ExperimentRunning:
		if e.EndAt != nil && now.After(*e.EndAt) {
			e.Status = ExperimentCompleted
			e.UpdatedAt = now
			return true
		}
	}
	return false
}

// RunningAt 判断实验在 now 时刻是否生效：状态为 running 且在起止窗口内。
func (e *Experiment) RunningAt(now time.Time) bool {
	if e.Status != ExperimentRunning {
		return false
	}
	if e.StartAt != nil && now.Before(*e.StartAt) {
		return false
	}
	if e.EndAt != nil && now.After(*e.EndAt) {
		return false
	}
	return true
}
