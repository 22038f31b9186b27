package core

import "time"

// RecommendationStatus 是推荐的生命周期状态。
// 状态只前进不回退：active -> dismissed/expired -> archived -> （维护任务物理删除）。
type RecommendationStatus string

const (
	StatusActive    RecommendationStatus = "active"
	StatusDismissed RecommendationStatus = "dismissed"
	StatusExpired   RecommendationStatus = "expired"
	StatusArchived  RecommendationStatus = "archived"
)

// Recommendation 是生成批次中的一条推荐。
//
// 不变量：
//   - Subject 恰好指向个人或小组其一
//   - 同一 (subject, content) 至多一条 active 推荐
//   - ExpiresAt 严格晚于 CreatedAt
type Recommendation struct {
	ID        string
	Subject   Subject
	ContentID string

	Score     float64
	Algorithm string
	Reasoning string

	// A/B 实验归属（可选）
	ExperimentID string
	Variant      string

	Status    RecommendationStatus
	CreatedAt time.Time
	ExpiresAt time.Time

	// 交互时间戳：首次触发后不再变化
	ViewedAt  *time.Time
	ClickedAt *time.Time
}

// ActiveAt 判断推荐在 now 时刻是否处于活跃集（active 且未过期）。
func (r *Recommendation) ActiveAt(now time.Time) bool {
	return r.Status == StatusActive && r.ExpiresAt.After(now)
}

// MarkViewed 记录首次浏览时间；幂等，后续调用不覆盖。
// 返回本次调用是否产生了变化。
func (r *Recommendation) MarkViewed(now time.Time) bool {
	if r.ViewedAt != nil {
		return false
	}
	t := now
	r.ViewedAt = &t
	return true
}

// MarkClicked 记录首次点击时间（同时视为已浏览）；幂等，首次调用生效。
// 返回本次调用是否产生了变化。
func (r *Recommendation) MarkClicked(now time.Time) bool {
	changed := r.MarkViewed(now)
	if r.ClickedAt == nil {
		t := now
		r.ClickedAt = &t
		changed = true
	}
	return changed
}

// FeedbackType 是个人对推荐的反馈类型。
type FeedbackType string

const (
	FeedbackLike          FeedbackType = "like"
	FeedbackDislike       FeedbackType = "dislike"
	FeedbackNotInterested FeedbackType = "not_interested"
	FeedbackAlreadySeen   FeedbackType = "already_seen"
	FeedbackClicked       FeedbackType = "clicked"
)

// ValidFeedbackType 检查反馈类型是否合法。
func ValidFeedbackType(t FeedbackType) bool {
	switch t {
	case FeedbackLike, FeedbackDislike, FeedbackNotInterested, FeedbackAlreadySeen, FeedbackClicked:
		return true
	}
	return false
}

// Feedback 是 (recommendation, person) 维度的一行反馈，可 upsert：
// 已存在时覆盖类型/评论并刷新时间戳，不产生第二行。
type Feedback struct {
	ID               string
	RecommendationID string
	PersonID         string
	Type             FeedbackType
	Comment          string
	CreatedAt        time.Time
}

// FeedbackSummary 是读取时计算的反馈汇总，不落库。
type FeedbackSummary struct {
	Likes     int
	Dislikes  int
	Total     int
	LikeRatio float64
}

// SummarizeFeedback 汇总一条推荐收到的所有反馈。
// Total 只统计 like/dislike（与点击、跳过区分开）。
func SummarizeFeedback(rows []*Feedback) FeedbackSummary {
	var s FeedbackSummary
	for _, fb := range rows {
		switch fb.Type {
		case FeedbackLike:
			s.Likes++
		case FeedbackDislike:
			s.Dislikes++
		}
	}
	s.Total = s.Likes + s.Dislikes
	if s.Total > 0 {
		s.LikeRatio = float64(s.Likes) / float64(s.Total)
	}
	return s
}

// GenerationHistory 是一次生成批次的记录：目标、算法、数量与后算的表现指标。
type GenerationHistory struct {
	ID        string
	Subject   Subject
	Algorithm string

	GeneratedAt time.Time
	Total       int

	// 表现指标由批处理任务回填
	ViewRate  float64
	ClickRate float64
	LikeRate  float64

	ExperimentID string
	Variant      string

	// MetricsUpdatedAt 为 nil 表示从未回填过
	MetricsUpdatedAt *time.Time
}
