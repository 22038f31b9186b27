package core

import "time"

// RatingEvent 是显式偏好信号：个人对某条内容的评分。
// 评分修改是原地覆盖（同一 (person, content) 只有一行），不产生新实体。
type RatingEvent struct {
	PersonID  string
	ContentID string
	Value     float64 // 0 ~ RatingScale（默认 0-5）
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WatchlistEntry 是隐式意向信号：把某条内容加入待看清单。
// Subject 可以是个人也可以是小组（小组清单用于生成时排除）。
type WatchlistEntry struct {
	Subject   Subject
	ContentID string
	Status    string // planned / watching / finished / dropped
	Priority  int    // 越大越优先
	AddedAt   time.Time
}

// GroupMembership 把个人关联到小组，仅用于聚合加权，不承担权限语义。
type GroupMembership struct {
	GroupID  string
	PersonID string
	Role     string // member / admin
	JoinedAt time.Time
}

// RatingStats 是某条内容在一个时间窗口内的评分汇总，用于热度打分。
type RatingStats struct {
	Count int
	Sum   float64
}

// Avg 返回窗口内平均评分；无评分时为 0。
func (s RatingStats) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}
