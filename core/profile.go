package core

import "time"

// Profile 是偏好画像的统一抽象。
//
// 个人画像与小组画像形状不同（后者带成员数），但打分链路只关心
// 题材/类型权重与置信度，因此统一走接口而不是结构复用。
// 权重在引擎内部始终是强类型 map[string]float64；
// 序列化只发生在持久化边界（store 实现内部）。
type Profile interface {
	// GenrePreferences 返回题材 -> 权重（0-1）
	GenrePreferences() map[string]float64

	// TypePreferences 返回内容类型 -> 权重（0-1）
	TypePreferences() map[string]float64

	// Confidence 返回画像置信度（0-1），数据越多越高
	Confidence() float64

	// UpdatedTime 返回画像最后一次重建时间，用于过期判断
	UpdatedTime() time.Time
}

// PersonProfile 是个人偏好画像：由评分与待看清单信号折算而来。
type PersonProfile struct {
	PersonID        string
	Genres          map[string]float64
	Types           map[string]float64
	ConfidenceScore float64
	RatingCount     int
	WatchlistCount  int
	UpdatedAt       time.Time
}

func NewPersonProfile(personID string) *PersonProfile {
	return &PersonProfile{
		PersonID: personID,
		Genres:   make(map[string]float64),
		Types:    make(map[string]float64),
	}
}

func (p *PersonProfile) GenrePreferences() map[string]float64 { return p.Genres }
func (p *PersonProfile) TypePreferences() map[string]float64  { return p.Types }
func (p *PersonProfile) Confidence() float64                  { return p.ConfidenceScore }
func (p *PersonProfile) UpdatedTime() time.Time               { return p.UpdatedAt }

// GroupProfile 是小组聚合画像：成员个人画像的平均。
type GroupProfile struct {
	GroupID         string
	Genres          map[string]float64
	Types           map[string]float64
	ConfidenceScore float64
	MemberCount     int
	UpdatedAt       time.Time
}

func NewGroupProfile(groupID string) *GroupProfile {
	return &GroupProfile{
		GroupID: groupID,
		Genres:  make(map[string]float64),
		Types:   make(map[string]float64),
	}
}

func (p *GroupProfile) GenrePreferences() map[string]float64 { return p.Genres }
func (p *GroupProfile) TypePreferences() map[string]float64  { return p.Types }
func (p *GroupProfile) Confidence() float64                  { return p.ConfidenceScore }
func (p *GroupProfile) UpdatedTime() time.Time               { return p.UpdatedAt }

// IsEmpty 判断画像是否完全没有偏好数据（触发热门兜底）。
func IsEmptyProfile(p Profile) bool {
	if p == nil {
		return true
	}
	return len(p.GenrePreferences()) == 0 && len(p.TypePreferences()) == 0
}

// IsStale 判断画像是否超过给定时长没有重建。
func IsStale(p Profile, maxAge time.Duration, now time.Time) bool {
	if p == nil {
		return true
	}
	return now.Sub(p.UpdatedTime()) > maxAge
}
