package core

import (
	"context"
	"time"
)

// 存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 每个关注点一个小接口，打分器/引擎只依赖自己需要的那个
//
// 实现：
//   - store.MemoryStore 实现全部接口（测试/开发/原型）
//   - store.RedisStore 实现全部接口（生产）

// CatalogStore 是外部片库的只读视图。
// 片库由外部导入方维护；引擎永不写入。
type CatalogStore interface {
	// GetContent 按 ID 读取一条内容；不存在返回 ErrStoreNotFound
	GetContent(ctx context.Context, contentID string) (*ContentItem, error)

	// ListContent 返回全部在架内容（打分器的候选全集）
	ListContent(ctx context.Context) ([]*ContentItem, error)
}

// RatingStore 是评分信号的读取接口（写入属于上游 CRUD 流程）。
type RatingStore interface {
	// RatingsByPerson 返回某人全部评分
	RatingsByPerson(ctx context.Context, personID string) ([]*RatingEvent, error)

	// RatingsForContents 返回给定内容集合上的全部评分（协同过滤找邻居用）
	RatingsForContents(ctx context.Context, contentIDs []string) ([]*RatingEvent, error)

	// RecentRatingStats 返回 since 之后每条内容的评分数与均分（热度打分用）
	RecentRatingStats(ctx context.Context, since time.Time) (map[string]RatingStats, error)
}

// WatchlistStore 是待看清单信号的读取接口。
type WatchlistStore interface {
	// EntriesBySubject 返回个人或小组的待看清单
	EntriesBySubject(ctx context.Context, subject Subject) ([]*WatchlistEntry, error)

	// RecentAddCounts 返回 since 之后每条内容被加入清单的次数（热度打分用）
	RecentAddCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

// GroupStore 是小组成员关系的只读视图（小组管理属于上游流程）。
type GroupStore interface {
	// MemberIDs 返回小组当前成员的个人 ID 列表；小组不存在返回 ErrStoreNotFound
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// ProfileStore 持久化偏好画像（引擎惰性重建后的落盘点）。
type ProfileStore interface {
	GetPersonProfile(ctx context.Context, personID string) (*PersonProfile, error)
	SavePersonProfile(ctx context.Context, p *PersonProfile) error

	GetGroupProfile(ctx context.Context, groupID string) (*GroupProfile, error)
	SaveGroupProfile(ctx context.Context, p *GroupProfile) error
}

// RecommendationStore 持久化推荐行与生成历史。
//
// SaveBatch 是唯一的写入口：一个批次的推荐行与它的历史行要么都落盘、
// 要么都不落盘（PERSISTENCE_FAILURE 时整批回滚，不留半截）。
type RecommendationStore interface {
	// Get 按 ID 读取；不存在返回 ErrStoreNotFound
	Get(ctx context.Context, id string) (*Recommendation, error)

	// SubjectRecommendations 返回某目标的全部推荐行（各状态）
	SubjectRecommendations(ctx context.Context, subject Subject) ([]*Recommendation, error)

	// ActiveBySubject 返回某目标在 now 时刻的活跃集（active 且未过期）
	ActiveBySubject(ctx context.Context, subject Subject, now time.Time) ([]*Recommendation, error)

	// NewestBySubject 返回某目标最新一条 active 推荐；没有返回 ErrStoreNotFound
	NewestBySubject(ctx context.Context, subject Subject) (*Recommendation, error)

	// SaveBatch 原子写入一个生成批次及其历史行
	SaveBatch(ctx context.Context, recs []*Recommendation, hist *GenerationHistory) error

	// Update 覆盖单条推荐（状态流转、交互时间戳）
	Update(ctx context.Context, rec *Recommendation) error

	// UpdateStatus 批量流转状态
	UpdateStatus(ctx context.Context, ids []string, status RecommendationStatus) error

	// ExpireDue 把所有已过 ExpiresAt 的 active 行流转为 expired，返回条数
	ExpireDue(ctx context.Context, now time.Time) (int, error)

	// ListWindow 返回某目标某算法在 [from, to) 内生成的推荐（指标回填用）
	ListWindow(ctx context.Context, subject Subject, algorithm string, from, to time.Time) ([]*Recommendation, error)

	// DeleteStale 物理删除留存期外的 expired/archived 行与久置的 dismissed 行，返回条数。
	// 仅维护任务调用，不在同步路径上。
	DeleteStale(ctx context.Context, now time.Time, retention, dismissedRetention time.Duration) (int, error)
}

// FeedbackStore 持久化 (recommendation, person) 维度的反馈。
type FeedbackStore interface {
	// Upsert 按 (RecommendationID, PersonID) 写入：存在则覆盖类型/评论与时间戳
	Upsert(ctx context.Context, fb *Feedback) error

	// ByRecommendation 返回一条推荐收到的全部反馈
	ByRecommendation(ctx context.Context, recommendationID string) ([]*Feedback, error)
}

// HistoryStore 读取与回填生成历史（写入发生在 SaveBatch）。
type HistoryStore interface {
	// PendingMetrics 返回指标待回填的历史行（上次回填早于 olderThan）
	PendingMetrics(ctx context.Context, olderThan time.Time) ([]*GenerationHistory, error)

	// UpdateMetrics 覆盖历史行上的表现指标
	UpdateMetrics(ctx context.Context, hist *GenerationHistory) error

	// DeleteOlderThan 物理删除 cutoff 之前生成的历史行，返回条数
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ExperimentStore 持久化 A/B 实验配置。
type ExperimentStore interface {
	// GetExperiment 按 ID 读取；不存在返回 ErrStoreNotFound
	GetExperiment(ctx context.Context, id string) (*Experiment, error)

	// ListExperiments 返回全部实验（维护任务推进状态用）
	ListExperiments(ctx context.Context) ([]*Experiment, error)

	SaveExperiment(ctx context.Context, e *Experiment) error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示记录不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")

	// ErrDuplicateActive 表示违反"同一 (subject, content) 至多一条 active"约束
	ErrDuplicateActive = NewDomainError(ModuleStore, ErrorCodePersistenceFailure, "store: duplicate active recommendation for (subject, content)")
)

// IsStoreNotFound 检查错误是否为记录不存在
func IsStoreNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
