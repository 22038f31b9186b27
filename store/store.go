// Package store 提供 core 层存储接口的两种实现：
//   - MemoryStore：测试/开发/原型
//   - RedisStore：生产环境
package store

import "github.com/reelkit/reelkit/core"

// 编译期确认两种实现覆盖全部存储接口
var (
	_ core.CatalogStore        = (*MemoryStore)(nil)
	_ core.RatingStore         = (*MemoryStore)(nil)
	_ core.WatchlistStore      = (*MemoryStore)(nil)
	_ core.GroupStore          = (*MemoryStore)(nil)
	_ core.ProfileStore        = (*MemoryStore)(nil)
	_ core.RecommendationStore = (*MemoryStore)(nil)
	_ core.FeedbackStore       = (*MemoryStore)(nil)
	_ core.HistoryStore        = (*MemoryStore)(nil)
	_ core.ExperimentStore     = (*MemoryStore)(nil)

	_ core.CatalogStore        = (*RedisStore)(nil)
	_ core.RatingStore         = (*RedisStore)(nil)
	_ core.WatchlistStore      = (*RedisStore)(nil)
	_ core.GroupStore          = (*RedisStore)(nil)
	_ core.ProfileStore        = (*RedisStore)(nil)
	_ core.RecommendationStore = (*RedisStore)(nil)
	_ core.FeedbackStore       = (*RedisStore)(nil)
	_ core.HistoryStore        = (*RedisStore)(nil)
	_ core.ExperimentStore     = (*RedisStore)(nil)
)
