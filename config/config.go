// Package config 定义引擎的全部可调参数，并提供 YAML 加载与默认值。
// 配置是过期窗口、打分阈值等策略的唯一事实来源：算法代码不内置第二套默认值。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是引擎配置的根结构。零值不可直接使用，入口应从 Default() 出发。
type Config struct {
	// Mode 运行模式，决定日志格式："dev" / "prod"
	Mode string `yaml:"mode"`

	// RatingScale 用户评分满分（如 5 分制）
	RatingScale float64 `yaml:"rating_scale"`
	// QualityScale 片库质量分满分（如 10 分制）
	QualityScale float64 `yaml:"quality_scale"`

	// DefaultLimit 单次生成的默认条数；MaxLimit 上限
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`

	// MaxActive 每个目标的活跃推荐上限，超出部分按最旧归档
	MaxActive int `yaml:"max_active"`

	// MinRegenIntervalHours 两次生成之间的最小间隔（小时）
	MinRegenIntervalHours int `yaml:"min_regen_interval_hours"`

	// ExpirationDays 按算法名配置的过期天数；"default" 为兜底项
	ExpirationDays map[string]int `yaml:"expiration_days"`

	Profile       ProfileConfig       `yaml:"profile"`
	ContentBased  ContentBasedConfig  `yaml:"content_based"`
	Collaborative CollaborativeConfig `yaml:"collaborative"`
	Trending      TrendingConfig      `yaml:"trending"`
	Consensus     ConsensusConfig     `yaml:"group_consensus"`
	Hybrid        HybridConfig        `yaml:"hybrid"`

	// ExcludeRules 候选排除规则（CEL 表达式），生成时逐条应用
	ExcludeRules []string `yaml:"exclude_rules"`

	Metrics MetricsConfig `yaml:"metrics"`
	Cleanup CleanupConfig `yaml:"cleanup"`

	Redis RedisConfig `yaml:"redis"`
	Feast FeastConfig `yaml:"feast"`
}

// ProfileConfig 控制偏好画像的构建与时效。
type ProfileConfig struct {
	// MaxAgeDays 画像超过该天数视为过期，读取时惰性重建
	MaxAgeDays int `yaml:"max_age_days"`
	// WatchlistWeight 待看条目折算的固定偏好权重
	WatchlistWeight float64 `yaml:"watchlist_weight"`
	// RatingShare / WatchlistShare 置信度公式中两类信号的占比
	RatingShare    float64 `yaml:"rating_share"`
	WatchlistShare float64 `yaml:"watchlist_share"`
	// SignalTarget 置信度达到 1.0 所需的加权信号量
	SignalTarget float64 `yaml:"signal_target"`
	// GroupMemberTarget 小组置信度达到 1.0 所需的成员数
	GroupMemberTarget float64 `yaml:"group_member_target"`
}

// ContentBasedConfig 控制内容打分的加权与兜底行为。
type ContentBasedConfig struct {
	GenreWeight  float64 `yaml:"genre_weight"`
	TypeWeight   float64 `yaml:"type_weight"`
	RatingWeight float64 `yaml:"rating_weight"`
	// FallbackTieBand 热门兜底时质量分相差该值以内视为同档，档内洗牌
	FallbackTieBand float64 `yaml:"fallback_tie_band"`
}

// CollaborativeConfig 控制协同过滤的邻居选取。
type CollaborativeConfig struct {
	// MinSharedItems 构成邻居的最少共同评分数
	MinSharedItems int `yaml:"min_shared_items"`
	// MinSimilarity 余弦相似度下限
	MinSimilarity float64 `yaml:"min_similarity"`
	// MaxNeighbors 取相似度最高的前 N 个邻居
	MaxNeighbors int `yaml:"max_neighbors"`
	// HighRatingRatio 邻居评分达到满分的该比例才算"高分"
	HighRatingRatio float64 `yaml:"high_rating_ratio"`
}

// TrendingConfig 控制热度窗口与信号配比。
type TrendingConfig struct {
	WindowDays int `yaml:"window_days"`
	// WatchlistWeight 待看清单新增数在热度分中的权重
	WatchlistWeight float64 `yaml:"watchlist_weight"`
}

// ConsensusConfig 控制小组共识打分。
type ConsensusConfig struct {
	// ScoreFloor 成员分的下限钳制，避免单个薄画像直接否决候选
	ScoreFloor float64 `yaml:"score_floor"`
}

// HybridConfig 控制混合打分的线性权重。
type HybridConfig struct {
	ContentWeight       float64 `yaml:"content_weight"`
	CollaborativeWeight float64 `yaml:"collaborative_weight"`
}

// MetricsConfig 控制生成历史的表现指标回填。
type MetricsConfig struct {
	// RefreshHours 指标回填的最小间隔（小时）
	RefreshHours int `yaml:"refresh_hours"`
	// WindowHours 一条历史行关联推荐的时间窗口（小时）
	WindowHours int `yaml:"window_hours"`
}

// CleanupConfig 控制物理删除的留存窗口。
type CleanupConfig struct {
	// RetentionDays expired/archived 行的留存天数
	RetentionDays int `yaml:"retention_days"`
	// DismissedRetentionDays dismissed 行的留存天数
	DismissedRetentionDays int `yaml:"dismissed_retention_days"`
	// HistoryRetentionDays 生成历史的留存天数
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// RedisConfig 生产存储的连接参数。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Prefix 所有 key 的命名空间前缀
	Prefix string `yaml:"prefix"`
}

// FeastConfig 特征平台的接入参数，Enabled 为 false 时完全跳过。
type FeastConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Project string `yaml:"project"`
	// SeedGenres 冷启动时向特征平台查询的题材集合
	SeedGenres []string `yaml:"seed_genres"`
}

// Default 返回一套可直接运行的默认配置。
func Default() *Config {
	return &Config{
		Mode:                  "dev",
		RatingScale:           5,
		QualityScale:          10,
		DefaultLimit:          10,
		MaxLimit:              50,
		MaxActive:             50,
		MinRegenIntervalHours: 6,
		ExpirationDays: map[string]int{
			"default":         7,
			"trending":        7,
			"group_consensus": 14,
			"content_based":   21,
			"collaborative":   21,
			"hybrid":          21,
		},
		Profile: ProfileConfig{
			MaxAgeDays:        7,
			WatchlistWeight:   0.6,
			RatingShare:       0.7,
			WatchlistShare:    0.3,
			SignalTarget:      20,
			GroupMemberTarget: 10,
		},
		ContentBased: ContentBasedConfig{
			GenreWeight:     0.6,
			TypeWeight:      0.3,
			RatingWeight:    0.1,
			FallbackTieBand: 0.5,
		},
		Collaborative: CollaborativeConfig{
			MinSharedItems:  3,
			MinSimilarity:   0.1,
			MaxNeighbors:    20,
			HighRatingRatio: 0.8,
		},
		Trending: TrendingConfig{
			WindowDays:      30,
			WatchlistWeight: 0.5,
		},
		Consensus: ConsensusConfig{
			ScoreFloor: 0.05,
		},
		Hybrid: HybridConfig{
			ContentWeight:       0.6,
			CollaborativeWeight: 0.4,
		},
		Metrics: MetricsConfig{
			RefreshHours: 1,
			WindowHours:  1,
		},
		Cleanup: CleanupConfig{
			RetentionDays:          90,
			DismissedRetentionDays: 30,
			HistoryRetentionDays:   90,
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "reelkit",
		},
	}
}

// Load 从 YAML 文件加载配置：以默认值为底，文件中出现的字段覆盖默认。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容，默认值打底。
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 做基本的合法性检查，入口在加载时调用。
func (c *Config) Validate() error {
	if c.RatingScale <= 0 || c.QualityScale <= 0 {
		return fmt.Errorf("config: rating_scale and quality_scale must be positive")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("config: invalid limits (default=%d max=%d)", c.DefaultLimit, c.MaxLimit)
	}
	if c.MaxActive <= 0 {
		return fmt.Errorf("config: max_active must be positive")
	}
	if _, ok := c.ExpirationDays["default"]; !ok {
		return fmt.Errorf("config: expiration_days requires a %q entry", "default")
	}
	for algo, days := range c.ExpirationDays {
		if days <= 0 {
			return fmt.Errorf("config: expiration_days[%s] must be positive", algo)
		}
	}
	if c.Hybrid.ContentWeight < 0 || c.Hybrid.CollaborativeWeight < 0 {
		return fmt.Errorf("config: hybrid weights must be non-negative")
	}
	return nil
}

// ExpirationFor 返回某算法的过期窗口，未配置的算法使用 "default" 项。
func (c *Config) ExpirationFor(algorithm string) time.Duration {
	days, ok := c.ExpirationDays[algorithm]
	if !ok {
		days = c.ExpirationDays["default"]
	}
	return time.Duration(days) * 24 * time.Hour
}

// MinRegenInterval 返回两次生成之间的最小间隔。
func (c *Config) MinRegenInterval() time.Duration {
	return time.Duration(c.MinRegenIntervalHours) * time.Hour
}

// ProfileMaxAge 返回画像的最长有效期。
func (c *Config) ProfileMaxAge() time.Duration {
	return time.Duration(c.Profile.MaxAgeDays) * 24 * time.Hour
}

// TrendingWindow 返回热度统计窗口。
func (c *Config) TrendingWindow() time.Duration {
	return time.Duration(c.Trending.WindowDays) * 24 * time.Hour
}

// MetricsWindow 返回历史行关联推荐的时间窗口。
func (c *Config) MetricsWindow() time.Duration {
	return time.Duration(c.Metrics.WindowHours) * time.Hour
}

// MetricsRefresh 返回指标回填的最小间隔。
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.Metrics.RefreshHours) * time.Hour
}

// ClampLimit 把请求条数收敛到 [1, MaxLimit]，0 或负数取默认值。
func (c *Config) ClampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}
