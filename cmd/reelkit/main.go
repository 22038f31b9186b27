// reelkit 命令行入口：生成推荐、跑维护任务。
//
// 常用方式：
//
//	reelkit generate --person u1 --algorithm hybrid --limit 10
//	reelkit maintain hourly   # 过期清理 + 指标回填
//	reelkit maintain daily    # 实验推进 + 物理清理
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/engine"
	"github.com/reelkit/reelkit/experiment"
	"github.com/reelkit/reelkit/feast"
	"github.com/reelkit/reelkit/pkg/logx"
	"github.com/reelkit/reelkit/profile"
	"github.com/reelkit/reelkit/scorer"
	"github.com/reelkit/reelkit/store"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envFile string

	rootCmd := &cobra.Command{
		Use:     "reelkit",
		Short:   "Recommendation engine for movies and series",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				return godotenv.Load(envFile)
			}
			// 默认 .env 可选，不存在不报错
			_ = godotenv.Load()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load")

	rootCmd.AddCommand(newGenerateCmd(&configPath))
	rootCmd.AddCommand(newMaintainCmd(&configPath))
	return rootCmd
}

// app 是 CLI 装配好的运行时依赖。
type app struct {
	engine   *engine.Engine
	assigner *experiment.Assigner
	log      *logx.Logger
}

func buildApp(configPath string) (*app, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if addr := os.Getenv("REELKIT_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	logger, err := logx.New(cfg.Mode)
	if err != nil {
		return nil, err
	}

	var (
		rs  *store.RedisStore
		ms  *store.MemoryStore
		all storeSet
	)
	if cfg.Redis.Addr != "" {
		rs, err = store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		all = storeSet{rs, rs, rs, rs, rs, rs, rs, rs, rs}
	} else {
		logger.Warn("no redis address configured, using in-memory store")
		ms = store.NewMemoryStore()
		all = storeSet{ms, ms, ms, ms, ms, ms, ms, ms, ms}
	}

	builder := &profile.Builder{
		Catalog:   all.catalog,
		Ratings:   all.ratings,
		Watchlist: all.watchlist,
		Groups:    all.groups,
		Profiles:  all.profiles,
		Config:    cfg,
		Logger:    logger,
	}
	if cfg.Feast.Enabled {
		seeds, err := feast.New(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project, cfg.Feast.SeedGenres)
		if err != nil {
			return nil, fmt.Errorf("connect feast: %w", err)
		}
		builder.Seeds = seeds
	}

	assigner := &experiment.Assigner{Experiments: all.experiments, Logger: logger}
	eng, err := engine.New(engine.Options{
		Recommendations: all.recs,
		Feedback:        all.feedback,
		History:         all.history,
		Ratings:         all.ratings,
		Watchlist:       all.watchlist,
		Profiles:        builder,
		Scorers: scorer.DefaultRegistry(all.catalog, all.ratings, all.watchlist, builder, cfg,
			rand.New(rand.NewSource(time.Now().UnixNano()))),
		Assigner: assigner,
		Config:   cfg,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{engine: eng, assigner: assigner, log: logger}, nil
}

// storeSet 把同一个后端按接口角色展开，装配时少写重复代码
type storeSet struct {
	catalog     core.CatalogStore
	ratings     core.RatingStore
	watchlist   core.WatchlistStore
	groups      core.GroupStore
	profiles    core.ProfileStore
	recs        core.RecommendationStore
	feedback    core.FeedbackStore
	history     core.HistoryStore
	experiments core.ExperimentStore
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var (
		personID, groupID string
		algorithm         string
		limit             int
		experimentID      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate recommendations for a person or a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (personID == "") == (groupID == "") {
				return fmt.Errorf("exactly one of --person or --group is required")
			}
			subject := core.PersonSubject(personID)
			if groupID != "" {
				subject = core.GroupSubject(groupID)
			}

			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			recs, err := a.engine.Generate(cmd.Context(), engine.GenerateRequest{
				Subject:      subject,
				Algorithm:    algorithm,
				Limit:        limit,
				ExperimentID: experimentID,
			})
			if err != nil {
				return err
			}
			for i, rec := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-12s score=%.3f algorithm=%s %s\n",
					i+1, rec.ContentID, rec.Score, rec.Algorithm, rec.Reasoning)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person ID to recommend for")
	cmd.Flags().StringVar(&groupID, "group", "", "group ID to recommend for")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "algorithm (default hybrid)")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of recommendations (default from config)")
	cmd.Flags().StringVar(&experimentID, "experiment", "", "experiment ID for A/B bucketing")
	return cmd
}

func newMaintainCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run maintenance tasks",
	}
	cmd.AddCommand(
		maintainTask(configPath, "expire", "Mark overdue recommendations as expired", runExpire),
		maintainTask(configPath, "metrics", "Backfill performance metrics on generation history", runMetrics),
		maintainTask(configPath, "experiments", "Advance experiment lifecycle by schedule", runExperiments),
		maintainTask(configPath, "cleanup", "Physically delete rows past retention", runCleanup),
		maintainTask(configPath, "hourly", "Hourly batch: expire + metrics", runHourly),
		maintainTask(configPath, "daily", "Daily batch: experiments + cleanup", runDaily),
	)
	return cmd
}

func maintainTask(configPath *string, use, short string, run func(context.Context, *app) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()
			return run(cmd.Context(), a)
		},
	}
}

func runExpire(ctx context.Context, a *app) error {
	n, err := a.engine.ExpireAndArchive(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("expired %d recommendations\n", n)
	return nil
}

func runMetrics(ctx context.Context, a *app) error {
	n, err := a.engine.UpdateHistoryMetrics(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("updated metrics on %d history rows\n", n)
	return nil
}

func runExperiments(ctx context.Context, a *app) error {
	n, err := a.assigner.AdvanceAll(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("advanced %d experiments\n", n)
	return nil
}

func runCleanup(ctx context.Context, a *app) error {
	recs, hist, err := a.engine.CleanupStale(ctx, 0)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d recommendations, %d history rows\n", recs, hist)
	return nil
}

func runHourly(ctx context.Context, a *app) error {
	if err := runExpire(ctx, a); err != nil {
		return err
	}
	return runMetrics(ctx, a)
}

func runDaily(ctx context.Context, a *app) error {
	if err := runExperiments(ctx, a); err != nil {
		return err
	}
	return runCleanup(ctx, a)
}
