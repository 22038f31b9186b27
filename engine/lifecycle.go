package engine

import (
	"context"
	"sort"
	"time"

	"github.com/reelkit/reelkit/core"
)

// archiveOverCap 把目标活跃集超出上限的部分按最旧归档。
// 归档不是删除：行保留，只是不再出现在活跃集里。
func (e *Engine) archiveOverCap(ctx context.Context, subject core.Subject, now time.Time) error {
	active, err := e.recs.ActiveBySubject(ctx, subject, now)
	if err != nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load active: "+err.Error())
	}
	if len(active) <= e.cfg.MaxActive {
		return nil
	}
	// 新的在前，超出上限的尾部（最旧）归档
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	excess := active[e.cfg.MaxActive:]
	ids := make([]string, len(excess))
	for i, rec := range excess {
		ids[i] = rec.ID
	}
	if err := e.recs.UpdateStatus(ctx, ids, core.StatusArchived); err != nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "archive excess: "+err.Error())
	}
	e.log.Debug("archived excess recommendations", "subject", subject.Key(), "count", len(ids))
	return nil
}

// ExpireAndArchive 把全部已过期的活跃推荐流转为 expired，返回条数。
// 维护任务按小时级调用；生成链路自身也会先做一次过期清理。
func (e *Engine) ExpireAndArchive(ctx context.Context) (int, error) {
	n, err := e.recs.ExpireDue(ctx, e.now())
	if err != nil {
		return 0, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "expire due: "+err.Error())
	}
	if n > 0 {
		e.log.Info("recommendations expired", "count", n)
	}
	return n, nil
}

// CleanupStale 物理删除留存期外的推荐行与生成历史，返回各自的删除条数。
// retentionDays 为 0 时取配置默认值。只应由维护任务调用。
func (e *Engine) CleanupStale(ctx context.Context, retentionDays int) (recsDeleted, histDeleted int, err error) {
	now := e.now()
	retention := time.Duration(retentionDays) * 24 * time.Hour
	if retentionDays <= 0 {
		retention = time.Duration(e.cfg.Cleanup.RetentionDays) * 24 * time.Hour
	}
	dismissed := time.Duration(e.cfg.Cleanup.DismissedRetentionDays) * 24 * time.Hour
	historyRetention := time.Duration(e.cfg.Cleanup.HistoryRetentionDays) * 24 * time.Hour

	recsDeleted, err = e.recs.DeleteStale(ctx, now, retention, dismissed)
	if err != nil {
		return 0, 0, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "delete stale: "+err.Error())
	}
	histDeleted, err = e.history.DeleteOlderThan(ctx, now.Add(-historyRetention))
	if err != nil {
		return recsDeleted, 0, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "delete history: "+err.Error())
	}
	e.log.Info("stale rows cleaned up", "recommendations", recsDeleted, "history", histDeleted)
	return recsDeleted, histDeleted, nil
}

// MarkViewed 标记推荐已曝光（幂等）。
func (e *Engine) MarkViewed(ctx context.Context, recommendationID string) error {
	rec, err := e.getRec(ctx, recommendationID)
	if err != nil {
		return err
	}
	if !rec.MarkViewed(e.now()) {
		return nil
	}
	if err := e.recs.Update(ctx, rec); err != nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "update viewed: "+err.Error())
	}
	return nil
}

// Dismiss 把推荐流转为 dismissed，目标不想看到它。
func (e *Engine) Dismiss(ctx context.Context, recommendationID string) error {
	rec, err := e.getRec(ctx, recommendationID)
	if err != nil {
		return err
	}
	if rec.Status == core.StatusDismissed {
		return nil
	}
	rec.Status = core.StatusDismissed
	if err := e.recs.Update(ctx, rec); err != nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "update dismissed: "+err.Error())
	}
	return nil
}

func (e *Engine) getRec(ctx context.Context, id string) (*core.Recommendation, error) {
	rec, err := e.recs.Get(ctx, id)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound, "recommendation not found: "+id)
		}
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load recommendation: "+err.Error())
	}
	return rec, nil
}
