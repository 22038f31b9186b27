package engine

import (
	"context"

	"github.com/reelkit/reelkit/core"
)

// UpdateHistoryMetrics 给指标待回填的生成历史计算表现数据：
// 把历史行窗口内的推荐与它们的反馈做关联，算出浏览率/点击率/点赞率。
// 返回回填的历史行数；维护任务按小时级调用。
func (e *Engine) UpdateHistoryMetrics(ctx context.Context) (int, error) {
	now := e.now()
	pending, err := e.history.PendingMetrics(ctx, now.Add(-e.cfg.MetricsRefresh()))
	if err != nil {
		return 0, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load pending history: "+err.Error())
	}

	updated := 0
	for _, hist := range pending {
		recs, err := e.recs.ListWindow(ctx, hist.Subject, hist.Algorithm,
			hist.GeneratedAt, hist.GeneratedAt.Add(e.cfg.MetricsWindow()))
		if err != nil {
			return updated, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load window: "+err.Error())
		}
		if len(recs) == 0 {
			// 没有可统计的行也要盖回填时间戳，避免反复空扫
			t := now
			hist.MetricsUpdatedAt = &t
			if err := e.history.UpdateMetrics(ctx, hist); err != nil {
				return updated, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "update metrics: "+err.Error())
			}
			updated++
			continue
		}

		viewed, clicked, liked := 0, 0, 0
		for _, rec := range recs {
			if rec.ViewedAt != nil {
				viewed++
			}
			if rec.ClickedAt != nil {
				clicked++
			}
			rows, err := e.feedback.ByRecommendation(ctx, rec.ID)
			if err != nil {
				return updated, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "load feedback: "+err.Error())
			}
			for _, fb := range rows {
				if fb.Type == core.FeedbackLike {
					liked++
					break
				}
			}
		}

		total := float64(len(recs))
		hist.Total = len(recs)
		hist.ViewRate = float64(viewed) / total
		hist.ClickRate = float64(clicked) / total
		hist.LikeRate = float64(liked) / total
		t := now
		hist.MetricsUpdatedAt = &t
		if err := e.history.UpdateMetrics(ctx, hist); err != nil {
			return updated, core.NewDomainError(core.ModuleEngine, core.ErrorCodePersistenceFailure, "update metrics: "+err.Error())
		}
		updated++
	}
	if updated > 0 {
		e.log.Info("history metrics updated", "count", updated)
	}
	return updated, nil
}
