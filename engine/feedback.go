package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/reelkit/reelkit/core"
)

// RecordFeedback 记录个人对推荐的反馈，按 (recommendation, person) 覆盖写。
// clicked 反馈额外落点击时间戳，且只落一次（首次生效）。
// 存储失败返回 FEEDBACK_FAILURE，不做兜底，重试与否由调用方决定。
func (e *Engine) RecordFeedback(ctx context.Context, recommendationID, personID string, fbType core.FeedbackType, comment string) error {
	if !core.ValidFeedbackType(fbType) {
		return core.NewDomainError(core.ModuleFeedback, core.ErrorCodeInvalidInput, "invalid feedback type: "+string(fbType))
	}
	if personID == "" {
		return core.NewDomainError(core.ModuleFeedback, core.ErrorCodeInvalidInput, "person id required")
	}
	now := e.now()

	rec, err := e.getRec(ctx, recommendationID)
	if err != nil {
		return err
	}

	fb := &core.Feedback{
		ID:               uuid.NewString(),
		RecommendationID: recommendationID,
		PersonID:         personID,
		Type:             fbType,
		Comment:          comment,
		CreatedAt:        now,
	}
	if err := e.feedback.Upsert(ctx, fb); err != nil {
		return core.NewDomainError(core.ModuleFeedback, core.ErrorCodeFeedbackFailure, "upsert feedback: "+err.Error())
	}

	if fbType == core.FeedbackClicked {
		if rec.MarkClicked(now) {
			if err := e.recs.Update(ctx, rec); err != nil {
				return core.NewDomainError(core.ModuleFeedback, core.ErrorCodeFeedbackFailure, "update clicked: "+err.Error())
			}
		}
	}

	e.log.Debug("feedback recorded",
		"recommendation_id", recommendationID,
		"person_id", personID,
		"type", string(fbType),
	)
	return nil
}

// FeedbackSummary 读取一条推荐的反馈聚合（读时计算，不落盘）。
func (e *Engine) FeedbackSummary(ctx context.Context, recommendationID string) (core.FeedbackSummary, error) {
	if _, err := e.getRec(ctx, recommendationID); err != nil {
		return core.FeedbackSummary{}, err
	}
	rows, err := e.feedback.ByRecommendation(ctx, recommendationID)
	if err != nil {
		return core.FeedbackSummary{}, core.NewDomainError(core.ModuleFeedback, core.ErrorCodePersistenceFailure, "load feedback: "+err.Error())
	}
	return core.SummarizeFeedback(rows), nil
}
