package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelkit/reelkit/core"
)

// RedisStore 是 Redis 实现的领域存储，生产环境常用。
//
// 键布局（{p} 为命名空间前缀）：
//   - {p}:content                 hash  contentID -> ContentItem JSON
//   - {p}:rating:{personID}       hash  contentID -> RatingEvent JSON
//   - {p}:rating:times            zset  member "person|content"，score 为评分时间
//   - {p}:watchlist:{subjectKey}  list  WatchlistEntry JSON
//   - {p}:watchlist:times         zset  member "subjectKey|content"，score 为加入时间
//   - {p}:groups                  hash  groupID -> 成员 ID 数组 JSON
//   - {p}:profile:person          hash  personID -> PersonProfile JSON
//   - {p}:profile:group           hash  groupID -> GroupProfile JSON
//   - {p}:recs                    hash  recID -> Recommendation JSON
//   - {p}:rec:subject:{key}       zset  member recID，score 为 created_at
//   - {p}:rec:expiry              zset  member recID，score 为 expires_at
//   - {p}:feedback:{recID}        hash  personID -> Feedback JSON
//   - {p}:history                 hash  historyID -> GenerationHistory JSON
//   - {p}:experiments             hash  experimentID -> Experiment JSON
//
// 写入一个生成批次用 TxPipeline：推荐行、索引与历史行同一事务落盘。
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = "reelkit"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) key(parts ...string) string {
	return r.prefix + ":" + strings.Join(parts, ":")
}

// ---- CatalogStore ----

func (r *RedisStore) GetContent(ctx context.Context, contentID string) (*core.ContentItem, error) {
	data, err := r.client.HGet(ctx, r.key("content"), contentID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var item core.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode content %s: %w", contentID, err)
	}
	return &item, nil
}

func (r *RedisStore) ListContent(ctx context.Context) ([]*core.ContentItem, error) {
	vals, err := r.client.HGetAll(ctx, r.key("content")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.ContentItem, 0, len(vals))
	for id, raw := range vals {
		var item core.ContentItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode content %s: %w", id, err)
		}
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutContent 写入或覆盖片库内容（导入方调用）。
func (r *RedisStore) PutContent(ctx context.Context, items ...*core.ContentItem) error {
	pipe := r.client.Pipeline()
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, r.key("content"), it.ID, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ---- RatingStore ----

func (r *RedisStore) PutRating(ctx context.Context, ev *core.RatingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	at := ev.UpdatedAt
	if at.IsZero() {
		at = ev.CreatedAt
	}
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key("rating", ev.PersonID), ev.ContentID, data)
	pipe.ZAdd(ctx, r.key("rating", "times"), redis.Z{
		Score:  float64(at.Unix()),
		Member: ev.PersonID + "|" + ev.ContentID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) RatingsByPerson(ctx context.Context, personID string) ([]*core.RatingEvent, error) {
	vals, err := r.client.HGetAll(ctx, r.key("rating", personID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.RatingEvent, 0, len(vals))
	for contentID, raw := range vals {
		var ev core.RatingEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("decode rating %s/%s: %w", personID, contentID, err)
		}
		out = append(out, &ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContentID < out[j].ContentID })
	return out, nil
}

func (r *RedisStore) RatingsForContents(ctx context.Context, contentIDs []string) ([]*core.RatingEvent, error) {
	want := make(map[string]struct{}, len(contentIDs))
	for _, id := range contentIDs {
		want[id] = struct{}{}
	}
	// rating:times 覆盖全量评分，按 member 里的 contentID 过滤后批量回表
	members, err := r.client.ZRange(ctx, r.key("rating", "times"), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	type ref struct{ person, content string }
	var refs []ref
	for _, m := range members {
		person, content, ok := splitMember(m)
		if !ok {
			continue
		}
		if _, hit := want[content]; hit {
			refs = append(refs, ref{person, content})
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(refs))
	for i, rf := range refs {
		cmds[i] = pipe.HGet(ctx, r.key("rating", rf.person), rf.content)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	out := make([]*core.RatingEvent, 0, len(refs))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var ev core.RatingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode rating %s/%s: %w", refs[i].person, refs[i].content, err)
		}
		out = append(out, &ev)
	}
	return out, nil
}

func (r *RedisStore) RecentRatingStats(ctx context.Context, since time.Time) (map[string]core.RatingStats, error) {
	members, err := r.client.ZRangeByScore(ctx, r.key("rating", "times"), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]core.RatingStats)
	if len(members) == 0 {
		return stats, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(members))
	contents := make([]string, 0, len(members))
	for _, m := range members {
		person, content, ok := splitMember(m)
		if !ok {
			continue
		}
		cmds = append(cmds, pipe.HGet(ctx, r.key("rating", person), content))
		contents = append(contents, content)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var ev core.RatingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		s := stats[contents[i]]
		s.Count++
		s.Sum += ev.Value
		stats[contents[i]] = s
	}
	return stats, nil
}

// ---- WatchlistStore ----

func (r *RedisStore) PutWatchlist(ctx context.Context, e *core.WatchlistEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.key("watchlist", e.Subject.Key()), data)
	pipe.ZAdd(ctx, r.key("watchlist", "times"), redis.Z{
		Score:  float64(e.AddedAt.Unix()),
		Member: e.Subject.Key() + "|" + e.ContentID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) EntriesBySubject(ctx context.Context, subject core.Subject) ([]*core.WatchlistEntry, error) {
	vals, err := r.client.LRange(ctx, r.key("watchlist", subject.Key()), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.WatchlistEntry, 0, len(vals))
	for _, raw := range vals {
		var e core.WatchlistEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode watchlist entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, nil
}

func (r *RedisStore) RecentAddCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	members, err := r.client.ZRangeByScore(ctx, r.key("watchlist", "times"), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, m := range members {
		if _, content, ok := splitMember(m); ok {
			counts[content]++
		}
	}
	return counts, nil
}

// ---- GroupStore ----

func (r *RedisStore) PutGroup(ctx context.Context, groupID string, memberIDs ...string) error {
	data, err := json.Marshal(memberIDs)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("groups"), groupID, data).Err()
}

func (r *RedisStore) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	data, err := r.client.HGet(ctx, r.key("groups"), groupID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("decode group %s: %w", groupID, err)
	}
	return members, nil
}

// ---- ProfileStore ----

func (r *RedisStore) GetPersonProfile(ctx context.Context, personID string) (*core.PersonProfile, error) {
	data, err := r.client.HGet(ctx, r.key("profile", "person"), personID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var p core.PersonProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode person profile %s: %w", personID, err)
	}
	return &p, nil
}

func (r *RedisStore) SavePersonProfile(ctx context.Context, p *core.PersonProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("profile", "person"), p.PersonID, data).Err()
}

func (r *RedisStore) GetGroupProfile(ctx context.Context, groupID string) (*core.GroupProfile, error) {
	data, err := r.client.HGet(ctx, r.key("profile", "group"), groupID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var p core.GroupProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode group profile %s: %w", groupID, err)
	}
	return &p, nil
}

func (r *RedisStore) SaveGroupProfile(ctx context.Context, p *core.GroupProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("profile", "group"), p.GroupID, data).Err()
}

// ---- RecommendationStore ----

func (r *RedisStore) Get(ctx context.Context, id string) (*core.Recommendation, error) {
	data, err := r.client.HGet(ctx, r.key("recs"), id).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRec(data)
}

func (r *RedisStore) SubjectRecommendations(ctx context.Context, subject core.Subject) ([]*core.Recommendation, error) {
	ids, err := r.client.ZRange(ctx, r.key("rec", "subject", subject.Key()), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.loadRecs(ctx, ids)
}

func (r *RedisStore) ActiveBySubject(ctx context.Context, subject core.Subject, now time.Time) ([]*core.Recommendation, error) {
	recs, err := r.SubjectRecommendations(ctx, subject)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.ActiveAt(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisStore) NewestBySubject(ctx context.Context, subject core.Subject) (*core.Recommendation, error) {
	// subject zset 按 created_at 排序，从新到旧找第一条 active
	ids, err := r.client.ZRevRange(ctx, r.key("rec", "subject", subject.Key()), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		if rec.Status == core.StatusActive {
			return rec, nil
		}
	}
	return nil, core.ErrStoreNotFound
}

func (r *RedisStore) SaveBatch(ctx context.Context, recs []*core.Recommendation, hist *core.GenerationHistory) error {
	// 先校验活跃集的 (subject, content) 唯一性，再用事务一次写入
	bySubject := make(map[string][]*core.Recommendation)
	for _, rec := range recs {
		bySubject[rec.Subject.Key()] = append(bySubject[rec.Subject.Key()], rec)
	}
	for _, batch := range bySubject {
		active, err := r.ActiveBySubject(ctx, batch[0].Subject, time.Now())
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, len(active))
		for _, rec := range active {
			existing[rec.ContentID] = struct{}{}
		}
		for _, rec := range batch {
			if _, dup := existing[rec.ContentID]; dup {
				return core.ErrDuplicateActive
			}
		}
	}

	pipe := r.client.TxPipeline()
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, r.key("recs"), rec.ID, data)
		pipe.ZAdd(ctx, r.key("rec", "subject", rec.Subject.Key()), redis.Z{
			Score:  float64(rec.CreatedAt.Unix()),
			Member: rec.ID,
		})
		pipe.ZAdd(ctx, r.key("rec", "expiry"), redis.Z{
			Score:  float64(rec.ExpiresAt.Unix()),
			Member: rec.ID,
		})
	}
	if hist != nil {
		data, err := json.Marshal(hist)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, r.key("history"), hist.ID, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Update(ctx context.Context, rec *core.Recommendation) error {
	exists, err := r.client.HExists(ctx, r.key("recs"), rec.ID).Result()
	if err != nil {
		return err
	}
	if !exists {
		return core.ErrStoreNotFound
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("recs"), rec.ID, data).Err()
}

func (r *RedisStore) UpdateStatus(ctx context.Context, ids []string, status core.RecommendationStatus) error {
	recs, err := r.loadRecs(ctx, ids)
	if err != nil {
		return err
	}
	if len(recs) != len(ids) {
		return core.ErrStoreNotFound
	}
	pipe := r.client.TxPipeline()
	for _, rec := range recs {
		rec.Status = status
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, r.key("recs"), rec.ID, data)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.key("rec", "expiry"), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return n, err
		}
		if rec.Status != core.StatusActive {
			continue
		}
		rec.Status = core.StatusExpired
		if err := r.Update(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *RedisStore) ListWindow(ctx context.Context, subject core.Subject, algorithm string, from, to time.Time) ([]*core.Recommendation, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.key("rec", "subject", subject.Key()), &redis.ZRangeBy{
		Min: strconv.FormatInt(from.Unix(), 10),
		Max: "(" + strconv.FormatInt(to.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	recs, err := r.loadRecs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.Algorithm == algorithm {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisStore) DeleteStale(ctx context.Context, now time.Time, retention, dismissedRetention time.Duration) (int, error) {
	vals, err := r.client.HGetAll(ctx, r.key("recs")).Result()
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-retention)
	dismissedCutoff := now.Add(-dismissedRetention)
	pipe := r.client.TxPipeline()
	n := 0
	for id, raw := range vals {
		rec, err := decodeRec([]byte(raw))
		if err != nil {
			return n, err
		}
		drop := false
		switch rec.Status {
		case core.StatusExpired, core.StatusArchived:
			drop = rec.CreatedAt.Before(cutoff)
		case core.StatusDismissed:
			drop = rec.CreatedAt.Before(dismissedCutoff)
		}
		if !drop {
			continue
		}
		pipe.HDel(ctx, r.key("recs"), id)
		pipe.ZRem(ctx, r.key("rec", "subject", rec.Subject.Key()), id)
		pipe.ZRem(ctx, r.key("rec", "expiry"), id)
		pipe.Del(ctx, r.key("feedback", id))
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *RedisStore) loadRecs(ctx context.Context, ids []string) ([]*core.Recommendation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := r.client.HMGet(ctx, r.key("recs"), ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Recommendation, 0, len(ids))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRec([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ---- FeedbackStore ----

func (r *RedisStore) Upsert(ctx context.Context, fb *core.Feedback) error {
	exists, err := r.client.HExists(ctx, r.key("recs"), fb.RecommendationID).Result()
	if err != nil {
		return err
	}
	if !exists {
		return core.ErrStoreNotFound
	}
	key := r.key("feedback", fb.RecommendationID)
	old, err := r.client.HGet(ctx, key, fb.PersonID).Bytes()
	if err != nil && err != redis.Nil {
		return err
	}
	cp := *fb
	if err == nil {
		var prev core.Feedback
		if jsonErr := json.Unmarshal(old, &prev); jsonErr == nil {
			cp.ID = prev.ID
		}
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, key, fb.PersonID, data).Err()
}

func (r *RedisStore) ByRecommendation(ctx context.Context, recommendationID string) ([]*core.Feedback, error) {
	vals, err := r.client.HGetAll(ctx, r.key("feedback", recommendationID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Feedback, 0, len(vals))
	for personID, raw := range vals {
		var fb core.Feedback
		if err := json.Unmarshal([]byte(raw), &fb); err != nil {
			return nil, fmt.Errorf("decode feedback %s/%s: %w", recommendationID, personID, err)
		}
		out = append(out, &fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// ---- HistoryStore ----

func (r *RedisStore) PendingMetrics(ctx context.Context, olderThan time.Time) ([]*core.GenerationHistory, error) {
	vals, err := r.client.HGetAll(ctx, r.key("history")).Result()
	if err != nil {
		return nil, err
	}
	var out []*core.GenerationHistory
	for id, raw := range vals {
		var h core.GenerationHistory
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", id, err)
		}
		last := h.GeneratedAt
		if h.MetricsUpdatedAt != nil {
			last = *h.MetricsUpdatedAt
		}
		if last.Before(olderThan) {
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

func (r *RedisStore) UpdateMetrics(ctx context.Context, hist *core.GenerationHistory) error {
	exists, err := r.client.HExists(ctx, r.key("history"), hist.ID).Result()
	if err != nil {
		return err
	}
	if !exists {
		return core.ErrStoreNotFound
	}
	data, err := json.Marshal(hist)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("history"), hist.ID, data).Err()
}

func (r *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	vals, err := r.client.HGetAll(ctx, r.key("history")).Result()
	if err != nil {
		return 0, err
	}
	pipe := r.client.Pipeline()
	n := 0
	for id, raw := range vals {
		var h core.GenerationHistory
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			continue
		}
		if h.GeneratedAt.Before(cutoff) {
			pipe.HDel(ctx, r.key("history"), id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// ---- ExperimentStore ----

func (r *RedisStore) GetExperiment(ctx context.Context, id string) (*core.Experiment, error) {
	data, err := r.client.HGet(ctx, r.key("experiments"), id).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var e core.Experiment
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode experiment %s: %w", id, err)
	}
	return &e, nil
}

func (r *RedisStore) ListExperiments(ctx context.Context) ([]*core.Experiment, error) {
	vals, err := r.client.HGetAll(ctx, r.key("experiments")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Experiment, 0, len(vals))
	for id, raw := range vals {
		var e core.Experiment
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode experiment %s: %w", id, err)
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RedisStore) SaveExperiment(ctx context.Context, e *core.Experiment) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key("experiments"), e.ID, data).Err()
}

func decodeRec(data []byte) (*core.Recommendation, error) {
	var rec core.Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode recommendation: %w", err)
	}
	return &rec, nil
}

func splitMember(m string) (left, right string, ok bool) {
	i := strings.LastIndex(m, "|")
	if i < 0 {
		return "", "", false
	}
	return m[:i], m[i+1:], true
}
