package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reelkit/reelkit/core"
)

// MemoryStore 是内存实现的领域存储，用于测试/开发/原型。
// 实现 core 层的全部存储接口；进程重启后数据丢失。
//
// 并发安全：单把 RWMutex 保护全部数据；SaveBatch 在同一临界区内
// 完成校验与写入，天然满足"整批落盘或整批失败"的约束。
type MemoryStore struct {
	mu sync.RWMutex

	content   map[string]*core.ContentItem
	contentID []string // 插入顺序，ListContent 输出稳定

	ratings   map[string]map[string]*core.RatingEvent // personID -> contentID -> 评分
	watchlist map[string][]*core.WatchlistEntry       // subject key -> 条目
	groups    map[string][]string                     // groupID -> 成员 personID

	personProfiles map[string]*core.PersonProfile
	groupProfiles  map[string]*core.GroupProfile

	recs      map[string]*core.Recommendation
	bySubject map[string][]string // subject key -> 推荐 ID（写入顺序）

	feedback map[string]map[string]*core.Feedback // recID -> personID -> 反馈

	history map[string]*core.GenerationHistory

	experiments map[string]*core.Experiment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		content:        make(map[string]*core.ContentItem),
		ratings:        make(map[string]map[string]*core.RatingEvent),
		watchlist:      make(map[string][]*core.WatchlistEntry),
		groups:         make(map[string][]string),
		personProfiles: make(map[string]*core.PersonProfile),
		groupProfiles:  make(map[string]*core.GroupProfile),
		recs:           make(map[string]*core.Recommendation),
		bySubject:      make(map[string][]string),
		feedback:       make(map[string]map[string]*core.Feedback),
		history:        make(map[string]*core.GenerationHistory),
		experiments:    make(map[string]*core.Experiment),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

// ---- 写入口（导入方/测试数据准备用） ----

// PutContent 写入或覆盖一条片库内容。
func (m *MemoryStore) PutContent(items ...*core.ContentItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if _, ok := m.content[it.ID]; !ok {
			m.contentID = append(m.contentID, it.ID)
		}
		m.content[it.ID] = it
	}
}

// PutRating 写入评分；同一 (person, content) 的旧评分被原地覆盖。
func (m *MemoryStore) PutRating(r *core.RatingEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byContent, ok := m.ratings[r.PersonID]
	if !ok {
		byContent = make(map[string]*core.RatingEvent)
		m.ratings[r.PersonID] = byContent
	}
	if old, ok := byContent[r.ContentID]; ok && r.CreatedAt.IsZero() {
		r.CreatedAt = old.CreatedAt
	}
	byContent[r.ContentID] = r
}

// PutWatchlist 追加一条待看清单条目。
func (m *MemoryStore) PutWatchlist(e *core.WatchlistEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.Subject.Key()
	m.watchlist[key] = append(m.watchlist[key], e)
}

// PutGroup 写入小组的成员列表（覆盖语义）。
func (m *MemoryStore) PutGroup(groupID string, memberIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[groupID] = append([]string(nil), memberIDs...)
}

// ---- CatalogStore ----

func (m *MemoryStore) GetContent(ctx context.Context, contentID string) (*core.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.content[contentID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return c, nil
}

func (m *MemoryStore) ListContent(ctx context.Context) ([]*core.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.ContentItem, 0, len(m.contentID))
	for _, id := range m.contentID {
		out = append(out, m.content[id])
	}
	return out, nil
}

// ---- RatingStore ----

func (m *MemoryStore) RatingsByPerson(ctx context.Context, personID string) ([]*core.RatingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byContent := m.ratings[personID]
	out := make([]*core.RatingEvent, 0, len(byContent))
	for _, r := range byContent {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContentID < out[j].ContentID })
	return out, nil
}

func (m *MemoryStore) RatingsForContents(ctx context.Context, contentIDs []string) ([]*core.RatingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]struct{}, len(contentIDs))
	for _, id := range contentIDs {
		want[id] = struct{}{}
	}
	var out []*core.RatingEvent
	persons := make([]string, 0, len(m.ratings))
	for p := range m.ratings {
		persons = append(persons, p)
	}
	sort.Strings(persons)
	for _, p := range persons {
		for _, r := range m.ratings[p] {
			if _, ok := want[r.ContentID]; ok {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) RecentRatingStats(ctx context.Context, since time.Time) (map[string]core.RatingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]core.RatingStats)
	for _, byContent := range m.ratings {
		for _, r := range byContent {
			at := r.UpdatedAt
			if at.IsZero() {
				at = r.CreatedAt
			}
			if at.Before(since) {
				continue
			}
			s := stats[r.ContentID]
			s.Count++
			s.Sum += r.Value
			stats[r.ContentID] = s
		}
	}
	return stats, nil
}

// ---- WatchlistStore ----

func (m *MemoryStore) EntriesBySubject(ctx context.Context, subject core.Subject) ([]*core.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.watchlist[subject.Key()]
	return append([]*core.WatchlistEntry(nil), entries...), nil
}

func (m *MemoryStore) RecentAddCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, entries := range m.watchlist {
		for _, e := range entries {
			if e.AddedAt.Before(since) {
				continue
			}
			counts[e.ContentID]++
		}
	}
	return counts, nil
}

// ---- GroupStore ----

func (m *MemoryStore) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.groups[groupID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return append([]string(nil), members...), nil
}

// ---- ProfileStore ----

func (m *MemoryStore) GetPersonProfile(ctx context.Context, personID string) (*core.PersonProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.personProfiles[personID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SavePersonProfile(ctx context.Context, p *core.PersonProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.personProfiles[p.PersonID] = &cp
	return nil
}

func (m *MemoryStore) GetGroupProfile(ctx context.Context, groupID string) (*core.GroupProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.groupProfiles[groupID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SaveGroupProfile(ctx context.Context, p *core.GroupProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.groupProfiles[p.GroupID] = &cp
	return nil
}

// ---- RecommendationStore ----

func (m *MemoryStore) Get(ctx context.Context, id string) (*core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return cloneRec(rec), nil
}

func (m *MemoryStore) SubjectRecommendations(ctx context.Context, subject core.Subject) ([]*core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.Recommendation
	for _, id := range m.bySubject[subject.Key()] {
		out = append(out, cloneRec(m.recs[id]))
	}
	return out, nil
}

func (m *MemoryStore) ActiveBySubject(ctx context.Context, subject core.Subject, now time.Time) ([]*core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.Recommendation
	for _, id := range m.bySubject[subject.Key()] {
		if rec := m.recs[id]; rec.ActiveAt(now) {
			out = append(out, cloneRec(rec))
		}
	}
	return out, nil
}

func (m *MemoryStore) NewestBySubject(ctx context.Context, subject core.Subject) (*core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *core.Recommendation
	for _, id := range m.bySubject[subject.Key()] {
		rec := m.recs[id]
		if rec.Status != core.StatusActive {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
			newest = rec
		}
	}
	if newest == nil {
		return nil, core.ErrStoreNotFound
	}
	return cloneRec(newest), nil
}

func (m *MemoryStore) SaveBatch(ctx context.Context, recs []*core.Recommendation, hist *core.GenerationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 先整批校验唯一性约束，再写入：不留半截批次
	for _, rec := range recs {
		for _, id := range m.bySubject[rec.Subject.Key()] {
			existing := m.recs[id]
			if existing.Status == core.StatusActive && existing.ContentID == rec.ContentID {
				return core.ErrDuplicateActive
			}
		}
	}
	for _, rec := range recs {
		cp := cloneRec(rec)
		m.recs[cp.ID] = cp
		key := cp.Subject.Key()
		m.bySubject[key] = append(m.bySubject[key], cp.ID)
	}
	if hist != nil {
		cp := *hist
		m.history[hist.ID] = &cp
	}
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, rec *core.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.ID]; !ok {
		return core.ErrStoreNotFound
	}
	m.recs[rec.ID] = cloneRec(rec)
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, ids []string, status core.RecommendationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		rec, ok := m.recs[id]
		if !ok {
			return core.ErrStoreNotFound
		}
		rec.Status = status
	}
	return nil
}

func (m *MemoryStore) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.recs {
		if rec.Status == core.StatusActive && !rec.ExpiresAt.After(now) {
			rec.Status = core.StatusExpired
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListWindow(ctx context.Context, subject core.Subject, algorithm string, from, to time.Time) ([]*core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.Recommendation
	for _, id := range m.bySubject[subject.Key()] {
		rec := m.recs[id]
		if rec.Algorithm != algorithm {
			continue
		}
		if rec.CreatedAt.Before(from) || !rec.CreatedAt.Before(to) {
			continue
		}
		out = append(out, cloneRec(rec))
	}
	return out, nil
}

func (m *MemoryStore) DeleteStale(ctx context.Context, now time.Time, retention, dismissedRetention time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-retention)
	dismissedCutoff := now.Add(-dismissedRetention)
	n := 0
	for id, rec := range m.recs {
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
		delete(m.recs, id)
		delete(m.feedback, id)
		key := rec.Subject.Key()
		m.bySubject[key] = removeID(m.bySubject[key], id)
		n++
	}
	return n, nil
}

// ---- FeedbackStore ----

func (m *MemoryStore) Upsert(ctx context.Context, fb *core.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[fb.RecommendationID]; !ok {
		return core.ErrStoreNotFound
	}
	byPerson, ok := m.feedback[fb.RecommendationID]
	if !ok {
		byPerson = make(map[string]*core.Feedback)
		m.feedback[fb.RecommendationID] = byPerson
	}
	cp := *fb
	if old, exists := byPerson[fb.PersonID]; exists {
		// 覆盖类型/评论，保留行身份
		cp.ID = old.ID
	}
	byPerson[fb.PersonID] = &cp
	return nil
}

func (m *MemoryStore) ByRecommendation(ctx context.Context, recommendationID string) ([]*core.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byPerson := m.feedback[recommendationID]
	out := make([]*core.Feedback, 0, len(byPerson))
	for _, fb := range byPerson {
		cp := *fb
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// ---- HistoryStore ----

func (m *MemoryStore) PendingMetrics(ctx context.Context, olderThan time.Time) ([]*core.GenerationHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.GenerationHistory
	for _, h := range m.history {
		// 从未回填过的行按生成时间判断，同样要等满一个刷新间隔
		last := h.GeneratedAt
		if h.MetricsUpdatedAt != nil {
			last = *h.MetricsUpdatedAt
		}
		if last.Before(olderThan) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateMetrics(ctx context.Context, hist *core.GenerationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[hist.ID]; !ok {
		return core.ErrStoreNotFound
	}
	cp := *hist
	m.history[hist.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, h := range m.history {
		if h.GeneratedAt.Before(cutoff) {
			delete(m.history, id)
			n++
		}
	}
	return n, nil
}

// ---- ExperimentStore ----

func (m *MemoryStore) GetExperiment(ctx context.Context, id string) (*core.Experiment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.experiments[id]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	cp := *e
	cp.Split = append([]core.VariantSplit(nil), e.Split...)
	return &cp, nil
}

func (m *MemoryStore) ListExperiments(ctx context.Context) ([]*core.Experiment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Experiment, 0, len(m.experiments))
	for _, e := range m.experiments {
		cp := *e
		cp.Split = append([]core.VariantSplit(nil), e.Split...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].ID, out[j].ID) < 0 })
	return out, nil
}

func (m *MemoryStore) SaveExperiment(ctx context.Context, e *core.Experiment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.Split = append([]core.VariantSplit(nil), e.Split...)
	m.experiments[e.ID] = &cp
	return nil
}

func cloneRec(rec *core.Recommendation) *core.Recommendation {
	cp := *rec
	if rec.ViewedAt != nil {
		t := *rec.ViewedAt
		cp.ViewedAt = &t
	}
	if rec.ClickedAt != nil {
		t := *rec.ClickedAt
		cp.ClickedAt = &t
	}
	return &cp
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
