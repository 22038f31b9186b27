// Package profile 把目标的原始信号（评分、待看清单、成员关系）
// 归纳为带权重的偏好画像，供各打分器消费。
//
// 构建是惰性的：读取时发现画像缺失或过期才重建，重建结果落盘。
package profile

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelkit/reelkit/config"
	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/logx"
)

// memberFanout 限制小组成员画像并发重建的上限
const memberFanout = 8

// PreferenceSource 是冷启动的外部偏好来源（如特征平台）。
// 仅在目标没有任何本地信号时咨询；失败只降级，不阻断构建。
type PreferenceSource interface {
	GenreSeeds(ctx context.Context, personID string) (map[string]float64, error)
}

// Builder 构建并缓存个人与小组的偏好画像。
type Builder struct {
	Catalog   core.CatalogStore
	Ratings   core.RatingStore
	Watchlist core.WatchlistStore
	Groups    core.GroupStore
	Profiles  core.ProfileStore

	// Seeds 可为 nil；非 nil 时用于零信号目标的冷启动
	Seeds PreferenceSource

	Config *config.Config
	Logger *logx.Logger

	// Now 可注入的时钟，nil 时使用 time.Now
	Now func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) log() *logx.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return logx.Nop()
}

// Resolve 返回目标的画像：个人走 GetOrBuildPerson，小组走 GetOrBuildGroup。
func (b *Builder) Resolve(ctx context.Context, subject core.Subject) (core.Profile, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if subject.IsGroup() {
		return b.GetOrBuildGroup(ctx, subject.GroupID)
	}
	return b.GetOrBuildPerson(ctx, subject.PersonID)
}

// GetOrBuildPerson 读取个人画像，缺失或超过有效期时重建并落盘。
func (b *Builder) GetOrBuildPerson(ctx context.Context, personID string) (*core.PersonProfile, error) {
	existing, err := b.Profiles.GetPersonProfile(ctx, personID)
	switch {
	case err == nil:
		if !core.IsStale(existing, b.Config.ProfileMaxAge(), b.now()) {
			return existing, nil
		}
	case !core.IsStoreNotFound(err):
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load person profile: "+err.Error())
	}

	built, err := b.BuildPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := b.Profiles.SavePersonProfile(ctx, built); err != nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "save person profile: "+err.Error())
	}
	return built, nil
}

// BuildPerson 从评分与待看清单构建个人画像，不落盘。
//
// 规则：
//   - 每条评分按 rating/满分 归一化为权重，对内容的每个类型取滚动平均
//   - 待看条目按固定权重折算，与已有权重取均值合并
//   - 置信度 = min(1, (评分占比·评分数 + 待看占比·待看数) / 信号目标量)
func (b *Builder) BuildPerson(ctx context.Context, personID string) (*core.PersonProfile, error) {
	ratings, err := b.Ratings.RatingsByPerson(ctx, personID)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load ratings: "+err.Error())
	}
	entries, err := b.Watchlist.EntriesBySubject(ctx, core.PersonSubject(personID))
	if err != nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load watchlist: "+err.Error())
	}

	p := core.NewPersonProfile(personID)
	genreAcc := newRunningAvg()
	typeAcc := newRunningAvg()

	for _, r := range ratings {
		content, err := b.Catalog.GetContent(ctx, r.ContentID)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue // 内容已下架，跳过该信号
			}
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load content: "+err.Error())
		}
		weight := r.Value / b.Config.RatingScale
		for _, g := range content.Genres {
			genreAcc.add(g, weight)
		}
		typeAcc.add(content.Type, weight)
	}
	p.Genres = genreAcc.averages()
	p.Types = typeAcc.averages()

	for _, e := range entries {
		content, err := b.Catalog.GetContent(ctx, e.ContentID)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load content: "+err.Error())
		}
		w := b.Config.Profile.WatchlistWeight
		for _, g := range content.Genres {
			mergeWeight(p.Genres, g, w)
		}
		mergeWeight(p.Types, content.Type, w)
	}

	pc := b.Config.Profile
	signal := float64(len(ratings))*pc.RatingShare + float64(len(entries))*pc.WatchlistShare
	p.ConfidenceScore = min(1.0, signal/pc.SignalTarget)
	p.RatingCount = len(ratings)
	p.WatchlistCount = len(entries)
	p.UpdatedAt = b.now()

	if len(ratings) == 0 && len(entries) == 0 && b.Seeds != nil {
		b.seedColdStart(ctx, p)
	}
	return p, nil
}

// seedColdStart 用外部特征平台的偏好种子填充零信号画像。
func (b *Builder) seedColdStart(ctx context.Context, p *core.PersonProfile) {
	seeds, err := b.Seeds.GenreSeeds(ctx, p.PersonID)
	if err != nil {
		b.log().Warn("preference seed lookup failed", "person_id", p.PersonID, "err", err)
		return
	}
	if len(seeds) == 0 {
		return
	}
	p.Genres = seeds
	b.log().Debug("cold start profile seeded", "person_id", p.PersonID, "genres", len(seeds))
}

// GetOrBuildGroup 读取小组画像，缺失或超过有效期时重建并落盘。
func (b *Builder) GetOrBuildGroup(ctx context.Context, groupID string) (*core.GroupProfile, error) {
	existing, err := b.Profiles.GetGroupProfile(ctx, groupID)
	switch {
	case err == nil:
		if !core.IsStale(existing, b.Config.ProfileMaxAge(), b.now()) {
			return existing, nil
		}
	case !core.IsStoreNotFound(err):
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load group profile: "+err.Error())
	}

	built, err := b.BuildGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := b.Profiles.SaveGroupProfile(ctx, built); err != nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "save group profile: "+err.Error())
	}
	return built, nil
}

// BuildGroup 取全体成员的个人画像求均值，不落盘。
// 成员画像并发解析；小组置信度只看成员规模。
func (b *Builder) BuildGroup(ctx context.Context, groupID string) (*core.GroupProfile, error) {
	memberIDs, err := b.Groups.MemberIDs(ctx, groupID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeNotFound, "group not found: "+groupID)
		}
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load members: "+err.Error())
	}

	profiles, err := b.memberProfiles(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	gp := core.NewGroupProfile(groupID)
	genreAcc := newRunningAvg()
	typeAcc := newRunningAvg()
	for _, mp := range profiles {
		for g, w := range mp.Genres {
			genreAcc.add(g, w)
		}
		for t, w := range mp.Types {
			typeAcc.add(t, w)
		}
	}
	gp.Genres = genreAcc.averages()
	gp.Types = typeAcc.averages()
	gp.MemberCount = len(memberIDs)
	gp.ConfidenceScore = min(1.0, float64(len(memberIDs))/b.Config.Profile.GroupMemberTarget)
	gp.UpdatedAt = b.now()
	return gp, nil
}

// MemberProfiles 返回小组全体成员的个人画像（共识打分器的输入）。
func (b *Builder) MemberProfiles(ctx context.Context, groupID string) ([]*core.PersonProfile, error) {
	memberIDs, err := b.Groups.MemberIDs(ctx, groupID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeNotFound, "group not found: "+groupID)
		}
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodePersistenceFailure, "load members: "+err.Error())
	}
	return b.memberProfiles(ctx, memberIDs)
}

func (b *Builder) memberProfiles(ctx context.Context, memberIDs []string) ([]*core.PersonProfile, error) {
	profiles := make([]*core.PersonProfile, len(memberIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(memberFanout)
	for i, id := range memberIDs {
		i, id := i, id
		eg.Go(func() error {
			mp, err := b.GetOrBuildPerson(egCtx, id)
			if err != nil {
				return err
			}
			profiles[i] = mp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// runningAvg 按 key 累积样本并求均值
type runningAvg struct {
	sum   map[string]float64
	count map[string]int
}

func newRunningAvg() *runningAvg {
	return &runningAvg{sum: make(map[string]float64), count: make(map[string]int)}
}

func (a *runningAvg) add(key string, v float64) {
	if key == "" {
		return
	}
	a.sum[key] += v
	a.count[key]++
}

func (a *runningAvg) averages() map[string]float64 {
	out := make(map[string]float64, len(a.sum))
	for k, s := range a.sum {
		out[k] = s / float64(a.count[k])
	}
	return out
}

// mergeWeight 合并待看权重：已有取均值，没有直接写入
func mergeWeight(m map[string]float64, key string, w float64) {
	if key == "" {
		return
	}
	if existing, ok := m[key]; ok {
		m[key] = (existing + w) / 2
	} else {
		m[key] = w
	}
}
