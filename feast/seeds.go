// Package feast 对接 Feast 在线特征存储，为零信号目标提供题材偏好种子。
// 构建画像时发现目标既没有评分也没有待看清单，才会咨询这里；
// 查询失败只会让画像退化为空，不阻断推荐链路。
package feast

import (
	"context"
	"fmt"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/reelkit/reelkit/profile"
)

const (
	// entityKey 在线查询的实体键
	entityKey = "viewer_id"
	// featureView 承载题材偏好权重的特征视图
	featureView = "viewer_genre_affinity"
)

// SeedSource 通过官方 Feast Go SDK 的 gRPC 客户端读取题材偏好种子。
// 每个题材对应一个数值特征 viewer_genre_affinity:<题材小写>。
type SeedSource struct {
	client  *feastsdk.GrpcClient
	project string
	genres  []string
}

var _ profile.PreferenceSource = (*SeedSource)(nil)

// New 连接 Feast Feature Server。port 为 0 时用默认 gRPC 端口 6565。
// genres 是要查询的题材集合，为空时 GenreSeeds 恒返回空。
func New(host string, port int, project string, genres []string) (*SeedSource, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast %s:%d: %w", host, port, err)
	}
	return &SeedSource{client: client, project: project, genres: genres}, nil
}

// GenreSeeds 查询某个人的题材偏好权重。缺失或为零的特征不出现在结果里。
func (s *SeedSource) GenreSeeds(ctx context.Context, personID string) (map[string]float64, error) {
	if len(s.genres) == 0 {
		return nil, nil
	}
	features := make([]string, len(s.genres))
	for i, g := range s.genres {
		features[i] = featureView + ":" + featureName(g)
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: []feastsdk.Row{{entityKey: feastsdk.StrVal(personID)}},
		Project:  s.project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast online features: %w", err)
	}
	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	out := make(map[string]float64, len(s.genres))
	for i, g := range s.genres {
		if w := asWeight(row[features[i]]); w > 0 {
			out[g] = w
		}
	}
	return out, nil
}

// Close 释放客户端；底层 gRPC 连接由 SDK 管理。
func (s *SeedSource) Close() error {
	s.client = nil
	return nil
}

// featureName 把题材名转成特征命名风格："Science Fiction" -> "science_fiction"
func featureName(genre string) string {
	return strings.ToLower(strings.ReplaceAll(genre, " ", "_"))
}

// asWeight 提取数值特征；缺失或非数值按 0 处理
func asWeight(v *types.Value) float64 {
	if v == nil {
		return 0
	}
	if d := v.GetDoubleVal(); d != 0 {
		return d
	}
	if f := v.GetFloatVal(); f != 0 {
		return float64(f)
	}
	if n := v.GetInt64Val(); n != 0 {
		return float64(n)
	}
	return 0
}
