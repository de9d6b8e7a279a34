package feature

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pkg/logger"
)

// FeastSource 从 Feast Feature Server 的在线存储拉取车辆特征向量，
// 供引擎初始化时注册到 SimilarityProvider。
// 适合特征工程在离线侧完成、向量已物化到在线存储的部署形态。
//
// 特征名采用 Feast 的 "<feature_view>:<feature>" 形式，例如
// "vehicle_stats:price_norm"；实体 key 默认 "vehicle_id"。
type FeastSource struct {
	client *feastsdk.GrpcClient

	Project   string
	Features  []string
	EntityKey string

	// BatchSize 每次请求的实体条数，避免单请求过大
	BatchSize int
}

// NewFeastSource 连接 Feast Feature Server（gRPC）。
func NewFeastSource(host string, port int, project string, features []string) (*FeastSource, error) {
	if port == 0 {
		port = 6565 // Feast 默认 gRPC 端口
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feast source: features are required")
	}

	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast source: connect %s:%d: %w", host, port, err)
	}

	return &FeastSource{
		client:    client,
		Project:   project,
		Features:  features,
		EntityKey: "vehicle_id",
		BatchSize: 100,
	}, nil
}

func (s *FeastSource) Name() string { return "feature.feast" }

func (s *FeastSource) Vectors(
	ctx context.Context,
	catalog *core.Catalog,
) (map[string]map[string]float64, error) {
	if catalog == nil || len(catalog.Vehicles) == 0 {
		return nil, nil
	}

	entityKey := s.EntityKey
	if entityKey == "" {
		entityKey = "vehicle_id"
	}
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	out := make(map[string]map[string]float64, len(catalog.Vehicles))

	ids := make([]string, 0, len(catalog.Vehicles))
	for _, v := range catalog.Vehicles {
		if v != nil {
			ids = append(ids, v.ID)
		}
	}

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		entityRows := make([]feastsdk.Row, len(batch))
		for i, id := range batch {
			entityRows[i] = feastsdk.Row{entityKey: feastsdk.StrVal(id)}
		}

		resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
			Features: s.Features,
			Entities: entityRows,
			Project:  s.Project,
		})
		if err != nil {
			return nil, fmt.Errorf("feast source: get online features: %w", err)
		}

		rows := resp.Rows()
		if len(rows) != len(batch) {
			return nil, fmt.Errorf("feast source: row count mismatch: expected %d, got %d", len(batch), len(rows))
		}

		for i, row := range rows {
			vec := make(map[string]float64, len(s.Features))
			for _, featureName := range s.Features {
				val, exists := row[featureName]
				if !exists {
					continue
				}
				if f, ok := toFloat(val); ok {
					vec[shortFeatureName(featureName)] = f
				}
			}
			if len(vec) == 0 {
				logger.Debug("feast source: no features for vehicle %s", batch[i])
				continue
			}
			out[batch[i]] = vec
		}
	}

	return out, nil
}

func (s *FeastSource) Close() error {
	s.client = nil
	return nil
}

// shortFeatureName 去掉 "<feature_view>:" 前缀，只保留特征名。
func shortFeatureName(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// toFloat 将 SDK 返回的 *types.Value 转为 float64。
// 值是 protobuf oneof 包装，必须走 oneof 分支提取；
// 字符串型特征退化为数字解析，列表/字节型不支持。
func toFloat(val *feasttypes.Value) (float64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if v.BoolVal {
			return 1, true
		}
		return 0, true
	case *feasttypes.Value_StringVal:
		if f, err := strconv.ParseFloat(v.StringVal, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

var _ Source = (*FeastSource)(nil)
