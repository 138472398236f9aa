package store

import (
	"context"
	"fmt"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantStore caches validated Gemini recommendations keyed by answer vectors.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	threshold      float32
	ttl            time.Duration
	logger         *zap.Logger
}

func NewQdrantStore(client *qdrant.Client, collectionName string, threshold float32, logger *zap.Logger) *QdrantStore {
	return &QdrantStore{
		client:         client,
		collectionName: collectionName,
		threshold:      threshold,
		ttl:            24 * time.Hour,
		logger:         logger,
	}
}

func (s *QdrantStore) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	// Payload indexes for the freshness and exact-match filters.
	indexes := map[string]qdrant.FieldType{
		"created_at": qdrant.FieldType_FieldTypeInteger,
		"locale":     qdrant.FieldType_FieldTypeKeyword,
		"catalog":    qdrant.FieldType_FieldTypeKeyword,
		"prompt":     qdrant.FieldType_FieldTypeKeyword,
		"answers":    qdrant.FieldType_FieldTypeKeyword,
	}
	for field, fieldType := range indexes {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collectionName,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			// already existing indexes are not fatal
			s.logger.Warn("could not create qdrant field index", zap.String("field", field), zap.Error(err))
		}
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, filters map[string]string) (*repository.CachedRecommendation, error) {
	threshold := s.threshold
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildSearchFilter(filters, time.Now().Add(-s.ttl)),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &threshold,
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}

	hit := res[0]
	raw := hit.Payload["recommendation"].GetStringValue()
	var rec entity.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode cached recommendation: %w", err)
	}
	return &repository.CachedRecommendation{Recommendation: rec, Score: hit.Score}, nil
}

func (s *QdrantStore) Save(ctx context.Context, rec entity.Recommendation, vector []float32, filters map[string]string) error {
	payload, err := buildPayload(rec, filters, time.Now())
	if err != nil {
		return err
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: payload,
			},
		},
	})
	return err
}

// buildSearchFilter requires every filter key to match exactly and the point
// to be written no earlier than notBefore.
func buildSearchFilter(filters map[string]string, notBefore time.Time) *qdrant.Filter {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, 0, len(keys)+1)
	for _, key := range keys {
		must = append(must, qdrant.NewMatch(key, filters[key]))
	}
	must = append(must, &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: "created_at",
				Range: &qdrant.Range{
					Gte: qdrant.PtrOf(float64(notBefore.Unix())),
				},
			},
		},
	})
	return &qdrant.Filter{Must: must}
}

func buildPayload(rec entity.Recommendation, filters map[string]string, now time.Time) (map[string]*qdrant.Value, error) {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode recommendation: %w", err)
	}

	payload := map[string]any{
		"recommendation": string(encoded),
		"created_at":     now.Unix(),
	}
	for k, v := range filters {
		payload[k] = v
	}
	return qdrant.NewValueMap(payload), nil
}
