package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hirelane/aicore/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VectorRepository wraps the pgvector-backed entry table. Upsert semantics on
// insert let a reindex that crashed mid-way converge on retry.
type VectorRepository interface {
	InsertBatch(ctx context.Context, entries []models.VectorEntry) error
	Search(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]models.SearchResult, error)
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

type vectorRepo struct {
	db *gorm.DB
}

func NewVectorRepo(db *gorm.DB) VectorRepository {
	return &vectorRepo{db: db}
}

func (r *vectorRepo) InsertBatch(ctx context.Context, entries []models.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&entries).Error
}

func (r *vectorRepo) Search(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]models.SearchResult, error) {
	if len(embedding) != models.EmbeddingDimensions {
		return nil, errors.New("query embedding has wrong dimensionality")
	}
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	type row struct {
		ID         string
		Content    string
		Metadata   datatypes.JSON
		Similarity float64
	}

	q := r.db.WithContext(ctx).
		Model(&models.VectorEntry{}).
		Select("id, content, metadata, 1 - (embedding <=> ?) AS similarity", vec)
	if len(filter) > 0 {
		b, err := json.Marshal(filter)
		if err != nil {
			return nil, err
		}
		q = q.Where("metadata @> ?::jsonb", string(b))
	}

	var rows []row
	err := q.Order(clause.OrderBy{
		Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []any{vec}},
	}).Limit(topK).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.SearchResult, 0, len(rows))
	for _, rw := range rows {
		res := models.SearchResult{
			ID:         rw.ID,
			Content:    rw.Content,
			Similarity: clamp01(rw.Similarity),
		}
		if len(rw.Metadata) > 0 {
			md := map[string]string{}
			if err := json.Unmarshal(rw.Metadata, &md); err == nil {
				res.Metadata = md
			}
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *vectorRepo) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.VectorEntry{})
	return res.RowsAffected, res.Error
}

// Cosine distance over real embeddings lands in [0,2]; similarity is reported
// normalized to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
