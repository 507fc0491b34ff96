package repository

import (
	"context"

	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TagRepository handles tag data access.
type TagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

// List retrieves all tags ordered by name.
func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a new tag.
func (r *TagRepository) Create(ctx context.Context, t *model.Tag) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tags (name) VALUES ($1) RETURNING id`, t.Name,
	).Scan(&t.ID)
}
