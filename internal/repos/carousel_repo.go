package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pumarket/internal/domain"
)

const carouselCols = `
    id, image_url, COALESCE(title,'') AS title, COALESCE(subtitle,'') AS subtitle,
    COALESCE(link_url,'') AS link_url, display_order, is_active, created_at`

type CarouselRepo struct{ db *sqlx.DB }

func NewCarouselRepo(db *sqlx.DB) *CarouselRepo { return &CarouselRepo{db: db} }

// List returns carousel items in display order; activeOnly hides inactive ones.
func (r *CarouselRepo) List(ctx context.Context, activeOnly bool) ([]domain.CarouselItem, error) {
	q := `SELECT` + carouselCols + ` FROM carousel`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY display_order ASC, created_at ASC`
	var out []domain.CarouselItem
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}

func (r *CarouselRepo) Get(ctx context.Context, id string) (domain.CarouselItem, error) {
	var it domain.CarouselItem
	err := r.db.GetContext(ctx, &it, `SELECT`+carouselCols+` FROM carousel WHERE id = ?`, id)
	return it, err
}

func (r *CarouselRepo) Create(ctx context.Context, it *domain.CarouselItem) error {
	it.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO carousel(id, image_url, title, subtitle, link_url, display_order, is_active, created_at)
	  VALUES(?, ?, NULLIF(?,''), NULLIF(?,''), NULLIF(?,''), ?, ?, ?)
	`, it.ID, it.ImageURL, it.Title, it.Subtitle, it.LinkURL, it.DisplayOrder, it.Active, it.CreatedAt)
	return err
}

func (r *CarouselRepo) Update(ctx context.Context, it *domain.CarouselItem) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE carousel
	  SET title = NULLIF(?,''), subtitle = NULLIF(?,''), link_url = NULLIF(?,''), display_order = ?, is_active = ?
	  WHERE id = ?
	`, it.Title, it.Subtitle, it.LinkURL, it.DisplayOrder, it.Active, it.ID)
	return err
}

func (r *CarouselRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carousel WHERE id = ?`, id)
	return err
}
