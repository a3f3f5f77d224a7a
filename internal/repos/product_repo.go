package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pumarket/internal/domain"
)

const productCols = `
    id, title, description, price, COALESCE(image_url,'') AS image_url, category,
    seller_id, is_available, is_sponsored, created_at, updated_at`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// List is the coarse server-side fetch: newest first, optionally narrowed to
// one category.
func (r *ProductRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	q := `SELECT` + productCols + ` FROM products`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+productCols+`
  FROM products
  WHERE seller_id = ?
  ORDER BY created_at DESC, rowid DESC
`, sellerID)
	return out, err
}

func (r *ProductRepo) CountBySeller(ctx context.Context, sellerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE seller_id = ?`, sellerID)
	return n, err
}

// Sponsored returns available, sponsored products, newest first.
func (r *ProductRepo) Sponsored(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 6
	}
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+productCols+`
  FROM products
  WHERE is_sponsored = 1 AND is_available = 1
  ORDER BY created_at DESC, rowid DESC
  LIMIT ?
`, limit)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// Create inserts p, stamping CreatedAt/UpdatedAt.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products
	    (id, title, description, price, image_url, category, seller_id, is_available, is_sponsored, created_at, updated_at)
	  VALUES
	    (?,  ?,     ?,           ?,     NULLIF(?,''), ?,      ?,         ?,            ?,            ?,          ?)
	`, p.ID, p.Title, p.Description, p.Price, p.ImageURL, p.Category, p.SellerID, p.Available, p.Sponsored, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites the seller-editable fields of p.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET title = ?, description = ?, price = ?, image_url = NULLIF(?,''), category = ?, updated_at = ?
	  WHERE id = ?
	`, p.Title, p.Description, p.Price, p.ImageURL, p.Category, p.UpdatedAt, p.ID)
	return err
}

func (r *ProductRepo) SetAvailable(ctx context.Context, id string, available bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, time.Now().UTC(), id)
	return err
}

func (r *ProductRepo) SetSponsored(ctx context.Context, id string, sponsored bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET is_sponsored = ?, updated_at = ? WHERE id = ?`,
		sponsored, time.Now().UTC(), id)
	return err
}

// Delete removes a product; likes and comments cascade.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
