package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pumarket/internal/domain"
)

type CommentRepo struct{ db *sqlx.DB }

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

// ListByProduct returns a product's comments newest first.
func (r *CommentRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, product_id, seller_id, comment_text, created_at
	  FROM product_comments
	  WHERE product_id = ?
	  ORDER BY created_at DESC, rowid DESC
	`, productID)
	return out, err
}

func (r *CommentRepo) CountByAuthor(ctx context.Context, productID, authorID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM product_comments WHERE product_id = ? AND seller_id = ?`,
		productID, authorID)
	return n, err
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	c.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO product_comments(id, product_id, seller_id, comment_text, created_at)
	  VALUES(?, ?, ?, ?, ?)
	`, c.ID, c.ProductID, c.SellerID, c.Text, c.CreatedAt)
	return err
}
