package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type LikeRepo struct{ db *sqlx.DB }

func NewLikeRepo(db *sqlx.DB) *LikeRepo { return &LikeRepo{db: db} }

// Add records a like; repeating it is a no-op.
func (r *LikeRepo) Add(ctx context.Context, productID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO product_likes(product_id, user_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(product_id, user_id) DO NOTHING
	`, productID, userID, time.Now().UTC())
	return err
}

func (r *LikeRepo) Remove(ctx context.Context, productID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM product_likes WHERE product_id=? AND user_id=?`, productID, userID)
	return err
}

// Likers returns the ids of every user liking productID.
func (r *LikeRepo) Likers(ctx context.Context, productID string) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `SELECT user_id FROM product_likes WHERE product_id = ? ORDER BY created_at`, productID)
	return out, err
}

type LikeRow struct {
	ProductID string `db:"product_id"`
	UserID    string `db:"user_id"`
}

// LikersOf returns the likes of several products in one query.
func (r *LikeRepo) LikersOf(ctx context.Context, productIDs []string) ([]LikeRow, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT product_id, user_id FROM product_likes WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}
	var out []LikeRow
	err = r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...)
	return out, err
}
