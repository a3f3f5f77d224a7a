package repos

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pumarket/internal/domain"
)

// ErrAlreadyUsed is returned when a magic-link token id was consumed before.
var ErrAlreadyUsed = errors.New("token already used")

const userCols = `id, email, COALESCE(full_name,'') AS full_name, password_hash`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM profiles WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM profiles WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByIDs resolves several profiles in one query, keyed by id.
func (r *UserRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+userCols+` FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.User
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// Create inserts a profile together with its initial roles.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, roles ...domain.Role) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles(id,email,full_name,password_hash,created_at)
		VALUES(?,?,NULLIF(?,''),?,?)
	`, u.ID, u.Email, u.FullName, u.Hash, now); err != nil {
		return err
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles(user_id,role,created_at) VALUES(?,?,?)`,
			u.ID, role, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	u.Roles = roles
	return nil
}

// All lists every profile ordered by email.
func (r *UserRepo) All(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM profiles ORDER BY LOWER(email)`)
	return out, err
}

// ---------- Roles ----------

func (r *UserRepo) Roles(ctx context.Context, userID string) ([]domain.Role, error) {
	var out []domain.Role
	err := r.DB.SelectContext(ctx, &out, `SELECT role FROM user_roles WHERE user_id=? ORDER BY role`, userID)
	return out, err
}

type RoleRow struct {
	UserID string      `db:"user_id"`
	Role   domain.Role `db:"role"`
}

func (r *UserRepo) AllRoles(ctx context.Context) ([]RoleRow, error) {
	var out []RoleRow
	err := r.DB.SelectContext(ctx, &out, `SELECT user_id, role FROM user_roles ORDER BY user_id, role`)
	return out, err
}

// HoldersOf returns which of userIDs currently hold role.
func (r *UserRepo) HoldersOf(ctx context.Context, role domain.Role, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT user_id FROM user_roles WHERE role = ? AND user_id IN (?)`, role, userIDs)
	if err != nil {
		return nil, err
	}
	var out []string
	err = r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...)
	return out, err
}

func (r *UserRepo) GrantRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_roles(user_id,role,created_at) VALUES(?,?,?)
		ON CONFLICT(user_id, role) DO NOTHING
	`, userID, role, time.Now().UTC())
	return err
}

func (r *UserRepo) RevokeRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id=? AND role=?`, userID, role)
	return err
}

// ---------- Sessions ----------

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`,
		sid, userID, now, now)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id, u.email, COALESCE(u.full_name,'') AS full_name, u.password_hash
      FROM sessions s
      JOIN profiles u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`, time.Now().UTC(), sid)
	return err
}

// ---------- Magic links ----------

// ConsumeMagicLink marks jti as used. A second call with the same jti
// returns ErrAlreadyUsed.
func (r *UserRepo) ConsumeMagicLink(ctx context.Context, jti, userID string) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO magic_links(jti,user_id,used_at) VALUES(?,?,?)
		ON CONFLICT(jti) DO NOTHING
	`, jti, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyUsed
	}
	return nil
}
