package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "pumarket/internal/log"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Ensure demo accounts exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	// Seed demo listings and carousel if the catalog is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Profiles & Sessions
CREATE TABLE IF NOT EXISTS profiles(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT,
  password_hash TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email_nocase ON profiles(LOWER(email));

CREATE TABLE IF NOT EXISTS user_roles(
  user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  role TEXT NOT NULL CHECK (role IN ('public','seller','admin')),
  created_at DATETIME NOT NULL,
  PRIMARY KEY(user_id, role)
);
CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles(role);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES profiles(id) ON DELETE SET NULL,
  created_at DATETIME NOT NULL,
  last_seen  DATETIME
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Consumed magic-link token ids
CREATE TABLE IF NOT EXISTS magic_links(
  jti TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  used_at DATETIME NOT NULL
);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  image_url TEXT,
  category TEXT NOT NULL,
  seller_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  is_available INTEGER NOT NULL DEFAULT 1,
  is_sponsored INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Likes: one per (product, user)
CREATE TABLE IF NOT EXISTS product_likes(
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id    TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  created_at DATETIME NOT NULL,
  PRIMARY KEY (product_id, user_id)
);

-- Comments
CREATE TABLE IF NOT EXISTS product_comments(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  seller_id  TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
  comment_text TEXT NOT NULL,
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_product ON product_comments(product_id, created_at);

-- Carousel
CREATE TABLE IF NOT EXISTS carousel(
  id TEXT PRIMARY KEY,
  image_url TEXT NOT NULL,
  title TEXT,
  subtitle TEXT,
  link_url TEXT,
  display_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_carousel_order ON carousel(display_order);
`
	_, err := db.Exec(schema)
	return err
}

// seedUsers ensures the demo accounts and their roles exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Hash string
		Roles                 []string
	}
	mk := func(id, email, name, raw string, roles ...string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Hash: string(h), Roles: roles}
	}

	users := []u{
		mk("u-admin", "admin@pumarket.test", "Admin", "Passw0rd!", "public", "seller", "admin"),
		mk("u-alice", "alice@pumarket.test", "Alice", "Passw0rd!", "public", "seller"),
		mk("u-carol", "carol@pumarket.test", "", "Passw0rd!", "public", "seller"),
		mk("u-bob", "bob@pumarket.test", "Bob", "Passw0rd!", "public"),
	}

	now := time.Now().UTC()
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO profiles(id,email,full_name,password_hash,created_at)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, now); err != nil {
			return err
		}
		for _, r := range x.Roles {
			if _, err := tx.Exec(`
				INSERT INTO user_roles(user_id,role,created_at) VALUES(?,?,?)
				ON CONFLICT(user_id, role) DO NOTHING
			`, x.ID, r, now); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Logger().Info().Msg("[seed] inserting demo products/carousel")

	now := time.Now().UTC()
	day := 24 * time.Hour
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO products(id,title,description,price,image_url,category,seller_id,is_available,is_sponsored,created_at,updated_at) VALUES
	  ('p-physics','Physics Notes Sem 3','Handwritten notes, all units covered',150,NULL,'Study Material','u-alice',1,1,?,?),
	  ('p-cycle','Hero Sprint Cycle','Lightly used, new brakes',3200,NULL,'Vehicle','u-alice',1,0,?,?),
	  ('p-kettle','Electric Kettle 1.5L','Works fine, moving out sale',450,NULL,'Kitchen Accessories','u-admin',0,0,?,?)`,
		now.Add(-2*time.Hour), now.Add(-2*time.Hour),
		now.Add(-3*day), now.Add(-3*day),
		now.Add(-10*day), now.Add(-10*day))

	tx.MustExec(`INSERT INTO carousel(id,image_url,title,subtitle,link_url,display_order,is_active,created_at) VALUES
	  ('c-welcome','/media/carousel_images/welcome.jpg','Welcome to PU-Marketplace','Buy and sell on campus',NULL,0,1,?)`, now)

	return tx.Commit()
}
