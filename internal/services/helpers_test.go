package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"

	"pumarket/internal/domain"
	"pumarket/internal/repos"
	"pumarket/internal/services"
	"pumarket/internal/storage"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// loadUser returns a seeded account with its roles.
func loadUser(t *testing.T, db *sqlx.DB, id string) *domain.User {
	t.Helper()
	users := repos.NewUserRepo(db)
	u, err := users.ByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	if u.Roles, err = users.Roles(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	return u
}

// memStore is an in-memory ImageStore that records every object written.
type memStore struct {
	max  int64
	objs map[string][]byte
}

func newMemStore(max int64) *memStore { return &memStore{max: max, objs: map[string][]byte{}} }

func (m *memStore) MaxBytes() int64 { return m.max }

func (m *memStore) Put(key string, r io.Reader, size int64) (string, error) {
	if size > m.max {
		return "", storage.ErrTooLarge
	}
	if _, dup := m.objs[key]; dup {
		return "", errors.New("object exists: " + key)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objs[key] = b
	return "/media/test/" + key, nil
}

func upload(name string, n int) *services.Upload {
	data := bytes.Repeat([]byte{'x'}, n)
	return &services.Upload{
		Filename: name,
		Size:     int64(n),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
