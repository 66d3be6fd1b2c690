//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"listing_intake/internal/domain"
	mysqlrepo "listing_intake/internal/storage/mysql"
)

func pstr(s string) *string { return &s }
func pint(i int) *int       { return &i }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=listings",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/listings?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_InsertUpdateGet(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	l := domain.Listing{
		ID:          "0b6f3c3e-5d7a-4c55-9a8e-1f0f3b0c2a11",
		Title:       "Lagoon Villa",
		Description: pstr("By the water"),
		Category:    domain.Resort,
		BasePrice:   pint(90000),
		Location:    domain.Fields{"city": "Lagos", "latitude": 6.45},
		Details:     domain.Fields{"resortType": "VILLA", "roomType": "Suite", "capacity": 4, "amenities": []string{"pool"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Insert(ctx, l); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Lagoon Villa" || got.Category != domain.Resort || *got.BasePrice != 90000 {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.Details["capacity"] != 4 || got.Location["latitude"] != 6.45 {
		t.Fatalf("unexpected typed fields: %#v %#v", got.Details, got.Location)
	}

	got.Details["capacity"] = 6
	got.Description = nil
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := repo.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if again.Details["capacity"] != 6 || again.Description != nil {
		t.Fatalf("update not applied: %+v", again)
	}

	if err := repo.LogRejection(ctx, "seed.yaml", 3, "roomType is required"); err != nil {
		t.Fatalf("LogRejection: %v", err)
	}
}

func TestRepo_MySQL_NotFound(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err := repo.Update(context.Background(), domain.Listing{ID: "missing", Details: domain.Fields{}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}
