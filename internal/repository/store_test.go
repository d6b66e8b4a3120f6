package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// assertMergeSemantics 两次写入，第二次只写部分字段，未写入的字段必须保留
func assertMergeSemantics(t *testing.T, store interfaces.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	first := map[string]interface{}{
		"eventId":  "e1",
		"homeTeam": "A",
		"note":     "kept",
		"markets":  map[string]interface{}{"h2h": []interface{}{}},
	}
	if err := store.Upsert(ctx, "odds_cache", "nba_e1", first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	second := map[string]interface{}{
		"eventId":     "e1",
		"homeTeam":    "A2",
		"lastFetched": 1700000000000,
	}
	if err := store.Upsert(ctx, "odds_cache", "nba_e1", second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	doc, err := store.Get(ctx, "odds_cache", "nba_e1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc["homeTeam"] != "A2" {
		t.Errorf("homeTeam = %v, want overwritten A2", doc["homeTeam"])
	}
	if doc["note"] != "kept" {
		t.Errorf("note = %v, want preserved", doc["note"])
	}
	if _, ok := doc["markets"]; !ok {
		t.Error("markets should be preserved")
	}
	if doc["lastFetched"] != float64(1700000000000) {
		t.Errorf("lastFetched = %v (%T)", doc["lastFetched"], doc["lastFetched"])
	}

	if _, err := store.Get(ctx, "odds_cache", "nba_missing"); !errors.Is(err, interfaces.ErrDocumentNotFound) {
		t.Errorf("missing doc err = %v, want ErrDocumentNotFound", err)
	}
}

func TestMemoryRepository_Merge(t *testing.T) {
	store := NewMemoryRepository()
	assertMergeSemantics(t, store)
	if store.Writes() != 2 || store.Len() != 1 {
		t.Errorf("writes = %d len = %d", store.Writes(), store.Len())
	}
}

func TestRedisRepository_Merge(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisRepository(client)
	defer store.Close()

	assertMergeSemantics(t, store)

	if !mr.Exists("odds_cache:nba_e1") {
		t.Error("expected hash odds_cache:nba_e1")
	}
	if got := mr.HGet("odds_cache:nba_e1", "homeTeam"); got != `"A2"` {
		t.Errorf("raw homeTeam field = %q", got)
	}
}

func TestNewDocumentStore_Drivers(t *testing.T) {
	ctx := context.Background()

	mem, err := NewDocumentStore(ctx, &config.StoreConfig{Driver: "memory"}, quietLogger())
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*MemoryRepository); !ok {
		t.Errorf("memory driver type = %T", mem)
	}

	mr := miniredis.RunT(t)
	rs, err := NewDocumentStore(ctx, &config.StoreConfig{
		Driver: "redis",
		Redis:  config.RedisConfig{Addr: mr.Addr()},
	}, quietLogger())
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	_ = rs.Close()

	if _, err := NewDocumentStore(ctx, &config.StoreConfig{Driver: "firestore"}, quietLogger()); err == nil {
		t.Error("unknown driver should fail")
	}
	if _, err := NewDocumentStore(ctx, &config.StoreConfig{Driver: "postgres"}, quietLogger()); err == nil {
		t.Error("postgres without DSN should fail")
	}
}

func TestNewDocumentStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewDocumentStore(context.Background(), &config.StoreConfig{
		Driver: "redis",
		Redis:  config.RedisConfig{Addr: addr},
	}, quietLogger())
	if err == nil {
		t.Fatal("expected ping failure")
	}
}

func TestAdminDSN(t *testing.T) {
	tests := []struct {
		dsn       string
		wantAdmin string
		wantDB    string
	}{
		{"postgres://u:p@db:5432/winsports?sslmode=disable", "postgres://u:p@db:5432/postgres?sslmode=disable", "winsports"},
		{"postgres://u:p@db:5432/postgres", "", ""},
		{"postgres://u:p@db:5432/", "", ""},
	}
	for _, tt := range tests {
		admin, db, err := adminDSN(tt.dsn)
		if err != nil {
			t.Errorf("adminDSN(%q): %v", tt.dsn, err)
			continue
		}
		if admin != tt.wantAdmin || db != tt.wantDB {
			t.Errorf("adminDSN(%q) = (%q, %q), want (%q, %q)", tt.dsn, admin, db, tt.wantAdmin, tt.wantDB)
		}
	}
}
