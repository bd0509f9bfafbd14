package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerRegisterAndRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store}
	ctx := context.Background()

	if err := manager.Register(ctx, "jti-1", "ops@humidityzone.com", time.Hour); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := store.data["sess:jti-1"]; got != "ops@humidityzone.com" {
		t.Fatalf("expected subject stored, got %q", got)
	}
	if got := store.ttls["sess:jti-1"]; got != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", got)
	}

	ok, err := manager.HasSession(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "jti-1")
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
}

func TestManagerValidation(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store}
	ctx := context.Background()

	if err := manager.Register(ctx, "", "ops", time.Hour); err == nil {
		t.Fatal("expected missing access id error")
	}
	if err := manager.Register(ctx, "jti", "ops", 0); err == nil {
		t.Fatal("expected non-positive ttl error")
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected missing access id error")
	}
}

func TestManagerHasSessionStoreError(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	manager := &Manager{store: store, keyer: store}

	if _, err := manager.HasSession(context.Background(), "jti"); err == nil {
		t.Fatal("expected store error to surface")
	}
}
