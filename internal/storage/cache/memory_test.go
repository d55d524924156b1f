package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	type poi struct {
		Name string `json:"name"`
	}
	if err := s.Set(ctx, "poi:beijing:museum", poi{Name: "故宫"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got poi
	if err := s.Get(ctx, "poi:beijing:museum", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "故宫" {
		t.Errorf("Get: %+v", got)
	}
}

func TestMemoryStore_Expiration(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// 负 TTL 视为不过期（expiration<=0），应能命中
	var v string
	if err := s.Get(ctx, "k", &v); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := s.Set(ctx, "k2", "v", time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if err := s.Get(ctx, "k2", &v); err == nil {
		t.Error("Get expired should fail")
	}
	ok, err := s.Exists(ctx, "k2")
	if err != nil || ok {
		t.Errorf("Exists expired: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_DeleteClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "a", 1, 0)
	_ = s.Set(ctx, "b", 2, 0)
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); err == nil {
		t.Error("Delete missing should fail")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	ok, _ := s.Exists(ctx, "b")
	if ok {
		t.Error("Exists after Clear should be false")
	}
}
