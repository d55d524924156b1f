package secrets

import (
	"context"
	"os"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "amap/api_key", "k1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, "amap/api_key")
	if err != nil || v != "k1" {
		t.Errorf("Get: v=%q err=%v", v, err)
	}
	if _, err := s.Get(ctx, "missing"); err == nil {
		t.Error("Get missing should fail")
	}
	keys, err := s.List(ctx, "amap/")
	if err != nil || len(keys) != 1 {
		t.Errorf("List: keys=%v err=%v", keys, err)
	}
	if err := s.Delete(ctx, "amap/api_key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "amap/api_key"); err == nil {
		t.Error("Get after delete should fail")
	}
}

func TestEnvStore(t *testing.T) {
	s := NewEnvStore()
	ctx := context.Background()

	os.Setenv("TRIPPLAN_TEST_SECRET", "v1")
	defer os.Unsetenv("TRIPPLAN_TEST_SECRET")

	v, err := s.Get(ctx, "TRIPPLAN_TEST_SECRET")
	if err != nil || v != "v1" {
		t.Errorf("Get: v=%q err=%v", v, err)
	}
	if _, err := s.Get(ctx, "TRIPPLAN_TEST_SECRET_MISSING"); err == nil {
		t.Error("Get unset env should fail")
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s, err := NewStore(Config{Provider: "memory"})
	if err != nil || s == nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	s, err = NewStore(Config{})
	if err != nil || s == nil {
		t.Fatalf("NewStore default: %v", err)
	}
}
