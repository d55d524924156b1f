package planstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"trip-planner/internal/orchestrator"
	pkgerrors "trip-planner/pkg/errors"
)

func samplePlan(id string, createdAt time.Time) *orchestrator.ItineraryPlan {
	return &orchestrator.ItineraryPlan{
		ID:          id,
		Destination: "北京",
		Days: []orchestrator.DayPlan{
			{Day: 1, Activities: []orchestrator.Activity{{Name: "故宫", Start: "09:00", End: "12:00"}}},
		},
		CreatedAt: createdAt,
	}
}

func TestMemoryStore_SaveGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, samplePlan("p1", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Destination != "北京" || len(got.Days) != 1 {
		t.Errorf("got = %+v", got)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "no-such")
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_SaveInvalid(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Save(context.Background(), &orchestrator.ItineraryPlan{}); !errors.Is(err, pkgerrors.ErrInvalidArg) {
		t.Errorf("err = %v, want ErrInvalidArg", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	_ = s.Save(ctx, samplePlan("old", base.Add(-time.Hour)))
	_ = s.Save(ctx, samplePlan("new", base))
	_ = s.Save(ctx, samplePlan("mid", base.Add(-30*time.Minute)))

	plans, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("len = %d, want 2", len(plans))
	}
	if plans[0].ID != "new" || plans[1].ID != "mid" {
		t.Errorf("order = [%s %s]", plans[0].ID, plans[1].ID)
	}
}
