package pos

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMemory(start int64) (*MemoryRepository, *int64) {
	clock := start
	repo := NewMemoryRepository()
	repo.now = func() time.Time {
		clock++
		return time.UnixMilli(clock)
	}
	return repo, &clock
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestMemory(1000)

	first, err := repo.Create(ctx, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Status != StatusCompleted || first.ID == "" || first.Timestamp != 1001 {
		t.Fatalf("server fields not assigned: %+v", first)
	}

	other := sampleDraft()
	other.BranchID, other.BranchName = "deparo", "Deparo"
	second, err := repo.Create(ctx, other)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("list: %v len=%d", err, len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatal("expected most recent first")
	}

	scoped, _ := repo.List(ctx, Filter{StoreID: "daily-dope", BranchID: "vicas"})
	if len(scoped) != 1 || scoped[0].ID != first.ID {
		t.Fatalf("branch filter failed: %+v", scoped)
	}

	if err := repo.Void(ctx, first.ID, "damaged"); err != nil {
		t.Fatalf("void: %v", err)
	}
	if err := repo.Void(ctx, first.ID, "again"); err != nil {
		t.Fatalf("second void must be accepted: %v", err)
	}
	scoped, _ = repo.List(ctx, Filter{BranchID: "vicas"})
	if scoped[0].Status != StatusVoided || scoped[0].VoidReason != "damaged" || scoped[0].VoidedAt == nil {
		t.Fatalf("unexpected voided record %+v", scoped[0])
	}

	if err := repo.Void(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestMemory(0)
	created, _ := repo.Create(ctx, sampleDraft())
	created.Items[0].Quantity = 42

	list, _ := repo.List(ctx, Filter{})
	if list[0].Items[0].Quantity != 2 {
		t.Fatal("caller mutation leaked into the repository")
	}
}
