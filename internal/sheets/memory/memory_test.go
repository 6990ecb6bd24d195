package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestMirrorAppendAndRemove(t *testing.T) {
	m := New()
	ctx := context.Background()

	ref, err := m.Append(ctx, core.Expense{
		ID: 3, UserID: 1, Amount: core.Money{Cents: 123}, Category: "Food", Timestamp: time.Now(),
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if _, ok := m.Rows()[3]; !ok {
		t.Fatal("expected row 3 to be mirrored")
	}

	if _, err := m.Append(ctx, core.Expense{ID: 4}); err == nil {
		t.Fatal("expected validation error")
	}

	if err := m.Remove(ctx, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove(ctx, 3); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	if len(m.Rows()) != 0 {
		t.Fatalf("expected no rows, got %v", m.Rows())
	}
}
