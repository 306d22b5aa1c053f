// Package system exercises the clock adapters.
package system

import (
	"testing"
	"time"

	"github.com/JakeFAU/board-crawler/internal/board"
)

var (
	_ board.Clock = (*Clock)(nil)
	_ board.Clock = (*Fixed)(nil)
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestFixedClock checks the pinned instant never moves.
func TestFixedClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	clk := NewFixed(at)
	if !clk.Now().Equal(at) {
		t.Fatalf("expected %v, got %v", at, clk.Now())
	}
	time.Sleep(time.Millisecond)
	if !clk.Now().Equal(at) {
		t.Fatal("fixed clock moved")
	}
}
