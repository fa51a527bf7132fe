package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/urbanmesh/zonegate/internal/ingest"
)

func TestDebouncerCollapsesPerPath(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]FileEvent

	d := NewDebouncer(50*time.Millisecond, 100, func(events []FileEvent) {
		mu.Lock()
		flushed = append(flushed, events)
		mu.Unlock()
	})
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "/drop/metro/bylaw.txt", Type: EventModify, Timestamp: time.Now()})
	}
	d.Add(FileEvent{Path: "/drop/metro/overlay.txt", Type: EventCreate, Timestamp: time.Now()})

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(flushed)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debouncer never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(flushed) != 1 {
		t.Fatalf("expected one flush, got %d", len(flushed))
	}
	if len(flushed[0]) != 2 {
		t.Errorf("expected 2 distinct paths in batch, got %d", len(flushed[0]))
	}
}

func TestDebouncerFlushesAtMaxBatch(t *testing.T) {
	var mu sync.Mutex
	var batches int

	d := NewDebouncer(10*time.Second, 3, func(events []FileEvent) {
		mu.Lock()
		batches++
		mu.Unlock()
	})
	defer d.Stop()

	d.Add(FileEvent{Path: "/drop/a/1.txt", Type: EventCreate})
	d.Add(FileEvent{Path: "/drop/a/2.txt", Type: EventCreate})
	d.Add(FileEvent{Path: "/drop/a/3.txt", Type: EventCreate})

	mu.Lock()
	defer mu.Unlock()
	if batches != 1 {
		t.Errorf("expected immediate flush at max batch, got %d flushes", batches)
	}
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	var mu sync.Mutex
	var got []FileEvent

	d := NewDebouncer(10*time.Second, 100, func(events []FileEvent) {
		mu.Lock()
		got = append(got, events...)
		mu.Unlock()
	})

	d.Add(FileEvent{Path: "/drop/b/plan.txt", Type: EventModify})
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected pending event flushed on stop, got %d", len(got))
	}

	d.Add(FileEvent{Path: "/drop/b/late.txt", Type: EventModify})
	if len(got) != 1 {
		t.Error("events added after stop must be dropped")
	}
}

func TestBatchPriority(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  ingest.JobPriority
	}{
		{"single edit", 1, ingest.PriorityHigh},
		{"small batch", 3, ingest.PriorityNormal},
		{"bulk drop", 11, ingest.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := make([]FileEvent, tt.count)
			if got := batchPriority(events); got != tt.want {
				t.Errorf("batchPriority(%d events) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}

func TestJurisdictionFor(t *testing.T) {
	w := &Watcher{roots: []string{"/drop"}}

	tests := []struct {
		path string
		want string
	}{
		{"/drop/metro-city/bylaw.txt", "metro-city"},
		{"/drop/metro-city/2024/amendment.txt", "metro-city"},
		{"/drop/orphan.txt", ""},
		{"/elsewhere/metro-city/bylaw.txt", ""},
	}

	for _, tt := range tests {
		if got := w.jurisdictionFor(tt.path); got != tt.want {
			t.Errorf("jurisdictionFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
