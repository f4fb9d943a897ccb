package dataflow_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/locvowork/tablexport/pkg/dataflow"
)

func TestParsePipeline(t *testing.T) {
	ctx := context.Background()

	// 1. Source
	records := []string{"1,Alice", "2,Bob", "3,Charlie", "bad record"}
	source := dataflow.From(ctx, records)

	// 2. Map: parse in parallel, dropping malformed records
	type row struct {
		ID   string
		Name string
	}

	var dropped int
	var mu sync.Mutex
	parsed := dataflow.Map(ctx, source, func(s string) (row, error) {
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return row{}, fmt.Errorf("invalid format: %q", s)
		}
		return row{ID: parts[0], Name: parts[1]}, nil
	}, dataflow.WithWorkers(2), dataflow.WithErrorHandler(func(err error) bool {
		mu.Lock()
		dropped++
		mu.Unlock()
		return true
	}))

	// 3. Sink: collect
	var results []row
	err := dataflow.ForEach(ctx, parsed, func(r row) error {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped record, got %d", dropped)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if results[0].Name != "Alice" {
		t.Errorf("Expected Alice first, got %q", results[0].Name)
	}
}

func TestForEachReportsFirstError(t *testing.T) {
	ctx := context.Background()
	source := dataflow.From(ctx, []int{1, 2, 3})

	err := dataflow.ForEach(ctx, source, func(n int) error {
		if n == 2 {
			return fmt.Errorf("boom at %d", n)
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	source := dataflow.From(ctx, []int{1, 2, 3, 4})

	even := dataflow.Filter(ctx, source, func(n int) bool { return n%2 == 0 })

	sum := 0
	if err := dataflow.ForEach(ctx, even, func(n int) error {
		sum += n
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if sum != 6 {
		t.Errorf("Expected sum 6, got %d", sum)
	}
}

func TestFanIn(t *testing.T) {
	ctx := context.Background()

	s1 := dataflow.From(ctx, []int{1})
	s2 := dataflow.From(ctx, []int{2})

	merged := dataflow.FanIn(ctx, s1, s2)

	sum := 0
	err := dataflow.ForEach(ctx, merged, func(n int) error {
		sum += n
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum != 3 {
		t.Errorf("Expected sum 3, got %d", sum)
	}
}
