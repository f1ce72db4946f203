package script

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCache_ReturnsSameTemplate(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	a, err := c.Parse(ctx, "{%sanitize(title)}")
	if err != nil {
		t.Fatal(err)
	}

	b, err := c.Parse(ctx, "{%sanitize(title)}")
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("expected the cached template to be reused")
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_CachesErrors(t *testing.T) {
	c := NewCache()

	for range 2 {
		if _, err := c.Parse(context.Background(), "{}"); !errors.Is(err, ErrEmptyExpression) {
			t.Fatalf("expected empty expression, got %v", err)
		}
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	sources := []string{"{a}", "{%upper(b)}", "x {c} y", "{}"}

	var wg sync.WaitGroup

	results := make([][]*Template, 16)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = make([]*Template, len(sources))
			for j, src := range sources {
				results[i][j], _ = c.Parse(context.Background(), src)
			}
		}()
	}

	wg.Wait()

	for i := 1; i < len(results); i++ {
		for j := range sources {
			if results[i][j] != results[0][j] {
				t.Fatalf("goroutine %d got a different template for %q", i, sources[j])
			}
		}
	}

	if c.Len() != len(sources) {
		t.Errorf("Len() = %d, want %d", c.Len(), len(sources))
	}
}

func TestCache_Clear(t *testing.T) {
	c := NewCache()

	a, _ := c.Parse(context.Background(), "{a}")
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", c.Len())
	}

	b, _ := c.Parse(context.Background(), "{a}")
	if a == b {
		t.Error("expected a fresh parse after Clear")
	}

	// Templates handed out before Clear remain usable.
	ctx := NewContext()
	_ = ctx.DefineValue("a", String("ok"))

	if got, err := ctx.Evaluate(context.Background(), a); err != nil || got != "ok" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestParseCached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	a, err := ParseCached(context.Background(), "{x}")
	if err != nil {
		t.Fatal(err)
	}

	b, _ := ParseCached(context.Background(), "{x}")
	if a != b {
		t.Error("expected the process-wide cache to reuse the template")
	}
}
