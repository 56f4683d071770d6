package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFrameGraphOrdersPasses(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	g := NewFrameGraph(newTestLogger())
	g.Add(Pass{Name: "present", Order: OrderPresent, Run: record("present")})
	g.Add(Pass{Name: "composite", Order: OrderComposite, Run: record("composite")})
	g.Add(Pass{Name: "scene", Order: OrderProduce, Run: record("scene")})
	g.Add(Pass{Name: "identity", Order: OrderProduce, Run: record("identity")})

	if err := g.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("ran %d passes, want 4", len(order))
	}
	if order[2] != "composite" || order[3] != "present" {
		t.Errorf("order = %v, want producers, then composite, then present", order)
	}
}

func TestFrameGraphRunsSameOrderConcurrently(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	rendezvous := func(context.Context) error {
		arrived.Done()
		done := make(chan struct{})
		go func() {
			arrived.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("other pass never started")
		}
	}

	g := NewFrameGraph(newTestLogger())
	g.Add(Pass{Name: "scene", Order: OrderProduce, Run: rendezvous})
	g.Add(Pass{Name: "identity", Order: OrderProduce, Run: rendezvous})
	if err := g.Execute(context.Background()); err != nil {
		t.Errorf("Execute: %v", err)
	}
}

func TestFrameGraphStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	ranComposite := false

	g := NewFrameGraph(newTestLogger())
	g.Add(Pass{Name: "identity", Order: OrderProduce, Run: func(context.Context) error { return boom }})
	g.Add(Pass{Name: "composite", Order: OrderComposite, Run: func(context.Context) error {
		ranComposite = true
		return nil
	}})

	err := g.Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Execute error = %v, want %v", err, boom)
	}
	if ranComposite {
		t.Error("composite ran after its producer failed")
	}
}

func TestFrameGraphPassesSorted(t *testing.T) {
	g := NewFrameGraph(newTestLogger())
	g.Add(Pass{Name: "b", Order: 0})
	g.Add(Pass{Name: "a", Order: -1})
	g.Add(Pass{Name: "c", Order: 0})

	var names []string
	for _, p := range g.Passes() {
		names = append(names, p.Name)
	}
	if names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Passes() = %v, want [a b c]", names)
	}
}
