package analytics

import (
	"testing"
)

func TestProjectionBuilder_DeduplicatesAccounts(t *testing.T) {
	b := NewProjectionBuilder("fraud_graph")
	first := b.AddAccount("C100")
	second := b.AddAccount("C100")
	if first != second {
		t.Errorf("Expected stable index for repeated account, got %d and %d", first, second)
	}

	p := b.Build()
	if p.NodeCount() != 1 {
		t.Errorf("Expected 1 node, got %d", p.NodeCount())
	}
}

func TestProjectionBuilder_ImplicitEndpoints(t *testing.T) {
	b := NewProjectionBuilder("fraud_graph")
	b.AddTransfer("C1", "C2", 100.0)
	b.AddTransfer("C2", "C3", 50.0)

	p := b.Build()
	if p.NodeCount() != 3 {
		t.Errorf("Expected 3 nodes, got %d", p.NodeCount())
	}
	if p.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges, got %d", p.EdgeCount())
	}
	if p.Name() != "fraud_graph" {
		t.Errorf("Expected projection name to survive build, got %q", p.Name())
	}
}

func TestProjectionBuilder_ParallelTransfersKept(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddTransfer("C1", "C2", 10)
	b.AddTransfer("C1", "C2", 15)

	p := b.Build()
	if p.EdgeCount() != 2 {
		t.Errorf("Parallel transfers must stay parallel, got %d edges", p.EdgeCount())
	}
	if s := p.outStrength(0); s != 25 {
		t.Errorf("Expected out strength 25, got %v", s)
	}
}

func TestProjectionBuilder_NegativeAmountClamped(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddTransfer("C1", "C2", -5)

	p := b.Build()
	if s := p.outStrength(0); s != 0 {
		t.Errorf("Expected negative amount clamped to 0, got %v", s)
	}
}

func TestRegistry_DropIsIdempotent(t *testing.T) {
	r := NewRegistry()

	if dropped := r.Drop("fraud_graph"); dropped {
		t.Error("Dropping a missing projection should report false")
	}

	p := NewProjectionBuilder("fraud_graph").Build()
	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if dropped := r.Drop("fraud_graph"); !dropped {
		t.Error("Expected drop of live projection to report true")
	}
	if dropped := r.Drop("fraud_graph"); dropped {
		t.Error("Second drop should report false")
	}
}

func TestRegistry_AtMostOnePerName(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(NewProjectionBuilder("fraud_graph").Build()); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	if err := r.Register(NewProjectionBuilder("fraud_graph").Build()); err == nil {
		t.Fatal("Expected second register under same name to fail")
	}

	// Drop-then-create is the sanctioned replacement path
	r.Drop("fraud_graph")
	if err := r.Register(NewProjectionBuilder("fraud_graph").Build()); err != nil {
		t.Errorf("Register after drop failed: %v", err)
	}

	if _, ok := r.Get("fraud_graph"); !ok {
		t.Error("Expected projection to be retrievable after register")
	}
}
