package analytics

import (
	"testing"
)

// addClique wires every ordered pair of the given accounts with a transfer
func addClique(b *ProjectionBuilder, amount float64, accounts ...string) {
	for _, from := range accounts {
		for _, to := range accounts {
			if from != to {
				b.AddTransfer(from, to, amount)
			}
		}
	}
}

func TestLouvain_EmptyProjection(t *testing.T) {
	p := NewProjectionBuilder("g").Build()

	result, err := Louvain(p, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("Expected 0 communities, got %d", result.Count)
	}
}

func TestLouvain_EdgelessGraphIsAllSingletons(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddAccount("C1")
	b.AddAccount("C2")
	b.AddAccount("C3")
	p := b.Build()

	result, err := Louvain(p, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}

	if result.Count != 3 {
		t.Errorf("Expected 3 singleton communities, got %d", result.Count)
	}
	seen := make(map[int64]bool)
	for _, c := range result.Assignments {
		if seen[c] {
			t.Errorf("Isolated nodes must not share a community: %v", result.Assignments)
		}
		seen[c] = true
	}
	if result.Modularity != 0 {
		t.Errorf("Edgeless graph has modularity 0, got %f", result.Modularity)
	}
}

func TestLouvain_TwoCliquesSplit(t *testing.T) {
	b := NewProjectionBuilder("g")
	addClique(b, 100, "A1", "A2", "A3", "A4")
	addClique(b, 100, "B1", "B2", "B3", "B4")
	b.AddTransfer("A1", "B1", 1) // weak bridge
	p := b.Build()

	result, err := Louvain(p, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}

	if result.Count != 2 {
		t.Fatalf("Expected 2 communities, got %d (assignments %v)", result.Count, result.Assignments)
	}

	// Indices 0..3 are the A clique, 4..7 the B clique
	for i := 1; i < 4; i++ {
		if result.Assignments[i] != result.Assignments[0] {
			t.Errorf("A clique split: %v", result.Assignments)
		}
	}
	for i := 5; i < 8; i++ {
		if result.Assignments[i] != result.Assignments[4] {
			t.Errorf("B clique split: %v", result.Assignments)
		}
	}
	if result.Assignments[0] == result.Assignments[4] {
		t.Errorf("Cliques merged across weak bridge: %v", result.Assignments)
	}

	if result.Modularity <= 0.3 {
		t.Errorf("Expected clearly modular partition, got Q=%f", result.Modularity)
	}
}

func TestLouvain_ConnectedPairMerges(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddTransfer("C1", "C2", 50)
	p := b.Build()

	result, err := Louvain(p, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("Expected a connected pair to share one community, got %d", result.Count)
	}
}

func TestLouvain_CommunityIDsAreCompact(t *testing.T) {
	b := NewProjectionBuilder("g")
	addClique(b, 10, "A1", "A2", "A3")
	addClique(b, 10, "B1", "B2", "B3")
	b.AddAccount("loner")
	p := b.Build()

	result, err := Louvain(p, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}

	maxID := int64(-1)
	for _, c := range result.Assignments {
		if c > maxID {
			maxID = c
		}
	}
	if int(maxID)+1 != result.Count {
		t.Errorf("Community ids must be compact: max id %d with count %d", maxID, result.Count)
	}
}

func TestLouvain_Deterministic(t *testing.T) {
	build := func() *Projection {
		b := NewProjectionBuilder("g")
		addClique(b, 20, "A1", "A2", "A3", "A4")
		addClique(b, 20, "B1", "B2", "B3")
		b.AddTransfer("A2", "B3", 2)
		b.AddTransfer("B1", "A4", 1)
		return b.Build()
	}

	first, err := Louvain(build(), DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}
	second, err := Louvain(build(), DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("Louvain failed: %v", err)
	}

	if len(first.Assignments) != len(second.Assignments) {
		t.Fatal("Assignment lengths differ between runs")
	}
	for i := range first.Assignments {
		if first.Assignments[i] != second.Assignments[i] {
			t.Fatalf("Non-deterministic assignments: %v vs %v", first.Assignments, second.Assignments)
		}
	}
}

func TestLouvain_InvalidOptions(t *testing.T) {
	p := NewProjectionBuilder("g").Build()
	if _, err := Louvain(p, CommunityOptions{MaxLevels: 0, MaxPasses: 5}); err == nil {
		t.Error("Expected error for zero level cap")
	}
}
