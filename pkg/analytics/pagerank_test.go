package analytics

import (
	"math"
	"testing"
)

func scoresSum(result *PageRankResult) float64 {
	sum := 0.0
	for _, s := range result.Scores {
		sum += s
	}
	return sum
}

func TestPageRank_EmptyProjection(t *testing.T) {
	p := NewProjectionBuilder("g").Build()

	result, err := PageRank(p, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if len(result.Scores) != 0 {
		t.Errorf("Expected 0 scores for empty projection, got %d", len(result.Scores))
	}
	if !result.Converged {
		t.Error("Expected convergence for empty projection")
	}
}

func TestPageRank_SingleAccount(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddAccount("C1")
	p := b.Build()

	result, err := PageRank(p, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if math.Abs(result.Scores[0]-1.0) > 0.001 {
		t.Errorf("Expected score ~1.0 for single account, got %f", result.Scores[0])
	}
}

func TestPageRank_LinearChain(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddTransfer("A", "B", 100)
	b.AddTransfer("B", "C", 100)
	p := b.Build()

	result, err := PageRank(p, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}

	// In A->B->C, rank accumulates downstream
	if !(result.Scores[0] < result.Scores[1] && result.Scores[1] < result.Scores[2]) {
		t.Errorf("Expected rank(A) < rank(B) < rank(C), got %v", result.Scores)
	}
	if math.Abs(scoresSum(result)-1.0) > 0.001 {
		t.Errorf("Expected scores to sum to 1, got %f", scoresSum(result))
	}
}

func TestPageRank_WeightedByAmount(t *testing.T) {
	// S sends 90 to A and 10 to B: A should outrank B
	b := NewProjectionBuilder("g")
	b.AddTransfer("S", "A", 90)
	b.AddTransfer("S", "B", 10)
	p := b.Build()

	result, err := PageRank(p, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}

	if result.Scores[1] <= result.Scores[2] {
		t.Errorf("Expected amount-weighted rank(A) > rank(B), got A=%f B=%f",
			result.Scores[1], result.Scores[2])
	}
}

func TestPageRank_IterationCapRespected(t *testing.T) {
	b := NewProjectionBuilder("g")
	b.AddTransfer("A", "B", 1)
	b.AddTransfer("B", "C", 1)
	b.AddTransfer("C", "A", 1)
	p := b.Build()

	// Zero tolerance can never be met, so the cap must stop the loop
	opts := PageRankOptions{DampingFactor: 0.85, MaxIterations: 3, Tolerance: 0, Weighted: true}
	result, err := PageRank(p, opts)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}

	if result.Iterations != 3 {
		t.Errorf("Expected exactly 3 iterations, got %d", result.Iterations)
	}
	if result.Converged {
		t.Error("Expected non-converged result under zero tolerance")
	}

	// Partial results are still usable
	if math.Abs(scoresSum(result)-1.0) > 0.001 {
		t.Errorf("Non-converged scores must still be normalized, sum=%f", scoresSum(result))
	}
}

func TestPageRank_DanglingMassPreserved(t *testing.T) {
	// B receives everything and sends nothing
	b := NewProjectionBuilder("g")
	b.AddTransfer("A", "B", 50)
	p := b.Build()

	result, err := PageRank(p, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if math.Abs(scoresSum(result)-1.0) > 0.001 {
		t.Errorf("Dangling node must not leak rank mass, sum=%f", scoresSum(result))
	}
	if result.Scores[1] <= result.Scores[0] {
		t.Errorf("Expected receiver to outrank sender, got %v", result.Scores)
	}
}

func TestPageRank_InvalidOptions(t *testing.T) {
	p := NewProjectionBuilder("g").Build()

	if _, err := PageRank(p, PageRankOptions{DampingFactor: 1.5, MaxIterations: 10}); err == nil {
		t.Error("Expected error for damping factor outside (0, 1)")
	}
	if _, err := PageRank(p, PageRankOptions{DampingFactor: 0.85, MaxIterations: 0}); err == nil {
		t.Error("Expected error for zero iteration cap")
	}
}
