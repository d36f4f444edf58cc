package analytics

import (
	"fmt"
	"math"
)

// PageRankOptions configures the centrality computation
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Convergence threshold
	Weighted      bool    // Distribute rank proportionally to amount
}

// DefaultPageRankOptions returns the standard configuration:
// damping 0.85 and a 20-iteration cap.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		Weighted:      true,
	}
}

// PageRankResult contains centrality scores for all projected nodes.
// Scores are indexed by the projection's dense node index and sum to 1.
// A non-converged result is still usable: this is a best-effort analytic,
// not a correctness-critical computation.
type PageRankResult struct {
	Scores     []float64
	Iterations int
	Converged  bool
}

// PageRank computes influence scores over a projection. Rank flows along
// TRANSACTED arcs, proportionally to amount when Weighted is set; nodes
// whose outgoing weight is zero (sinks, or senders of zero-amount transfers)
// spread their rank uniformly so no mass is lost.
func PageRank(p *Projection, opts PageRankOptions) (*PageRankResult, error) {
	if opts.DampingFactor <= 0 || opts.DampingFactor >= 1 {
		return nil, fmt.Errorf("damping factor %v is outside (0, 1)", opts.DampingFactor)
	}
	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", opts.MaxIterations)
	}

	n := p.NodeCount()
	if n == 0 {
		return &PageRankResult{Scores: nil, Converged: true}, nil
	}

	// Per-arc transition share: weight/outStrength for weighted graphs,
	// 1/outDegree otherwise
	outShare := make([]float64, n)
	for i := 0; i < n; i++ {
		if opts.Weighted {
			outShare[i] = p.outStrength(i)
		} else {
			outShare[i] = float64(len(p.out[i]))
		}
	}

	scores := make([]float64, n)
	newScores := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range scores {
		scores[i] = initial
	}

	base := (1.0 - opts.DampingFactor) / float64(n)
	converged := false
	iterations := 0

	for iterations < opts.MaxIterations {
		iterations++

		// Mass held by nodes with nothing to distribute
		dangling := 0.0
		for i := 0; i < n; i++ {
			if outShare[i] == 0 {
				dangling += scores[i]
			}
		}
		danglingShare := opts.DampingFactor * dangling / float64(n)

		for i := 0; i < n; i++ {
			score := base + danglingShare
			for _, a := range p.in[i] {
				from := a.to
				if outShare[from] == 0 {
					continue
				}
				w := a.weight
				if !opts.Weighted {
					w = 1
				}
				score += opts.DampingFactor * scores[from] * (w / outShare[from])
			}
			newScores[i] = score
		}

		maxDiff := 0.0
		for i := range scores {
			if diff := math.Abs(newScores[i] - scores[i]); diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	// Normalize so scores always sum to 1, converged or not
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum > 0 {
		for i := range scores {
			scores[i] /= sum
		}
	}

	return &PageRankResult{
		Scores:     scores,
		Iterations: iterations,
		Converged:  converged,
	}, nil
}
