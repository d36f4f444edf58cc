package analytics

import (
	"fmt"
)

// CommunityOptions configures Louvain community detection
type CommunityOptions struct {
	MaxLevels int     // Cap on aggregation levels
	MaxPasses int     // Cap on local-move sweeps per level
	MinGain   float64 // Minimum modularity gain to accept a move
}

// DefaultCommunityOptions returns the standard configuration
func DefaultCommunityOptions() CommunityOptions {
	return CommunityOptions{
		MaxLevels: 10,
		MaxPasses: 20,
		MinGain:   1e-7,
	}
}

// CommunityResult is the partition produced by community detection.
// Assignments are indexed by the projection's dense node index; community
// ids are compact and renumbered in first-seen node order, so results are
// deterministic up to the algorithm's own tie-breaking.
type CommunityResult struct {
	Assignments []int64
	Count       int
	Modularity  float64
	Levels      int
}

// levelGraph is the symmetrized weighted view of one aggregation level.
// Modularity is defined on undirected weight, so directed transfer arcs
// u->v and v->u collapse into a single undirected weight.
type levelGraph struct {
	n         int
	neighbors [][]arc   // undirected adjacency, self loops excluded
	selfLoop  []float64 // accumulated intra-node weight
	strength  []float64 // k_i
	m2        float64   // 2m: total strength
}

// Louvain partitions the projection into communities by weighted modularity
// maximization: repeated local-move sweeps followed by graph aggregation,
// until no further modularity gain. Nodes with no edges end up in singleton
// communities.
func Louvain(p *Projection, opts CommunityOptions) (*CommunityResult, error) {
	if opts.MaxLevels < 1 || opts.MaxPasses < 1 {
		return nil, fmt.Errorf("community options must allow at least one level and one pass")
	}

	n := p.NodeCount()
	if n == 0 {
		return &CommunityResult{Assignments: nil, Count: 0}, nil
	}

	g := symmetrize(p)

	// assignment[i] tracks the original node i through aggregation levels
	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = i
	}

	if g.m2 == 0 {
		// Edgeless graph: every node is its own community
		return &CommunityResult{
			Assignments: compact(assignment),
			Count:       n,
			Modularity:  0,
			Levels:      0,
		}, nil
	}

	levels := 0
	for levels < opts.MaxLevels {
		comm, moved := localMove(g, opts)
		if !moved && levels > 0 {
			break
		}

		comm, count := renumber(comm)
		for i := range assignment {
			assignment[i] = comm[assignment[i]]
		}

		if count == g.n {
			// No merge happened; the partition is stable
			break
		}

		g = aggregate(g, comm, count)
		levels++

		if !moved {
			break
		}
	}

	final := compact(assignment)
	count := 0
	for _, c := range final {
		if int(c)+1 > count {
			count = int(c) + 1
		}
	}

	return &CommunityResult{
		Assignments: final,
		Count:       count,
		Modularity:  modularity(symmetrize(p), final),
		Levels:      levels,
	}, nil
}

// symmetrize collapses the projection's directed arcs into an undirected
// weighted graph
func symmetrize(p *Projection) *levelGraph {
	n := p.NodeCount()
	und := make([]map[int]float64, n)
	self := make([]float64, n)

	for u := 0; u < n; u++ {
		for _, a := range p.out[u] {
			v := a.to
			if v == u {
				self[u] += a.weight
				continue
			}
			if und[u] == nil {
				und[u] = make(map[int]float64)
			}
			if und[v] == nil {
				und[v] = make(map[int]float64)
			}
			und[u][v] += a.weight
			und[v][u] += a.weight
		}
	}

	g := &levelGraph{
		n:         n,
		neighbors: make([][]arc, n),
		selfLoop:  self,
		strength:  make([]float64, n),
	}
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			if w, ok := und[u][v]; ok && w > 0 {
				g.neighbors[u] = append(g.neighbors[u], arc{to: v, weight: w})
				g.strength[u] += w
			}
		}
		g.strength[u] += 2 * self[u]
		g.m2 += g.strength[u]
	}
	return g
}

// localMove performs modularity-maximizing local move sweeps. Nodes are
// visited in index order and moved to the neighboring community with the
// best gain; ties break toward the lowest community id.
func localMove(g *levelGraph, opts CommunityOptions) ([]int, bool) {
	comm := make([]int, g.n)
	commTot := make([]float64, g.n)
	for i := 0; i < g.n; i++ {
		comm[i] = i
		commTot[i] = g.strength[i]
	}

	anyMoved := false
	for pass := 0; pass < opts.MaxPasses; pass++ {
		movedThisPass := false

		for u := 0; u < g.n; u++ {
			current := comm[u]

			// Weight from u into each adjacent community
			linkTo := make(map[int]float64)
			for _, a := range g.neighbors[u] {
				linkTo[comm[a.to]] += a.weight
			}

			// Detach u before evaluating candidates
			commTot[current] -= g.strength[u]

			bestComm := current
			bestGain := linkTo[current] - g.strength[u]*commTot[current]/g.m2
			for c, w := range linkTo {
				if c == current {
					continue
				}
				gain := w - g.strength[u]*commTot[c]/g.m2
				if gain > bestGain+opts.MinGain || (gain >= bestGain && c < bestComm) {
					bestGain = gain
					bestComm = c
				}
			}

			commTot[bestComm] += g.strength[u]
			if bestComm != current {
				comm[u] = bestComm
				movedThisPass = true
				anyMoved = true
			}
		}

		if !movedThisPass {
			break
		}
	}

	return comm, anyMoved
}

// renumber maps arbitrary community labels to compact ids in first-seen
// node order
func renumber(comm []int) ([]int, int) {
	next := 0
	mapping := make(map[int]int)
	out := make([]int, len(comm))
	for i, c := range comm {
		id, seen := mapping[c]
		if !seen {
			id = next
			mapping[c] = id
			next++
		}
		out[i] = id
	}
	return out, next
}

// compact renumbers an int assignment into the int64 ids written back to
// the store
func compact(assignment []int) []int64 {
	renumbered, _ := renumber(assignment)
	out := make([]int64, len(renumbered))
	for i, c := range renumbered {
		out[i] = int64(c)
	}
	return out
}

// aggregate collapses each community into a super-node for the next level
func aggregate(g *levelGraph, comm []int, count int) *levelGraph {
	und := make([]map[int]float64, count)
	self := make([]float64, count)

	for u := 0; u < g.n; u++ {
		cu := comm[u]
		self[cu] += g.selfLoop[u]
		for _, a := range g.neighbors[u] {
			cv := comm[a.to]
			if a.to < u {
				continue // each undirected edge once
			}
			if cu == cv {
				self[cu] += a.weight
				continue
			}
			if und[cu] == nil {
				und[cu] = make(map[int]float64)
			}
			if und[cv] == nil {
				und[cv] = make(map[int]float64)
			}
			und[cu][cv] += a.weight
			und[cv][cu] += a.weight
		}
	}

	next := &levelGraph{
		n:         count,
		neighbors: make([][]arc, count),
		selfLoop:  self,
		strength:  make([]float64, count),
	}
	for u := 0; u < count; u++ {
		for v := 0; v < count; v++ {
			if w, ok := und[u][v]; ok && w > 0 {
				next.neighbors[u] = append(next.neighbors[u], arc{to: v, weight: w})
				next.strength[u] += w
			}
		}
		next.strength[u] += 2 * self[u]
		next.m2 += next.strength[u]
	}
	return next
}

// modularity computes the weighted modularity of a partition over the
// level-0 graph
func modularity(g *levelGraph, assignment []int64) float64 {
	if g.m2 == 0 {
		return 0
	}

	count := 0
	for _, c := range assignment {
		if int(c)+1 > count {
			count = int(c) + 1
		}
	}

	intra := make([]float64, count)
	tot := make([]float64, count)

	for u := 0; u < g.n; u++ {
		c := int(assignment[u])
		tot[c] += g.strength[u]
		intra[c] += 2 * g.selfLoop[u]
		for _, a := range g.neighbors[u] {
			if assignment[a.to] == assignment[u] {
				intra[c] += a.weight // each intra edge seen from both ends
			}
		}
	}

	q := 0.0
	for c := 0; c < count; c++ {
		q += intra[c]/g.m2 - (tot[c]/g.m2)*(tot[c]/g.m2)
	}
	return q
}
