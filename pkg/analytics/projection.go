// Package analytics implements the whole-graph analytics pipeline: a named
// in-memory projection of the transaction graph, community detection and
// centrality ranking over it, and write-back of the resulting scores.
package analytics

// arc is one directed, weighted adjacency entry
type arc struct {
	to     int
	weight float64
}

// Projection is an ephemeral, immutable snapshot of the transaction graph:
// Client accounts as nodes, TRANSACTED relationships as weighted directed
// arcs (weight = amount). It exists only for the duration of an analytics
// run and is superseded when the next run drops it.
type Projection struct {
	name        string
	ids         []string
	out         [][]arc
	in          [][]arc
	totalWeight float64
	edgeCount   int
}

// Name returns the projection name
func (p *Projection) Name() string { return p.name }

// NodeCount returns the number of projected accounts
func (p *Projection) NodeCount() int { return len(p.ids) }

// EdgeCount returns the number of projected transactions
func (p *Projection) EdgeCount() int { return p.edgeCount }

// AccountID returns the external account id for a dense node index
func (p *Projection) AccountID(i int) string { return p.ids[i] }

// outStrength returns the summed outgoing weight of a node
func (p *Projection) outStrength(i int) float64 {
	var s float64
	for _, a := range p.out[i] {
		s += a.weight
	}
	return s
}

// ProjectionBuilder accumulates accounts and transfers, then freezes them
// into a Projection. Accounts are deduplicated; arcs are not (parallel
// transactions stay parallel, as each carries its own amount).
type ProjectionBuilder struct {
	name  string
	ids   []string
	index map[string]int
	out   [][]arc
	in    [][]arc
	total float64
	edges int
}

// NewProjectionBuilder creates a builder for a projection with the given name
func NewProjectionBuilder(name string) *ProjectionBuilder {
	return &ProjectionBuilder{
		name:  name,
		index: make(map[string]int),
	}
}

// AddAccount registers an account node, returning its dense index.
// Adding the same id twice is a no-op.
func (b *ProjectionBuilder) AddAccount(id string) int {
	if i, exists := b.index[id]; exists {
		return i
	}
	i := len(b.ids)
	b.index[id] = i
	b.ids = append(b.ids, id)
	b.out = append(b.out, nil)
	b.in = append(b.in, nil)
	return i
}

// AddTransfer registers a directed transfer. Unknown endpoints are added
// implicitly. Amounts are non-negative in well-formed data, so a negative
// value is clamped to zero rather than carried as a weight.
func (b *ProjectionBuilder) AddTransfer(from, to string, amount float64) {
	if amount < 0 {
		amount = 0
	}
	f := b.AddAccount(from)
	t := b.AddAccount(to)
	b.out[f] = append(b.out[f], arc{to: t, weight: amount})
	b.in[t] = append(b.in[t], arc{to: f, weight: amount})
	b.total += amount
	b.edges++
}

// Build freezes the accumulated graph into a Projection
func (b *ProjectionBuilder) Build() *Projection {
	return &Projection{
		name:        b.name,
		ids:         b.ids,
		out:         b.out,
		in:          b.in,
		totalWeight: b.total,
		edgeCount:   b.edges,
	}
}
