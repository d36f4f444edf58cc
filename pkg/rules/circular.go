package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/metrics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
)

// cycleQueryTemplate searches for any return path from the transaction's
// receiver back to its sender, closing a cycle through the queried edge.
// Cypher cannot bind variable-length bounds as parameters, so the hop bound
// is range-validated as a small integer before it is formatted in; txId is a
// bound parameter. One witness path is enough.
const cycleQueryTemplate = `
MATCH (a:Client)-[t:TRANSACTED {txId: $txId}]->(b:Client)
MATCH path = (b)-[:TRANSACTED*1..%d]->(a)
RETURN length(path) AS pathLength
LIMIT 1`

// CircularFlowOptions tunes the circular-flow detector
type CircularFlowOptions struct {
	// MaxHops bounds the return-path search from receiver back to sender
	MaxHops int `validate:"min=1,max=8"`

	// Timeout bounds a single detection query
	Timeout time.Duration `validate:"min=0"`
}

// DefaultCircularFlowOptions returns the standard circular-flow configuration
func DefaultCircularFlowOptions() CircularFlowOptions {
	return CircularFlowOptions{
		MaxHops: 4,
		Timeout: 10 * time.Second,
	}
}

// CircularFlowAlert reports funds routed back to their origin. CycleLength
// counts every edge in the cycle including the queried transaction itself.
type CircularFlowAlert struct {
	CycleLength int
}

// Reason renders the alert for an explanation
func (a *CircularFlowAlert) Reason() string {
	return fmt.Sprintf(
		"Transaction closes a circular money flow of length %d back to its sender",
		a.CycleLength)
}

// CircularFlowDetector detects transactions whose funds return to the sender
// through a bounded chain of further transfers
type CircularFlowDetector struct {
	store   store.Store
	opts    CircularFlowOptions
	query   string
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewCircularFlowDetector creates a circular-flow detector with explicit
// dependencies. The hop bound is validated once here, before it is ever
// placed into query text.
func NewCircularFlowDetector(s store.Store, opts CircularFlowOptions, logger logging.Logger, m *metrics.Registry) (*CircularFlowDetector, error) {
	if err := validation.ValidateStruct(opts); err != nil {
		return nil, fmt.Errorf("invalid circular-flow options: %w", err)
	}
	if err := validation.ValidateCycleHops(opts.MaxHops); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CircularFlowDetector{
		store:   s,
		opts:    opts,
		query:   fmt.Sprintf(cycleQueryTemplate, opts.MaxHops),
		logger:  logger.With(logging.Component("circular_detector")),
		metrics: m,
	}, nil
}

// Name identifies the detector
func (d *CircularFlowDetector) Name() string { return "circular_flow" }

// Detect checks whether any path of at most MaxHops transfers routes the
// transaction's funds back to the sender. Only the first witness path is
// fetched; absence of any return path is a clean (nil, nil) result.
func (d *CircularFlowDetector) Detect(ctx context.Context, txID string) (Alert, error) {
	if err := validation.ValidateTxID(txID); err != nil {
		return nil, err
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	rec, err := d.store.ExecuteSingle(ctx, d.query, map[string]any{"txId": txID})
	if err != nil {
		d.metrics.RecordDetector(d.Name(), "error", time.Since(start))
		d.logger.Error("circular-flow detection failed", logging.TxID(txID), logging.Error(err))
		return nil, err
	}
	if rec == nil {
		d.metrics.RecordDetector(d.Name(), "clear", time.Since(start))
		return nil, nil
	}

	pathLength, _ := rec.Int64("pathLength")
	// The queried edge itself closes the cycle
	cycleLength := int(pathLength) + 1

	d.metrics.RecordDetector(d.Name(), "alert", time.Since(start))
	d.logger.Info("circular flow detected",
		logging.TxID(txID),
		logging.Int("cycle_length", cycleLength))

	return &CircularFlowAlert{CycleLength: cycleLength}, nil
}
