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

// fanInQuery anchors on the queried transaction, then counts how many
// distinct senders paid the same receiver inside the trailing window ending
// at that transaction's timestamp. The window bound and txId travel as
// parameters; nothing is interpolated.
const fanInQuery = `
MATCH (s:Client)-[t:TRANSACTED {txId: $txId}]->(r:Client)
WITH r, t.timestamp AS t0
MATCH (sender:Client)-[x:TRANSACTED]->(r)
WHERE x.timestamp <= t0 AND x.timestamp >= t0 - duration({seconds: $windowSeconds})
RETURN r.id AS receiver, count(DISTINCT sender.id) AS senders`

// FanInOptions tunes the fan-in detector
type FanInOptions struct {
	// MinSenders is the distinct-sender threshold; the detector fires only
	// strictly above it
	MinSenders int `validate:"min=1"`

	// Window is the trailing time window ending at the queried transaction
	Window time.Duration `validate:"gt=0"`

	// Timeout bounds a single detection query
	Timeout time.Duration `validate:"min=0"`
}

// DefaultFanInOptions returns the standard fan-in configuration
func DefaultFanInOptions() FanInOptions {
	return FanInOptions{
		MinSenders: 5,
		Window:     60 * time.Minute,
		Timeout:    10 * time.Second,
	}
}

// FanInAlert reports many distinct senders converging on one receiver, the
// collection half of a classic mule pattern.
type FanInAlert struct {
	Receiver        string
	DistinctSenders int
	Window          time.Duration
}

// Reason renders the alert for an explanation
func (a *FanInAlert) Reason() string {
	return fmt.Sprintf(
		"Receiver %s collected funds from %d distinct senders within %s (fan-in pattern)",
		a.Receiver, a.DistinctSenders, a.Window)
}

// FanInDetector detects many-senders-to-one-receiver convergence around a
// transaction
type FanInDetector struct {
	store   store.Store
	opts    FanInOptions
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewFanInDetector creates a fan-in detector with explicit dependencies
func NewFanInDetector(s store.Store, opts FanInOptions, logger logging.Logger, m *metrics.Registry) (*FanInDetector, error) {
	if err := validation.ValidateStruct(opts); err != nil {
		return nil, fmt.Errorf("invalid fan-in options: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FanInDetector{
		store:   s,
		opts:    opts,
		logger:  logger.With(logging.Component("fanin_detector")),
		metrics: m,
	}, nil
}

// Name identifies the detector
func (d *FanInDetector) Name() string { return "fan_in" }

// Detect checks whether the transaction's receiver collected from strictly
// more than MinSenders distinct senders inside the trailing window. A
// transaction that is absent from the graph, or a receiver below the
// threshold, is a clean (nil, nil) result.
func (d *FanInDetector) Detect(ctx context.Context, txID string) (Alert, error) {
	if err := validation.ValidateTxID(txID); err != nil {
		return nil, err
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	rec, err := d.store.ExecuteSingle(ctx, fanInQuery, map[string]any{
		"txId":          txID,
		"windowSeconds": int64(d.opts.Window.Seconds()),
	})
	if err != nil {
		d.metrics.RecordDetector(d.Name(), "error", time.Since(start))
		d.logger.Error("fan-in detection failed", logging.TxID(txID), logging.Error(err))
		return nil, err
	}
	if rec == nil {
		// Transaction not in the graph: nothing to evaluate
		d.metrics.RecordDetector(d.Name(), "clear", time.Since(start))
		return nil, nil
	}

	receiver, _ := rec.String("receiver")
	senders, _ := rec.Int64("senders")

	if int(senders) <= d.opts.MinSenders {
		d.metrics.RecordDetector(d.Name(), "clear", time.Since(start))
		d.logger.Debug("fan-in below threshold",
			logging.TxID(txID),
			logging.Int("senders", int(senders)))
		return nil, nil
	}

	d.metrics.RecordDetector(d.Name(), "alert", time.Since(start))
	d.logger.Info("fan-in pattern detected",
		logging.TxID(txID),
		logging.String("receiver", receiver),
		logging.Int("senders", int(senders)))

	return &FanInAlert{
		Receiver:        receiver,
		DistinctSenders: int(senders),
		Window:          d.opts.Window,
	}, nil
}
