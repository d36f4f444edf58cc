// Package explain aggregates stored fraud flags, pattern detector results
// and graph analytics scores into a single human-readable verdict for one
// transaction.
package explain

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/metrics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/rules"
	"github.com/dd0wney/cluso-fraudgraph/pkg/scores"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
)

// factsQuery fetches the transaction's endpoints and stored properties.
// txId is unique per edge; more than one row is a data-integrity failure
// surfaced by the store as an ambiguity error.
const factsQuery = `
MATCH (s:Client)-[t:TRANSACTED {txId: $txId}]->(r:Client)
RETURN s.id AS sender, r.id AS receiver,
       t.amount AS amount, t.type AS type, t.step AS step,
       t.isFraud AS isFraud, t.ruleFlaggedFraud AS ruleFlaggedFraud`

// notFoundExplanation is the terminal message for unknown transaction ids
const notFoundExplanation = "Transaction ID not found in graph."

// Status is the verdict of an explanation
type Status string

const (
	StatusFraud    Status = "FRAUD"
	StatusCleared  Status = "CLEARED"
	StatusNotFound Status = "NOT_FOUND"
)

// VerdictPolicy selects how detector results influence the verdict
type VerdictPolicy string

const (
	// PolicyFlagBased derives the verdict from the stored fraud flags only;
	// detector results are informative annotations
	PolicyFlagBased VerdictPolicy = "flag_based"

	// PolicyPatternAugmented additionally returns FRAUD when any pattern
	// detector fires
	PolicyPatternAugmented VerdictPolicy = "pattern_augmented"
)

// FailurePolicy selects what a detector failure means for the verdict
type FailurePolicy string

const (
	// FailClosed treats an unanswerable detector as suspicious: the verdict
	// becomes FRAUD with an explicit detector-unavailable reason
	FailClosed FailurePolicy = "fail_closed"

	// FailOpen proceeds on the stored flags alone and annotates the
	// degraded signal
	FailOpen FailurePolicy = "fail_open"
)

// TransactionFacts are the stored properties of one transaction
type TransactionFacts struct {
	Sender           string  `json:"sender"`
	Receiver         string  `json:"receiver"`
	Amount           float64 `json:"amount"`
	Type             string  `json:"type"`
	Step             int64   `json:"step"`
	IsFraud          bool    `json:"is_fraud"`
	RuleFlaggedFraud bool    `json:"rule_flagged_fraud"`
}

// Explanation is the aggregated result for one transaction
type Explanation struct {
	Status      Status            `json:"status"`
	Explanation string            `json:"explanation"`
	Reasons     []string          `json:"reasons"`
	Data        *TransactionFacts `json:"data,omitempty"`
	GDSScores   scores.Report     `json:"gds_scores"`
}

// Options tunes the explainer's verdict behavior
type Options struct {
	Verdict           VerdictPolicy `validate:"oneof=flag_based pattern_augmented"`
	OnDetectorFailure FailurePolicy `validate:"oneof=fail_open fail_closed"`
}

// DefaultOptions returns flag-based verdicts with fail-closed detectors
func DefaultOptions() Options {
	return Options{
		Verdict:           PolicyFlagBased,
		OnDetectorFailure: FailClosed,
	}
}

// Explainer builds fraud explanations for single transactions. The path is
// read-only and safe for concurrent and repeated calls.
type Explainer struct {
	store     store.Store
	lookup    *scores.Lookup
	detectors []rules.Detector
	opts      Options
	logger    logging.Logger
	metrics   *metrics.Registry
}

// NewExplainer creates an explainer with explicit dependencies
func NewExplainer(s store.Store, lookup *scores.Lookup, detectors []rules.Detector, opts Options, logger logging.Logger, m *metrics.Registry) (*Explainer, error) {
	if err := validation.ValidateStruct(opts); err != nil {
		return nil, fmt.Errorf("invalid explainer options: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Explainer{
		store:     s,
		lookup:    lookup,
		detectors: detectors,
		opts:      opts,
		logger:    logger.With(logging.Component("explainer")),
		metrics:   m,
	}, nil
}

// Explain aggregates everything known about a transaction into a verdict.
// An unknown transaction id is a terminal NOT_FOUND explanation, not an
// error; errors are reserved for store failures on the facts lookup and for
// malformed input.
func (e *Explainer) Explain(ctx context.Context, txID string) (*Explanation, error) {
	if err := validation.ValidateTxID(txID); err != nil {
		return nil, err
	}

	start := time.Now()
	log := e.logger.With(logging.TxID(txID))

	rec, err := e.store.ExecuteSingle(ctx, factsQuery, map[string]any{"txId": txID})
	if err != nil {
		e.metrics.RecordExplanation("error", time.Since(start))
		log.Error("transaction lookup failed", logging.Error(err))
		return nil, err
	}
	if rec == nil {
		e.metrics.RecordExplanation(string(StatusNotFound), time.Since(start))
		log.Info("transaction not found")
		return &Explanation{
			Status:      StatusNotFound,
			Explanation: notFoundExplanation,
			Reasons:     []string{},
			GDSScores:   sentinelReport(),
		}, nil
	}

	facts := factsFromRecord(rec)

	// Scores are annotations: a failed score lookup degrades the report to
	// its sentinel instead of blocking the verdict
	report, scoresOK := e.fetchScores(ctx, log, txID)

	reasons := make([]string, 0, 4)
	if facts.IsFraud {
		reasons = append(reasons, "Transaction carries the isFraud label")
	}
	if facts.RuleFlaggedFraud {
		reasons = append(reasons, "Transaction was flagged by the business rule engine")
	}

	patternHit, detectorFailed := e.runDetectors(ctx, log, txID, &reasons)
	reasons = appendScoreReasons(reasons, report, scoresOK)

	verdict := e.verdict(facts, patternHit, detectorFailed)

	status := StatusCleared
	explanation := "Transaction assessed as legitimate"
	if verdict {
		status = StatusFraud
		explanation = "Transaction assessed as fraudulent"
	}

	e.metrics.RecordExplanation(string(status), time.Since(start))
	log.Info("explanation complete",
		logging.Verdict(string(status)),
		logging.Int("reasons", len(reasons)),
		logging.Latency(time.Since(start)))

	return &Explanation{
		Status:      status,
		Explanation: explanation,
		Reasons:     reasons,
		Data:        facts,
		GDSScores:   report,
	}, nil
}

// fetchScores fetches the endpoint score report, degrading to the sentinel
// on store failure
func (e *Explainer) fetchScores(ctx context.Context, log logging.Logger, txID string) (scores.Report, bool) {
	report, err := e.lookup.Get(ctx, txID)
	if err != nil {
		log.Warn("endpoint scores unavailable", logging.Error(err))
		return report, false
	}
	return report, true
}

// runDetectors evaluates every detector, appending alert reasons and
// policy-dependent failure annotations
func (e *Explainer) runDetectors(ctx context.Context, log logging.Logger, txID string, reasons *[]string) (patternHit, detectorFailed bool) {
	for _, d := range e.detectors {
		alert, err := d.Detect(ctx, txID)
		if err != nil {
			detectorFailed = true
			switch e.opts.OnDetectorFailure {
			case FailOpen:
				*reasons = append(*reasons, fmt.Sprintf(
					"Pattern detector %s unavailable; verdict based on stored flags only", d.Name()))
			default:
				*reasons = append(*reasons, fmt.Sprintf(
					"Pattern detector %s unavailable; treating transaction as suspicious", d.Name()))
			}
			log.Warn("detector failed", logging.String("detector", d.Name()), logging.Error(err))
			continue
		}
		if alert != nil {
			patternHit = true
			*reasons = append(*reasons, alert.Reason())
		}
	}
	return patternHit, detectorFailed
}

// verdict applies the configured policies to everything gathered
func (e *Explainer) verdict(facts *TransactionFacts, patternHit, detectorFailed bool) bool {
	fraud := facts.IsFraud || facts.RuleFlaggedFraud
	if e.opts.Verdict == PolicyPatternAugmented && patternHit {
		fraud = true
	}
	if detectorFailed && e.opts.OnDetectorFailure == FailClosed {
		fraud = true
	}
	return fraud
}

func factsFromRecord(rec store.Record) *TransactionFacts {
	facts := &TransactionFacts{}
	facts.Sender, _ = rec.String("sender")
	facts.Receiver, _ = rec.String("receiver")
	facts.Amount, _ = rec.Float64("amount")
	facts.Type, _ = rec.String("type")
	facts.Step, _ = rec.Int64("step")
	facts.IsFraud, _ = rec.Bool("isFraud")
	facts.RuleFlaggedFraud, _ = rec.Bool("ruleFlaggedFraud")
	return facts
}

// appendScoreReasons adds the graph-analytics annotations: shared community
// membership and endpoint centrality ranks
func appendScoreReasons(reasons []string, report scores.Report, scoresOK bool) []string {
	if !scoresOK {
		return append(reasons, "Endpoint analytics scores unavailable")
	}
	if report.SenderCommunity != scores.CommunityUnavailable &&
		report.SenderCommunity == report.ReceiverCommunity {
		reasons = append(reasons, fmt.Sprintf(
			"Sender and receiver belong to the same detected community %s", report.SenderCommunity))
	}
	if report.SenderRank > 0 || report.ReceiverRank > 0 {
		reasons = append(reasons, fmt.Sprintf(
			"Endpoint centrality ranks: sender %.6f, receiver %.6f",
			report.SenderRank, report.ReceiverRank))
	}
	return reasons
}

func sentinelReport() scores.Report {
	return scores.Report{
		SenderCommunity:   scores.CommunityUnavailable,
		ReceiverCommunity: scores.CommunityUnavailable,
	}
}
