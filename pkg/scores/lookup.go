// Package scores reads back the per-account analytics written by the
// pipeline. A transaction's score report covers both endpoints: the sender's
// and receiver's community membership and centrality rank.
package scores

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
)

// scoreQuery fetches both endpoint score sets in one traversal. Properties
// are nullable: they exist only after a successful pipeline run.
const scoreQuery = `
MATCH (s:Client)-[t:TRANSACTED {txId: $txId}]->(r:Client)
RETURN s.rankScore AS senderRank, s.communityId AS senderCommunity,
       r.rankScore AS receiverRank, r.communityId AS receiverCommunity`

// CommunityUnavailable marks an endpoint whose community membership has not
// been computed yet
const CommunityUnavailable = "N/A"

// Report carries both endpoints' analytics scores. When the transaction is
// absent, or the pipeline has not run, every field holds its sentinel:
// zero ranks and "N/A" communities.
type Report struct {
	SenderRank        float64 `json:"sender_rank"`
	ReceiverRank      float64 `json:"receiver_rank"`
	SenderCommunity   string  `json:"sender_community"`
	ReceiverCommunity string  `json:"receiver_community"`
}

// emptyReport is the sentinel for missing transactions or unscored endpoints
func emptyReport() Report {
	return Report{
		SenderRank:        0,
		ReceiverRank:      0,
		SenderCommunity:   CommunityUnavailable,
		ReceiverCommunity: CommunityUnavailable,
	}
}

// Lookup reads endpoint scores for single transactions
type Lookup struct {
	store  store.Store
	logger logging.Logger
}

// NewLookup creates a score lookup with explicit dependencies
func NewLookup(s store.Store, logger logging.Logger) *Lookup {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Lookup{
		store:  s,
		logger: logger.With(logging.Component("score_lookup")),
	}
}

// Get returns the score report for a transaction's endpoints. A transaction
// that is absent from the graph, or endpoints the pipeline has not scored
// yet, yield the sentinel report rather than an error; only store-level
// failures are errors.
func (l *Lookup) Get(ctx context.Context, txID string) (Report, error) {
	if err := validation.ValidateTxID(txID); err != nil {
		return emptyReport(), err
	}

	start := time.Now()
	rec, err := l.store.ExecuteSingle(ctx, scoreQuery, map[string]any{"txId": txID})
	if err != nil {
		l.logger.Error("score lookup failed", logging.TxID(txID), logging.Error(err))
		return emptyReport(), err
	}
	if rec == nil {
		l.logger.Debug("no scores for transaction", logging.TxID(txID), logging.Latency(time.Since(start)))
		return emptyReport(), nil
	}

	report := emptyReport()
	if rank, ok := rec.Float64("senderRank"); ok {
		report.SenderRank = rank
	}
	if rank, ok := rec.Float64("receiverRank"); ok {
		report.ReceiverRank = rank
	}
	if community, ok := rec.Int64("senderCommunity"); ok {
		report.SenderCommunity = fmt.Sprintf("%d", community)
	}
	if community, ok := rec.Int64("receiverCommunity"); ok {
		report.ReceiverCommunity = fmt.Sprintf("%d", community)
	}

	return report, nil
}
