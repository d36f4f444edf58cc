package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-fraudgraph/pkg/rules"
	"github.com/dd0wney/cluso-fraudgraph/pkg/scores"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store/storetest"
)

// TestExplain_FullRing walks the whole read path with real detectors: a
// rule-flagged transaction whose receiver sits at the center of a fan-in,
// whose funds cycle back to the sender, and whose endpoints the pipeline has
// placed in one community.
func TestExplain_FullRing(t *testing.T) {
	fake := storetest.New()
	fake.StubQuery("t.isFraud AS isFraud", []store.Record{
		{
			"sender":           "C4001",
			"receiver":         "C9817",
			"amount":           182500.0,
			"type":             "TRANSFER",
			"step":             int64(311),
			"isFraud":          false,
			"ruleFlaggedFraud": true,
		},
	})
	fake.StubQuery("count(DISTINCT sender.id)", []store.Record{
		{"receiver": "C9817", "senders": int64(9)},
	})
	fake.StubQuery("length(path) AS pathLength", []store.Record{
		{"pathLength": int64(2)},
	})
	fake.StubQuery("s.rankScore AS senderRank", []store.Record{
		{
			"senderRank":        0.0214,
			"senderCommunity":   int64(6),
			"receiverRank":      0.1830,
			"receiverCommunity": int64(6),
		},
	})

	fanIn, err := rules.NewFanInDetector(fake, rules.DefaultFanInOptions(), nil, nil)
	require.NoError(t, err)
	circular, err := rules.NewCircularFlowDetector(fake, rules.DefaultCircularFlowOptions(), nil, nil)
	require.NoError(t, err)

	explainer, err := NewExplainer(fake, scores.NewLookup(fake, nil),
		[]rules.Detector{fanIn, circular}, DefaultOptions(), nil, nil)
	require.NoError(t, err)

	result, err := explainer.Explain(context.Background(), "tx-ring-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFraud, result.Status)
	require.NotNil(t, result.Data)
	assert.Equal(t, "C4001", result.Data.Sender)
	assert.Equal(t, "C9817", result.Data.Receiver)
	assert.True(t, result.Data.RuleFlaggedFraud)

	assert.Equal(t, "6", result.GDSScores.SenderCommunity)
	assert.Equal(t, "6", result.GDSScores.ReceiverCommunity)
	assert.InDelta(t, 0.1830, result.GDSScores.ReceiverRank, 1e-9)

	// Every signal shows up as its own reason
	assert.True(t, containsReason(result.Reasons, "business rule"))
	assert.True(t, containsReason(result.Reasons, "9 distinct senders"))
	assert.True(t, containsReason(result.Reasons, "circular money flow of length 3"))
	assert.True(t, containsReason(result.Reasons, "same detected community 6"))

	// Every value travelled as a bound parameter
	for _, call := range fake.Calls() {
		assert.NotContains(t, call.Query, "tx-ring-1")
		assert.Equal(t, "tx-ring-1", call.Params["txId"])
	}
}

// TestExplain_CleanTransactionEndToEnd exercises the same wiring for a
// transaction with no signals at all.
func TestExplain_CleanTransactionEndToEnd(t *testing.T) {
	fake := storetest.New()
	fake.StubQuery("t.isFraud AS isFraud", []store.Record{
		{
			"sender":           "C1",
			"receiver":         "C2",
			"amount":           40.0,
			"type":             "PAYMENT",
			"step":             int64(12),
			"isFraud":          false,
			"ruleFlaggedFraud": false,
		},
	})
	fake.StubQuery("count(DISTINCT sender.id)", []store.Record{
		{"receiver": "C2", "senders": int64(1)},
	})

	fanIn, err := rules.NewFanInDetector(fake, rules.DefaultFanInOptions(), nil, nil)
	require.NoError(t, err)
	circular, err := rules.NewCircularFlowDetector(fake, rules.DefaultCircularFlowOptions(), nil, nil)
	require.NoError(t, err)

	explainer, err := NewExplainer(fake, scores.NewLookup(fake, nil),
		[]rules.Detector{fanIn, circular}, DefaultOptions(), nil, nil)
	require.NoError(t, err)

	result, err := explainer.Explain(context.Background(), "tx-ok")
	require.NoError(t, err)

	assert.Equal(t, StatusCleared, result.Status)
	assert.Empty(t, result.Reasons)
	assert.Equal(t, scores.CommunityUnavailable, result.GDSScores.SenderCommunity)
}
