// Package rules implements pattern detectors over the transaction graph.
// Each detector answers one question about a single transaction: does this
// transaction sit inside a known structural fraud pattern? A detector that
// finds nothing returns (nil, nil); errors are reserved for store failures.
package rules

import "context"

// Alert is a fired detector result carrying a human-readable reason
type Alert interface {
	Reason() string
}

// Detector evaluates one structural pattern for a transaction
type Detector interface {
	// Name identifies the detector in logs, metrics and explanations
	Name() string

	// Detect returns a non-nil Alert when the pattern is present, (nil, nil)
	// when it is absent, and an error only when the store could not answer
	Detect(ctx context.Context, txID string) (Alert, error)
}
