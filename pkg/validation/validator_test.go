package validation

import (
	"strings"
	"testing"
)

func TestValidateProjectionName(t *testing.T) {
	valid := []string{"fraud_graph", "g", "Projection_2", "_scratch"}
	for _, name := range valid {
		if err := ValidateProjectionName(name); err != nil {
			t.Errorf("Expected %q to be valid: %v", name, err)
		}
	}

	invalid := []string{
		"",
		"fraud graph",
		"fraud-graph",
		"1graph",
		"g'); CALL db.dropAll(); //",
		strings.Repeat("a", MaxProjectionNameLength+1),
	}
	for _, name := range invalid {
		if err := ValidateProjectionName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestValidateTxID(t *testing.T) {
	// txIds are bound parameters, so arbitrary content is fine
	if err := ValidateTxID("tx-001 OR 1=1"); err != nil {
		t.Errorf("Bound-parameter tx ids should not be content-restricted: %v", err)
	}

	if err := ValidateTxID(""); err == nil {
		t.Error("Expected empty tx id to be rejected")
	}
	if err := ValidateTxID(strings.Repeat("x", MaxTxIDLength+1)); err == nil {
		t.Error("Expected oversized tx id to be rejected")
	}
}

func TestValidateCycleHops(t *testing.T) {
	for _, hops := range []int{1, 4, 8} {
		if err := ValidateCycleHops(hops); err != nil {
			t.Errorf("Expected %d hops to be valid: %v", hops, err)
		}
	}
	for _, hops := range []int{0, -1, 9, 100} {
		if err := ValidateCycleHops(hops); err == nil {
			t.Errorf("Expected %d hops to be rejected", hops)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type thresholds struct {
		MinSenders int `validate:"min=1"`
	}

	if err := ValidateStruct(&thresholds{MinSenders: 5}); err != nil {
		t.Errorf("Expected valid struct to pass: %v", err)
	}
	if err := ValidateStruct(&thresholds{MinSenders: 0}); err == nil {
		t.Error("Expected min=1 violation to be reported")
	}
}
