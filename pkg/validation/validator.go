package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxProjectionNameLength = 64
	MaxTxIDLength           = 128
	MinCycleHops            = 1
	MaxCycleHops            = 8

	// identifierPattern is the allow-list for anything interpolated into
	// query text as a database-object name (projection names, hop bounds).
	// Values never go through this path; they are always bound parameters.
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// ValidateStruct validates any struct with `validate` tags
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateProjectionName checks that a projection name is safe to use as a
// graph-object identifier. Projection names cannot be bound as query
// parameters, so they must pass the identifier allow-list before they are
// ever placed into query text.
func ValidateProjectionName(name string) error {
	if name == "" {
		return errors.New("projection name cannot be empty")
	}
	if len(name) > MaxProjectionNameLength {
		return fmt.Errorf("projection name exceeds maximum length of %d characters", MaxProjectionNameLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("projection name '%s' contains invalid characters (only alphanumeric and underscore allowed, must not start with a digit)", name)
	}
	return nil
}

// ValidateTxID checks a transaction identifier before it is bound as a query
// parameter. Transaction ids are opaque external keys, so only emptiness and
// length are enforced; they are never interpolated into query text.
func ValidateTxID(txID string) error {
	if txID == "" {
		return errors.New("transaction id cannot be empty")
	}
	if len(txID) > MaxTxIDLength {
		return fmt.Errorf("transaction id exceeds maximum length of %d characters", MaxTxIDLength)
	}
	return nil
}

// ValidateCycleHops checks the circular-flow hop bound. The bound is spliced
// into the variable-length pattern of the cycle query (Cypher cannot bind it
// as a parameter), so it is restricted to a small integer range.
func ValidateCycleHops(hops int) error {
	if hops < MinCycleHops || hops > MaxCycleHops {
		return fmt.Errorf("cycle hop bound %d is outside range [%d, %d]", hops, MinCycleHops, MaxCycleHops)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			return fmt.Errorf("%s: failed validation '%s' (value: %v)",
				fieldErr.Field(), fieldErr.Tag(), fieldErr.Value())
		}
	}
	return err
}
