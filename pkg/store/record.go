package store

// Record is a single query result row with named fields.
// Accessors are null-tolerant: a missing key or a null value reports
// ok=false instead of a zero value, so callers can distinguish
// "never computed" from "computed as zero".
type Record map[string]any

// String returns the named field as a string
func (r Record) String(key string) (string, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int64 returns the named field as an int64, accepting the integer and
// float encodings drivers commonly produce
func (r Record) Int64(key string) (int64, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Float64 returns the named field as a float64
func (r Record) Float64(key string) (float64, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Bool returns the named field as a bool. Numeric flag encodings (PaySim
// exports isFraud as 0/1) are accepted.
func (r Record) Bool(key string) (bool, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case float64:
		return b != 0, true
	default:
		return false, false
	}
}
