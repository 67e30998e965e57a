package domain

import (
	"fmt"
	"time"
)

// ConfigurationError means the run was asked to start with invalid
// settings. It is surfaced before any day is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// SelectionIntegrityError means a strategy selected a symbol that is
// not in that day's universe. The run aborts at the first violation.
type SelectionIntegrityError struct {
	Date   time.Time
	Symbol string
}

func (e SelectionIntegrityError) Error() string {
	return fmt.Sprintf("selection on %s references %s which is not in that day's universe", e.Date.Format("2006-01-02"), e.Symbol)
}

// MissingReturnDataError means a symbol holds weight on a day with no
// forward return. Treating it as zero would silently corrupt the
// return accounting, so the run aborts instead.
type MissingReturnDataError struct {
	Date   time.Time
	Symbol string
}

func (e MissingReturnDataError) Error() string {
	return fmt.Sprintf("no forward return for held symbol %s on %s", e.Symbol, e.Date.Format("2006-01-02"))
}

// DegenerateCompoundingError means the compounded net value reached
// zero or below; annualization is undefined past that point.
type DegenerateCompoundingError struct {
	Date     time.Time
	NetValue float64
}

func (e DegenerateCompoundingError) Error() string {
	return fmt.Sprintf("net value reached %f on %s, compounding is undefined", e.NetValue, e.Date.Format("2006-01-02"))
}
