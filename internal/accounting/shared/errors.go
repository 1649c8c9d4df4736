package shared

import "errors"

var (
	// ErrInvalidPeriod indicates a period token that does not match its granularity.
	ErrInvalidPeriod = errors.New("accounting: invalid period")
	// ErrMissingDataSource indicates a required table or column is absent.
	ErrMissingDataSource = errors.New("accounting: data source missing")
	// ErrMissingBalanceSource indicates the snapshot table carries neither a signed
	// balance column nor an opening debit/credit pair.
	ErrMissingBalanceSource = errors.New("accounting: no balance source available")
	// ErrComputation wraps unexpected failures during report aggregation.
	ErrComputation = errors.New("accounting: computation failed")
)
