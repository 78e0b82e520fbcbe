package assessment

import "fmt"

// ParseError means the oracle answered but its output could not be read
// as an assessment. It is never retried and never scored as a pass.
type ParseError struct {
	// Raw is the offending output. It is kept for the event log and must
	// not be shown to pupils.
	Raw []byte
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("assessment parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// OracleUnavailableError means the scoring oracle could not be reached
// within the retry budget: network failures, 5xx, 429 and timeouts.
type OracleUnavailableError struct {
	Err error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("scoring oracle unavailable: %v", e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }
