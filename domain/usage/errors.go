package usage

import "errors"

// Failure categories. Commands map each category to a distinct process exit
// code so a supervising process can tell configuration problems from
// infrastructure ones. Wrap with fmt.Errorf("...: %w", Err...) and test with
// errors.Is.
var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrInvalidPeriod    = errors.New("invalid reporting period")
	ErrSourceFetch      = errors.New("source fetch failed")
	ErrAnonymization    = errors.New("anonymization failed")
	ErrDestinationWrite = errors.New("destination write failed")
)
