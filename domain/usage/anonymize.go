package usage

import (
	"context"
	"fmt"
)

// ReservedIdentity is the shared production-job account. It denotes a
// non-personal account the destination system recognizes under a reserved
// name, so it is never sent to the anonymization service.
const (
	ReservedIdentity = "aliprod"
	ReservedToken    = "aliprod"
)

// Anonymizer replaces a raw user identity with a pseudonymous token via a
// deterministic one-way transform. Implementations live in connectors; tests
// substitute stubs.
type Anonymizer interface {
	Anonymize(ctx context.Context, identity string) (string, error)
}

// AnonymizeAggregates replaces the user identity of every aggregate with its
// pseudonymous token, leaving all other fields untouched. Any service failure
// aborts the whole run: a row must never reach the destination with a raw
// personal identity because an error was swallowed.
func AnonymizeAggregates(ctx context.Context, svc Anonymizer, aggs []Aggregate) ([]Aggregate, error) {
	out := make([]Aggregate, len(aggs))
	for i, a := range aggs {
		if a.Key.UserIdentity == ReservedIdentity {
			a.Key.UserIdentity = ReservedToken
			out[i] = a
			continue
		}
		token, err := svc.Anonymize(ctx, a.Key.UserIdentity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnonymization, err)
		}
		if token == "" {
			return nil, fmt.Errorf("%w: empty token for identity", ErrAnonymization)
		}
		a.Key.UserIdentity = token
		out[i] = a
	}
	return out, nil
}
