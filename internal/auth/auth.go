// Package auth resolves a shared passcode to the newsletter it unlocks.
//
// There are no user accounts. Every member of a newsletter shares one
// passcode, so authentication is a scan over the registry: the first
// newsletter whose stored hash verifies against the submitted code wins.
package auth

import (
	"context"
	"errors"
	"fmt"

	"missive/internal/passcode"
	"missive/internal/store"
)

// ErrNoMatch reports that no registered newsletter accepts the passcode.
var ErrNoMatch = errors.New("no newsletter matches the given passcode")

// Lister provides the newsletters to authenticate against.
type Lister interface {
	ListNewsletters(ctx context.Context) ([]*store.Newsletter, error)
}

// Authenticate returns the first newsletter whose passcode hash verifies
// against code. A malformed stored hash aborts the scan with an error
// instead of counting as a miss.
func Authenticate(ctx context.Context, lister Lister, code string) (*store.Newsletter, error) {
	newsletters, err := lister.ListNewsletters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	for _, n := range newsletters {
		ok, err := passcode.Verify(code, n.Passcode)
		if err != nil {
			return nil, fmt.Errorf("verify passcode for %q: %w", n.Title, err)
		}
		if ok {
			return n, nil
		}
	}
	return nil, ErrNoMatch
}
