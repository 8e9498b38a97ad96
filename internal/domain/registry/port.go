package registry

import (
	"context"
	"errors"
)

// ErrNotFound means the registry answered but has no record for the RUC.
var ErrNotFound = errors.New("ruc not found in registry")

// ErrUnavailable marks transient transport failures (timeouts, refused
// connections). Lookups wrapping this error are worth retrying; anything
// else is permanent and must fail immediately.
var ErrUnavailable = errors.New("registry unavailable")

// Client is the external registry port.
type Client interface {
	Lookup(ctx context.Context, ruc string) (*Taxpayer, error)
}

// IsTransient reports whether a lookup failure should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
