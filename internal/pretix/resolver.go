package pretix

import (
	"context"
	"errors"
	"log"

	"github.com/billetterie/pretix-admin/internal/repository"
)

// CredentialStore yields the active upstream credential record for an
// actor.  *repository.CredentialRepo satisfies it.
type CredentialStore interface {
	ActiveByUser(ctx context.Context, userID uint64) (repository.Credential, error)
}

// Resolver picks the upstream credentials for the current actor: the
// actor's own active record when one exists, otherwise the process-wide
// defaults.  Pure lookup, no network I/O; when neither source yields a
// usable value the zero credentials flow through and every upstream call
// fails with a clear gateway error instead of a crash.
type Resolver struct {
	Store   CredentialStore
	Default Credentials
}

func NewResolver(store CredentialStore, def Credentials) *Resolver {
	return &Resolver{Store: store, Default: def}
}

// Resolve returns the credentials to use for actorID.  Lookup failures
// other than "no record" are logged and degrade to the defaults.
func (r *Resolver) Resolve(ctx context.Context, actorID uint64) Credentials {
	if r.Store != nil {
		c, err := r.Store.ActiveByUser(ctx, actorID)
		if err == nil {
			return Credentials{BaseURL: c.BaseURL, APIKey: c.APIKey, Organizer: c.Organizer}
		}
		if !errors.Is(err, repository.ErrCredentialNotFound) {
			log.Printf("pretix resolver: credential lookup failed for user_id=%d: %v", actorID, err)
		}
	}
	return r.Default
}
