package models

import (
	"context"
	"errors"
	"time"

	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/types"
)

// ErrShareExists is returned when a token or id is already taken.
var ErrShareExists = errors.New("share already exists")

// ShareStore keeps published shares and resolves link tokens for the gate.
type ShareStore interface {
	access.Resolver
	// CreateShare stores rec and remembers localPath as the file behind rec.SourceID.
	CreateShare(ctx context.Context, rec *types.ShareRecord, localPath string) error
	ListShares(ctx context.Context) ([]types.ShareRecord, error)
	GetShare(ctx context.Context, shareID string) (*types.ShareRecord, error)
	DeleteShare(ctx context.Context, shareID string) (bool, error)
	// SourcePath maps a source id back to the local path it was published from.
	SourcePath(ctx context.Context, sourceID string) (string, bool, error)
	Close() error
}

// visibleTo applies the lookup options to a stored record. Non-link shares
// are only visible to their recipient unless the lookup is incognito.
func visibleTo(rec *types.ShareRecord, opts access.ResolveOptions) bool {
	if opts.Incognito || rec.ShareType == types.ShareTypeLink {
		return true
	}
	return rec.ShareWith != "" && rec.ShareWith == opts.Caller
}

func expired(rec *types.ShareRecord, now time.Time) bool {
	return !rec.ExpiresAt.IsZero() && now.After(rec.ExpiresAt)
}
