// Package environment holds the resolved context downstream handlers work in:
// whose files they serve and which part of the disk they may touch.
package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/types"
)

var (
	// ErrSourceMissing means the share points at a source the store no longer knows.
	ErrSourceMissing = errors.New("shared source is not available")
	// ErrOutsideShare is returned by Resolve for paths escaping the shared root.
	ErrOutsideShare = errors.New("path is outside of the share")
	// ErrNotTokenBased is returned by Resolve in a standard environment.
	ErrNotTokenBased = errors.New("environment is not token based")
)

type Mode int

const (
	ModeUnset Mode = iota
	ModeToken
	ModeStandard
)

// SourceLookup maps a share's source id to the local path behind it.
type SourceLookup interface {
	SourcePath(ctx context.Context, sourceID string) (string, bool, error)
}

type Environment struct {
	lookup SourceLookup

	mode     Mode
	userID   string
	share    types.ShareRecord
	rootPath string
}

func New(lookup SourceLookup) *Environment {
	return &Environment{lookup: lookup}
}

// SetTokenBasedEnv scopes the environment to a validated share. The owner of
// the share becomes the acting user.
func (e *Environment) SetTokenBasedEnv(ctx context.Context, share *access.ValidatedShare) error {
	root, ok, err := e.lookup.SourcePath(ctx, share.SourceID())
	if err != nil {
		return fmt.Errorf("lookup source %s: %w", share.SourceID(), err)
	}
	if !ok {
		return ErrSourceMissing
	}
	e.mode = ModeToken
	e.userID = share.OwnerID()
	e.share = share.Record()
	e.rootPath = filepath.Clean(root)
	return nil
}

// SetStandardEnv acts for an already authenticated user.
func (e *Environment) SetStandardEnv(userID string) {
	e.mode = ModeStandard
	e.userID = userID
	e.share = types.ShareRecord{}
	e.rootPath = ""
}

func (e *Environment) Mode() Mode               { return e.mode }
func (e *Environment) UserID() string           { return e.userID }
func (e *Environment) IsTokenBased() bool       { return e.mode == ModeToken }
func (e *Environment) Share() types.ShareRecord { return e.share }
func (e *Environment) RootPath() string         { return e.rootPath }

// SharedName is the display name of the shared item.
func (e *Environment) SharedName() string {
	if e.share.FileTarget != "" {
		return strings.TrimPrefix(e.share.FileTarget, "/")
	}
	return filepath.Base(e.rootPath)
}

// Resolve maps a path relative to the share onto the local disk.
// File shares only expose the shared file itself.
func (e *Environment) Resolve(rel string) (string, error) {
	if e.mode != ModeToken {
		return "", ErrNotTokenBased
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return e.rootPath, nil
	}
	if e.share.ItemType == types.ItemTypeFile {
		if rel == filepath.Base(e.rootPath) {
			return e.rootPath, nil
		}
		return "", ErrOutsideShare
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", ErrOutsideShare
	}
	return filepath.Join(e.rootPath, local), nil
}

// Open opens a path relative to the share. Inside folder shares the lookup
// goes through os.Root, so symlinks cannot lead out of the shared folder.
func (e *Environment) Open(rel string) (*os.File, error) {
	local, err := e.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if e.share.ItemType == types.ItemTypeFile {
		return os.Open(local)
	}
	root, err := os.OpenRoot(e.rootPath)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	name, err := filepath.Rel(e.rootPath, local)
	if err != nil {
		return nil, ErrOutsideShare
	}
	return root.Open(name)
}
