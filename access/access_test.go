package access

import (
	"context"
	"errors"

	"github.com/moyoez/sharegate/types"
)

// mapSession is an in-memory Session that counts writes.
type mapSession struct {
	values map[string]string
	sets   int
}

func newMapSession() *mapSession {
	return &mapSession{values: map[string]string{}}
}

func (s *mapSession) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *mapSession) Set(key, value string) {
	s.sets++
	s.values[key] = value
}

func (s *mapSession) Exists(key string) bool {
	_, ok := s.values[key]
	return ok
}

// plainHasher treats "hash:<password>" as the hash of password.
type plainHasher struct {
	upgraded string
	calls    int
}

func (h *plainHasher) Verify(password, hash string) (bool, string) {
	h.calls++
	if hash != "hash:"+password {
		return false, ""
	}
	return true, h.upgraded
}

type fakeResolver struct {
	shares map[string]*types.ShareRecord
	err    error
	calls  int
	opts   []ResolveOptions
}

func (r *fakeResolver) ResolveShareByToken(_ context.Context, token string, opts ResolveOptions) (*types.ShareRecord, error) {
	r.calls++
	r.opts = append(r.opts, opts)
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.shares[token]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

var errStoreDown = errors.New("store down")

func linkShare() *types.ShareRecord {
	return &types.ShareRecord{
		ShareID:   "s9",
		Token:     "abc123",
		ItemType:  types.ItemTypeFile,
		OwnerID:   "u1",
		SourceID:  "f1",
		ShareType: types.ShareTypeLink,
	}
}

func protectedLinkShare() *types.ShareRecord {
	rec := linkShare()
	rec.SecretHash = "hash:secret"
	return rec
}

func strPtr(s string) *string { return &s }
