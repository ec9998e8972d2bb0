package models

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/types"
)

const DefaultShareTTL = 7 * 24 * time.Hour

// memoryShare is one cache entry: the record and the local path it publishes.
type memoryShare struct {
	rec  types.ShareRecord
	path string
}

// MemoryShareStore keeps shares in a ttl cache, so they vanish on restart.
// Shares without an expiry get one at ttl after they are stored.
//
// ttl.Cache.Get writes to the cache (it restarts the entry and drops expired
// ones), so every cache access holds mu exclusively.
type MemoryShareStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	shares *ttlworker.Cache[string, *memoryShare]
	// tokens and sources index live entries of shares by share id and source id
	tokens  map[string]string
	sources map[string]string
	now     func() time.Time
}

var _ ShareStore = (*MemoryShareStore)(nil)

func NewMemoryShareStore(ttl time.Duration) *MemoryShareStore {
	if ttl <= 0 {
		ttl = DefaultShareTTL
	}
	return &MemoryShareStore{
		ttl:     ttl,
		shares:  ttlworker.NewCache[string, *memoryShare](ttl),
		tokens:  make(map[string]string),
		sources: make(map[string]string),
		now:     time.Now,
	}
}

// liveLocked returns the entry for token, dropping it once it has expired.
func (s *MemoryShareStore) liveLocked(token string) *memoryShare {
	entry := s.shares.Get(token)
	if entry == nil {
		return nil
	}
	if expired(&entry.rec, s.now()) {
		s.removeLocked(entry.rec.ShareID)
		return nil
	}
	return entry
}

func (s *MemoryShareStore) ResolveShareByToken(_ context.Context, token string, opts access.ResolveOptions) (*types.ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.liveLocked(token)
	if entry == nil || !visibleTo(&entry.rec, opts) {
		return nil, nil
	}
	copied := entry.rec
	return &copied, nil
}

func (s *MemoryShareStore) CreateShare(_ context.Context, rec *types.ShareRecord, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[rec.ShareID]; ok {
		return ErrShareExists
	}
	if s.liveLocked(rec.Token) != nil {
		return ErrShareExists
	}
	entry := &memoryShare{rec: *rec, path: localPath}
	if entry.rec.ExpiresAt.IsZero() {
		entry.rec.ExpiresAt = s.now().Add(s.ttl)
	}
	s.shares.Set(rec.Token, entry)
	s.tokens[rec.ShareID] = rec.Token
	if rec.SourceID != "" {
		s.sources[rec.SourceID] = rec.Token
	}
	return nil
}

func (s *MemoryShareStore) ListShares(_ context.Context) ([]types.ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shares := make([]types.ShareRecord, 0, len(s.tokens))
	for id, token := range s.tokens {
		entry := s.liveLocked(token)
		if entry == nil {
			s.removeLocked(id)
			continue
		}
		shares = append(shares, entry.rec)
	}
	slices.SortFunc(shares, func(a, b types.ShareRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ShareID, b.ShareID)
	})
	return shares, nil
}

func (s *MemoryShareStore) GetShare(_ context.Context, shareID string) (*types.ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[shareID]
	if !ok {
		return nil, nil
	}
	entry := s.liveLocked(token)
	if entry == nil {
		return nil, nil
	}
	copied := entry.rec
	return &copied, nil
}

func (s *MemoryShareStore) DeleteShare(_ context.Context, shareID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[shareID]; !ok {
		return false, nil
	}
	s.removeLocked(shareID)
	return true, nil
}

func (s *MemoryShareStore) SourcePath(_ context.Context, sourceID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.sources[sourceID]
	if !ok {
		return "", false, nil
	}
	entry := s.liveLocked(token)
	if entry == nil {
		return "", false, nil
	}
	return entry.path, entry.path != "", nil
}

func (s *MemoryShareStore) Close() error {
	return nil
}

func (s *MemoryShareStore) removeLocked(shareID string) {
	token, ok := s.tokens[shareID]
	if !ok {
		return
	}
	for sourceID, t := range s.sources {
		if t == token {
			delete(s.sources, sourceID)
		}
	}
	s.shares.Delete(token)
	delete(s.tokens, shareID)
}
