package access

import (
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// SessionKey holds the id of the last share the session unlocked with a password.
const SessionKey = "public_link_authenticated"

// Session is the per-requester store the authorizer reads and writes.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Exists(key string) bool
}

// Hasher verifies a candidate password against a stored hash. When the
// stored hash uses outdated parameters, Verify may return a replacement hash.
type Hasher interface {
	Verify(password, hash string) (ok bool, upgraded string)
}

// Authorizer decides whether a request proves access to a validated share.
type Authorizer struct {
	hasher Hasher
}

func NewAuthorizer(hasher Hasher) *Authorizer {
	return &Authorizer{hasher: hasher}
}

// Authorize checks the supplied password, or the session when password is nil.
// An empty but non-nil password counts as supplied.
//
// The only side effect is sess.Set(SessionKey, shareID) after a password matched.
func (a *Authorizer) Authorize(share *ValidatedShare, password *string, sess Session) error {
	if !share.record.PasswordProtected() {
		return nil
	}
	if password != nil {
		return a.authenticate(share, *password, sess)
	}
	return checkSession(share, sess)
}

func (a *Authorizer) authenticate(share *ValidatedShare, password string, sess Session) error {
	if share.record.ShareType != types.ShareTypeLink {
		return notFoundf("Unknown share type %d for share id %s", share.record.ShareType, share.record.ShareID)
	}
	return a.checkPassword(share, password, sess)
}

func (a *Authorizer) checkPassword(share *ValidatedShare, password string, sess Session) error {
	ok, upgraded := a.hasher.Verify(password, share.record.SecretHash)
	if !ok {
		return unauthorized("Wrong password")
	}
	sess.Set(SessionKey, share.record.ShareID)
	if upgraded != "" {
		// Shares have no password update path yet, so the stored hash stays as is.
		tool.DefaultLogger.Debugf("[Authorizer] Discarding upgraded password hash for share %s", share.record.ShareID)
	}
	return nil
}

func checkSession(share *ValidatedShare, sess Session) error {
	if !sess.Exists(SessionKey) {
		return unauthorized("Missing password")
	}
	if id, _ := sess.Get(SessionKey); id != share.record.ShareID {
		return unauthorized("Missing password")
	}
	return nil
}
