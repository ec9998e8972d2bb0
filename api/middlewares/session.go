package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/api/models"
)

const (
	SessionCookieName = "sharegate_session"
	sessionContextKey = "session"
)

// requestSession is the visitor session as one request sees it. Writing to it
// stores the session under a fresh id and sends the new cookie.
type requestSession struct {
	*models.BrowserSession
	store *models.SessionStore
	issue func(id string)
}

func (s *requestSession) Set(key, value string) {
	s.BrowserSession.Set(key, value)
	s.issue(s.store.Rotate(s.BrowserSession))
}

// Sessions attaches the visitor session to the context. Known sessions get
// their cookie renewed; new visitors only get a cookie once the session is written.
func Sessions(store *models.SessionStore, ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())
	return func(c *gin.Context) {
		issue := func(id string) {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, id, maxAge, "/", "", secure, true)
		}
		id, _ := c.Cookie(SessionCookieName)
		sess, found := store.Load(id)
		if found {
			issue(sess.ID())
		}
		c.Set(sessionContextKey, &requestSession{BrowserSession: sess, store: store, issue: issue})
		c.Next()
	}
}

// SessionFrom returns the session attached by Sessions, or nil.
func SessionFrom(c *gin.Context) access.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, ok := v.(*requestSession)
	if !ok {
		return nil
	}
	return sess
}
