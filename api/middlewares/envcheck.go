package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/environment"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

const envContextKey = "env"

// IntentLookup returns the intent a route was declared with.
type IntentLookup interface {
	Lookup(method, fullPath string) types.EndpointIntent
}

// DecisionRecorder is told about every gate outcome.
type DecisionRecorder interface {
	RecordDecision(intent, outcome string)
}

type EnvCheckOptions struct {
	Gate     *access.Gate
	Intents  IntentLookup
	Sources  environment.SourceLookup
	OwnerID  string
	Catalog  *l10n.Catalog
	Recorder DecisionRecorder
}

// EnvCheck checks that public pages carry a token, and a password when
// needed, giving access to a valid share, then prepares the environment the
// handlers run in. Guest routes are neither checked nor given an environment.
func EnvCheck(opts EnvCheckOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "" {
			// unmatched route, leave it to NoRoute
			c.Next()
			return
		}
		intent := opts.Intents.Lookup(c.Request.Method, c.FullPath())

		req := requestFrom(c)
		var sess access.Session = models.NewBrowserSession("")
		if s := SessionFrom(c); s != nil {
			sess = s
		}

		instruction, err := opts.Gate.Check(c.Request.Context(), intent, req, sess)
		if err != nil {
			opts.record(intent, outcomeOf(err))
			abortWithAccessError(c, opts.Catalog, err, req.Password != nil)
			return
		}

		switch instruction.Kind {
		case access.InstructionNone:
			opts.record(intent, "skipped")
			c.Next()
			return
		case access.InstructionTokenEnv:
			env := environment.New(opts.Sources)
			if err := env.SetTokenBasedEnv(c.Request.Context(), instruction.Share); err != nil {
				if errors.Is(err, environment.ErrSourceMissing) {
					tool.DefaultLogger.Warnf("[EnvCheck] Share %s has no source path", instruction.Share.ShareID())
					err = access.ErrNotFound
				}
				opts.record(intent, outcomeOf(err))
				abortWithAccessError(c, opts.Catalog, err, false)
				return
			}
			c.Set(envContextKey, env)
		case access.InstructionStandardEnv:
			env := environment.New(opts.Sources)
			env.SetStandardEnv(opts.OwnerID)
			c.Set(envContextKey, env)
		}
		opts.record(intent, "allowed")
		c.Next()
	}
}

func (o EnvCheckOptions) record(intent types.EndpointIntent, outcome string) {
	if o.Recorder != nil {
		o.Recorder.RecordDecision(intent.String(), outcome)
	}
}

// requestFrom reads the token from the :token route param (or ?token=) and the
// password from ?password= or a posted form field. An empty password still counts as given.
func requestFrom(c *gin.Context) access.Request {
	req := access.Request{Token: c.Param("token")}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if pw, ok := c.GetQuery("password"); ok {
		req.Password = &pw
	} else if c.Request.Method == http.MethodPost {
		if pw, ok := c.GetPostForm("password"); ok {
			req.Password = &pw
		}
	}
	return req
}

// EnvFrom returns the environment prepared by EnvCheck, or nil on guest routes.
func EnvFrom(c *gin.Context) *environment.Environment {
	v, ok := c.Get(envContextKey)
	if !ok {
		return nil
	}
	env, _ := v.(*environment.Environment)
	return env
}

// StatusFor maps a gate error onto the HTTP status sent to the caller.
func StatusFor(err error) int {
	switch access.KindOf(err) {
	case access.KindNotFound:
		return http.StatusNotFound
	case access.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func outcomeOf(err error) string {
	switch access.KindOf(err) {
	case access.KindNotFound:
		return "not_found"
	case access.KindUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}

// abortWithAccessError answers with a localized message only; the diagnostic
// message has already been logged by the gate.
func abortWithAccessError(c *gin.Context, catalog *l10n.Catalog, err error, passwordGiven bool) {
	status := StatusFor(err)
	key := l10n.InternalError
	code := "INTERNAL_SERVER_ERROR"
	switch status {
	case http.StatusNotFound:
		key, code = l10n.LinkNotWorking, access.KindNotFound.String()
	case http.StatusUnauthorized:
		key, code = l10n.PasswordProtected, access.KindUnauthorized.String()
		if passwordGiven {
			key = l10n.WrongPassword
		}
	}
	c.AbortWithStatusJSON(status, tool.FastReturnErrorWithData(
		catalog.Translate(c.GetHeader("Accept-Language"), key),
		map[string]any{"code": code},
	))
}
