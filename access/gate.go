package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// ResolveOptions tune a token lookup.
type ResolveOptions struct {
	// Incognito resolves the token as an anonymous visitor, ignoring who the
	// caller is logged in as.
	Incognito bool
	// Caller is the identity used when Incognito is false.
	Caller string
}

// Resolver turns a token into a share record. A nil record with a nil error
// means the token is unknown; an error means the lookup itself failed.
type Resolver interface {
	ResolveShareByToken(ctx context.Context, token string, opts ResolveOptions) (*types.ShareRecord, error)
}

// Request is the part of an incoming request the gate looks at.
type Request struct {
	Token    string
	Password *string
}

// InstructionKind tells the caller which environment to prepare.
type InstructionKind int

const (
	InstructionNone InstructionKind = iota
	InstructionTokenEnv
	InstructionStandardEnv
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionTokenEnv:
		return "token"
	case InstructionStandardEnv:
		return "standard"
	default:
		return "none"
	}
}

// Instruction is the outcome of a successful Check.
type Instruction struct {
	Kind  InstructionKind
	Share *ValidatedShare // set for InstructionTokenEnv only
}

// Gate runs the resolver, validator and authorizer for one request.
type Gate struct {
	resolver   Resolver
	authorizer *Authorizer
}

func NewGate(resolver Resolver, hasher Hasher) *Gate {
	return &Gate{
		resolver:   resolver,
		authorizer: NewAuthorizer(hasher),
	}
}

// Check decides what the request may do for the given endpoint intent.
// Guest endpoints are never checked and get no environment. Public pages need
// a token giving access to a valid share. Anything else uses the caller's
// standard environment.
//
// If sess also implements sync.Locker, the session is locked while the
// authorizer reads and writes it.
func (g *Gate) Check(ctx context.Context, intent types.EndpointIntent, req Request, sess Session) (Instruction, error) {
	switch intent {
	case types.IntentGuest:
		return Instruction{Kind: InstructionNone}, nil
	case types.IntentPublicPage:
		share, err := g.validateToken(ctx, req, sess)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: InstructionTokenEnv, Share: share}, nil
	default:
		return Instruction{Kind: InstructionStandardEnv}, nil
	}
}

func (g *Gate) validateToken(ctx context.Context, req Request, sess Session) (*ValidatedShare, error) {
	if req.Token == "" {
		return nil, logged(notFoundf("Can't access a public resource without a token"))
	}

	// Resolve as an anonymous visitor so a logged in owner can still open public links.
	rec, err := g.resolver.ResolveShareByToken(ctx, req.Token, ResolveOptions{Incognito: true})
	if err != nil {
		tool.DefaultLogger.Errorf("[Gate] Share lookup failed for token %q: %v", req.Token, err)
		return nil, fmt.Errorf("resolve share token: %w", err)
	}

	share, err := ValidateShare(rec)
	if err != nil {
		return nil, logged(err)
	}

	if locker, ok := sess.(sync.Locker); ok {
		locker.Lock()
		defer locker.Unlock()
	}
	if err := g.authorizer.Authorize(share, req.Password, sess); err != nil {
		return nil, logged(err)
	}
	return share, nil
}

func logged(err error) error {
	tool.DefaultLogger.Warnf("[Gate] %v", err)
	return err
}
