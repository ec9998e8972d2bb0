package types

// EndpointIntent declares how the share gate treats a route.
type EndpointIntent int

const (
	// IntentStandard routes act for the locally authenticated owner.
	IntentStandard EndpointIntent = iota
	// IntentPublicPage routes need a share token and optional password.
	IntentPublicPage
	// IntentGuest routes skip every check, e.g. error pages.
	IntentGuest
)

func (i EndpointIntent) String() string {
	switch i {
	case IntentPublicPage:
		return "public"
	case IntentGuest:
		return "guest"
	default:
		return "standard"
	}
}
