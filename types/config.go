package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	OwnerID         string      `yaml:"ownerId"`
	Port            int         `yaml:"port"`
	Protocol        string      `yaml:"protocol"`
	PublicHost      string      `yaml:"publicHost"`
	BcryptCost      int         `yaml:"bcryptCost"`
	ShareTTLSeconds int         `yaml:"shareTTLSeconds"`
	SessionTTL      int         `yaml:"sessionTTLSeconds"`
	CookieSecure    bool        `yaml:"cookieSecure"`
	RateLimitPerMin int         `yaml:"rateLimitPerMinute"`
	CertPEM         string      `yaml:"certPEM,omitempty"`
	KeyPEM          string      `yaml:"keyPEM,omitempty"`
	Shares          []ShareSeed `yaml:"shares,omitempty"`
}

// ShareSeed is a share declared in config.yaml and published on startup.
// Password is hashed on load and never written back.
type ShareSeed struct {
	Token     string `yaml:"token"`
	Path      string `yaml:"path"`
	Password  string `yaml:"password,omitempty"`
	ShareType string `yaml:"shareType,omitempty"`
	ShareWith string `yaml:"shareWith,omitempty"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log            string
	UseConfigPath  string
	UsePort        int
	UseHttp        bool   // if true, serve plain http regardless of config
	UseShareDB     string // sqlite file for shares; empty keeps shares in memory
	UseOwner       string
	UsePublicHost  string
	UseBcryptCost  int
	UseSessionTTL  int
	UseRateLimit   int
	UseLanguageDir string // optional directory with extra l10n bundles
}
