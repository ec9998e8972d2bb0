package tool

import (
	"flag"

	"github.com/moyoez/sharegate/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.BoolVar(&cfg.UseHttp, "useHttp", false, "serve plain http instead of https")
	flag.StringVar(&cfg.UseShareDB, "useShareDB", "", "sqlite file to persist shares in (default: memory only)")
	flag.StringVar(&cfg.UseOwner, "useOwner", "", "owner id used for locally created shares")
	flag.StringVar(&cfg.UsePublicHost, "usePublicHost", "", "host (and optional port) used in generated links")
	flag.IntVar(&cfg.UseBcryptCost, "useBcryptCost", 0, "bcrypt cost for new share passwords")
	flag.IntVar(&cfg.UseSessionTTL, "useSessionTTL", 0, "visitor session lifetime in seconds")
	flag.IntVar(&cfg.UseRateLimit, "useRateLimit", 0, "public requests per minute allowed per client IP")
	flag.StringVar(&cfg.UseLanguageDir, "useLanguageDir", "", "directory with extra <lang>.json translation bundles")
	flag.Parse()
	return cfg
}
