package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/api/controllers"
	"github.com/moyoez/sharegate/api/middlewares"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// Server is the HTTP front of the share gate: public share pages for
// visitors and the owner API for the local machine.
type Server struct {
	cfg      *types.AppConfig
	store    models.ShareStore
	sessions *models.SessionStore
	catalog  *l10n.Catalog
	hasher   *tool.BcryptHasher
	intents  *IntentTable
	metrics  *gateMetrics

	shareCtrl *controllers.ShareController

	mu     sync.RWMutex
	engine *gin.Engine
	server *http.Server
}

// NewServer wires the gate and controllers around store.
func NewServer(cfg *types.AppConfig, store models.ShareStore, catalog *l10n.Catalog) *Server {
	hasher := tool.NewBcryptHasher(cfg.BcryptCost)
	return &Server{
		cfg:       cfg,
		store:     store,
		sessions:  models.NewSessionStore(sessionTTL(cfg)),
		catalog:   catalog,
		hasher:    hasher,
		intents:   NewIntentTable(),
		metrics:   newGateMetrics(),
		shareCtrl: controllers.NewShareController(store, hasher, cfg),
	}
}

func sessionTTL(cfg *types.AppConfig) time.Duration {
	if cfg.SessionTTL <= 0 {
		return models.DefaultSessionTTL
	}
	return time.Duration(cfg.SessionTTL) * time.Second
}

// PublishSeeds publishes the shares listed in the config file.
func (s *Server) PublishSeeds(ctx context.Context) error {
	return s.shareCtrl.PublishSeeds(ctx, s.cfg.Shares)
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	// no reverse proxy in front: ClientIP is always the socket address
	if err := engine.SetTrustedProxies(nil); err != nil {
		tool.DefaultLogger.Warnf("Failed to reset trusted proxies: %v", err)
	}
	engine.Use(gin.Recovery())
	engine.Use(middlewares.Sessions(s.sessions, sessionTTL(s.cfg), s.cfg.CookieSecure))
	// added per group, after the group's own guards
	envCheck := middlewares.EnvCheck(middlewares.EnvCheckOptions{
		Gate:     access.NewGate(s.store, s.hasher),
		Intents:  s.intents,
		Sources:  s.store,
		OwnerID:  s.cfg.OwnerID,
		Catalog:  s.catalog,
		Recorder: s.metrics,
	})

	publicCtrl := controllers.NewPublicController(s.catalog)
	guestCtrl := controllers.NewGuestController(s.catalog)
	statusCtrl := controllers.NewStatusController(s.store, s.catalog, s.cfg)

	shareGroup := engine.Group("/api/share/v1")
	guest := annotatedGroup{group: shareGroup.Group("", envCheck), table: s.intents, intent: types.IntentGuest}
	{
		guest.GET("/error", guestCtrl.HandleErrorPage)
	}
	public := annotatedGroup{
		group:  shareGroup.Group("", middlewares.PerClientRateLimit(s.cfg.RateLimitPerMin, s.catalog), envCheck),
		table:  s.intents,
		intent: types.IntentPublicPage,
	}
	{
		public.GET("/:token/info", publicCtrl.HandleShareInfo)
		public.GET("/:token/files", publicCtrl.HandleListFiles)
		public.GET("/:token/download", publicCtrl.HandleDownload)
		public.POST("/:token/authenticate", publicCtrl.HandleAuthenticate)
	}

	self := annotatedGroup{
		group:  engine.Group("/api/self/v1", middlewares.OnlyAllowLocal, envCheck),
		table:  s.intents,
		intent: types.IntentStandard,
	}
	{
		self.GET("/status", statusCtrl.HandleStatus)
		self.GET("/metrics", s.metrics.handler())
		self.GET("/shares", s.shareCtrl.HandleListShares)
		self.POST("/shares", s.shareCtrl.HandleCreateShare)
		self.DELETE("/shares/:id", s.shareCtrl.HandleDeleteShare)
		self.GET("/shares/:id/qr-code", s.shareCtrl.HandleShareQRCode)
	}

	return engine
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	address := fmt.Sprintf("%s://0.0.0.0:%d", s.cfg.Protocol, s.cfg.Port)
	tool.DefaultLogger.Infof("Starting share server on %s", address)

	if s.cfg.Protocol == "https" {
		tlsConfig, err := tool.TLSConfigFromConfig(s.cfg)
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsConfig
		tool.DefaultLogger.Infof("TLS certificate configured for HTTPS")
		return srv.ListenAndServeTLS("", "")
	}
	return srv.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
