package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// StatusController reports server state to the owner.
type StatusController struct {
	store   models.ShareStore
	catalog *l10n.Catalog
	cfg     *types.AppConfig
}

func NewStatusController(store models.ShareStore, catalog *l10n.Catalog, cfg *types.AppConfig) *StatusController {
	return &StatusController{store: store, catalog: catalog, cfg: cfg}
}

// HandleStatus returns server status for the owner.
// GET /api/self/v1/status
func (sc *StatusController) HandleStatus(c *gin.Context) {
	shares, err := sc.store.ListShares(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Errorf("[Status] Failed to count shares: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read shares"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running":     true,
		"owner":       sc.cfg.OwnerID,
		"protocol":    sc.cfg.Protocol,
		"fingerprint": tool.CertFingerprint,
		"shares":      len(shares),
		"languages":   sc.catalog.Languages(),
	})
}
