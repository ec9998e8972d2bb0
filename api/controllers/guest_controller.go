package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/l10n"
)

// GuestController renders pages that must work even when no share resolves.
type GuestController struct {
	catalog *l10n.Catalog
}

func NewGuestController(catalog *l10n.Catalog) *GuestController {
	return &GuestController{catalog: catalog}
}

// HandleErrorPage explains why a link may have stopped working.
// GET /api/share/v1/error
func (gc *GuestController) HandleErrorPage(c *gin.Context) {
	lang := c.GetHeader("Accept-Language")
	t := func(key string) string { return gc.catalog.Translate(lang, key) }
	c.JSON(http.StatusOK, gin.H{
		"title": t(l10n.LinkNotWorking),
		"intro": t(l10n.ReasonsMightBe),
		"reasons": []string{
			t(l10n.ReasonRemoved),
			t(l10n.ReasonExpired),
			t(l10n.ReasonDisabled),
		},
		"hint": t(l10n.AskSender),
	})
}
