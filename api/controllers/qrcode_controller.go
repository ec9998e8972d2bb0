package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/tool"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// HandleShareQRCode returns a PNG QR code of the share's public link.
// GET /api/self/v1/shares/:id/qr-code?size=200x200
func (sc *ShareController) HandleShareQRCode(c *gin.Context) {
	shareID := c.Param("id")
	rec, err := sc.store.GetShare(c.Request.Context(), shareID)
	if err != nil {
		tool.DefaultLogger.Errorf("[Share] Failed to load share %s: %v", shareID, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to load share"))
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Share not found or expired"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(tool.ShareLink(sc.cfg, rec.Token), qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
