package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/api/middlewares"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// PasswordHasher produces the stored hash for a new share password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// ShareController serves the owner API for publishing and revoking shares.
type ShareController struct {
	store  models.ShareStore
	hasher PasswordHasher
	cfg    *types.AppConfig
}

func NewShareController(store models.ShareStore, hasher PasswordHasher, cfg *types.AppConfig) *ShareController {
	return &ShareController{store: store, hasher: hasher, cfg: cfg}
}

// shareListItem is a stored share as shown to the owner.
type shareListItem struct {
	types.ShareRecord
	Protected bool   `json:"protected"`
	Link      string `json:"link"`
}

// HandleCreateShare publishes a local file or folder.
// POST /api/self/v1/shares
func (sc *ShareController) HandleCreateShare(c *gin.Context) {
	var request types.CreateShareRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	ownerID := sc.cfg.OwnerID
	if env := middlewares.EnvFrom(c); env != nil && env.UserID() != "" {
		ownerID = env.UserID()
	}
	rec, err := sc.publish(c.Request.Context(), ownerID, "", request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, models.ErrShareExists) {
			status = http.StatusConflict
		}
		c.JSON(status, tool.FastReturnError(err.Error()))
		return
	}
	tool.DefaultLogger.Infof("[Share] Published %s as share %s", request.Path, rec.ShareID)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.CreateShareResponse{
		ShareID: rec.ShareID,
		Token:   rec.Token,
		Link:    tool.ShareLink(sc.cfg, rec.Token),
	}))
}

// HandleListShares lists live shares.
// GET /api/self/v1/shares
func (sc *ShareController) HandleListShares(c *gin.Context) {
	shares, err := sc.store.ListShares(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Errorf("[Share] Failed to list shares: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to list shares"))
		return
	}
	items := make([]shareListItem, 0, len(shares))
	for _, rec := range shares {
		items = append(items, shareListItem{
			ShareRecord: rec,
			Protected:   rec.PasswordProtected(),
			Link:        tool.ShareLink(sc.cfg, rec.Token),
		})
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(items))
}

// HandleDeleteShare revokes a share.
// DELETE /api/self/v1/shares/:id
func (sc *ShareController) HandleDeleteShare(c *gin.Context) {
	shareID := c.Param("id")
	ok, err := sc.store.DeleteShare(c.Request.Context(), shareID)
	if err != nil {
		tool.DefaultLogger.Errorf("[Share] Failed to delete share %s: %v", shareID, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to delete share"))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Share not found or expired"))
		return
	}
	tool.DefaultLogger.Infof("[Share] Revoked share %s", shareID)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// PublishSeeds publishes the shares declared in config.yaml. Seeds whose
// token is already taken are skipped, so restarts with a database are safe.
func (sc *ShareController) PublishSeeds(ctx context.Context, seeds []types.ShareSeed) error {
	for _, seed := range seeds {
		if seed.Token == "" {
			tool.DefaultLogger.Warnf("[Share] Skipping seeded share for %s: token is required", seed.Path)
			continue
		}
		_, err := sc.publish(ctx, sc.cfg.OwnerID, seed.Token, types.CreateShareRequest{
			Path:      seed.Path,
			Password:  seed.Password,
			ShareType: seed.ShareType,
			ShareWith: seed.ShareWith,
		})
		if errors.Is(err, models.ErrShareExists) {
			tool.DefaultLogger.Debugf("[Share] Seeded token %s already published", seed.Token)
			continue
		}
		if err != nil {
			return err
		}
		tool.DefaultLogger.Infof("[Share] Seeded %s at %s", seed.Path, tool.ShareLink(sc.cfg, seed.Token))
	}
	return nil
}

func (sc *ShareController) publish(ctx context.Context, ownerID, token string, request types.CreateShareRequest) (*types.ShareRecord, error) {
	path := strings.TrimSpace(request.Path)
	if path == "" {
		return nil, errors.New("path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file or folder not found: " + absPath)
		}
		return nil, err
	}
	shareType, ok := types.ParseShareType(request.ShareType)
	if !ok {
		return nil, errors.New("unknown share type: " + request.ShareType)
	}
	if request.ExpiresIn < 0 {
		return nil, errors.New("expiresIn must not be negative")
	}

	itemType := types.ItemTypeFile
	if info.IsDir() {
		itemType = types.ItemTypeFolder
	}
	if token == "" {
		token = tool.GenerateShareToken()
	}
	now := time.Now()
	rec := &types.ShareRecord{
		ShareID:    tool.GenerateShareID(),
		Token:      token,
		ItemType:   itemType,
		OwnerID:    ownerID,
		SourceID:   tool.GenerateShareID(),
		ShareType:  shareType,
		ShareWith:  request.ShareWith,
		FileTarget: "/" + filepath.Base(absPath),
		CreatedAt:  now,
	}
	if request.ExpiresIn > 0 {
		rec.ExpiresAt = now.Add(time.Duration(request.ExpiresIn) * time.Second)
	}
	if request.Password != "" {
		hash, err := sc.hasher.Hash(request.Password)
		if err != nil {
			return nil, err
		}
		rec.SecretHash = hash
	}
	if err := sc.store.CreateShare(ctx, rec, absPath); err != nil {
		return nil, err
	}
	return rec, nil
}
