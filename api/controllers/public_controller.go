package controllers

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/api/middlewares"
	"github.com/moyoez/sharegate/environment"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// PublicController serves public share pages. Every handler runs behind
// EnvCheck, so a token based environment is always present.
type PublicController struct {
	catalog *l10n.Catalog
}

func NewPublicController(catalog *l10n.Catalog) *PublicController {
	return &PublicController{catalog: catalog}
}

// HandleShareInfo describes the unlocked share.
// GET /api/share/v1/:token/info
func (pc *PublicController) HandleShareInfo(c *gin.Context) {
	env := middlewares.EnvFrom(c)
	share := env.Share()
	resp := types.ShareInfoResponse{
		Token:     share.Token,
		ItemType:  share.ItemType,
		Name:      env.SharedName(),
		Protected: share.PasswordProtected(),
		ExpiresAt: share.ExpiresAt,
	}
	if share.ItemType == types.ItemTypeFile {
		if info, err := os.Stat(env.RootPath()); err == nil {
			resp.Size = info.Size()
		}
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}

// HandleAuthenticate lets a visitor post the share password once; EnvCheck
// has already verified it and remembered the share in the session.
// POST /api/share/v1/:token/authenticate
func (pc *PublicController) HandleAuthenticate(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleListFiles lists a folder of the share.
// GET /api/share/v1/:token/files?path=sub/dir
func (pc *PublicController) HandleListFiles(c *gin.Context) {
	env := middlewares.EnvFrom(c)
	rel := c.Query("path")
	if env.Share().ItemType == types.ItemTypeFile {
		info, err := os.Stat(env.RootPath())
		if err != nil {
			pc.fileNotFound(c, err)
			return
		}
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData([]types.FileInfo{fileInfoOf(info, info.Name())}))
		return
	}

	dir, err := env.Open(rel)
	if err != nil {
		pc.fileNotFound(c, err)
		return
	}
	defer dir.Close()
	entries, err := dir.ReadDir(-1)
	if err != nil {
		pc.fileNotFound(c, err)
		return
	}
	files := make([]types.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfoOf(info, path.Join(filepath.ToSlash(rel), entry.Name())))
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return files[i].FileName < files[j].FileName
	})
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(files))
}

// HandleDownload serves one file of the share.
// GET /api/share/v1/:token/download?path=photo.jpg
func (pc *PublicController) HandleDownload(c *gin.Context) {
	env := middlewares.EnvFrom(c)
	rel := c.Query("path")
	file, err := env.Open(rel)
	if err != nil {
		pc.fileNotFound(c, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		pc.fileNotFound(c, err)
		return
	}
	if info.IsDir() {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid file"))
		return
	}
	tool.DefaultLogger.Infof("[Download] Serving file: share=%s, path=%q", env.Share().ShareID, rel)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}

func (pc *PublicController) fileNotFound(c *gin.Context, err error) {
	if !errors.Is(err, environment.ErrOutsideShare) && !errors.Is(err, fs.ErrNotExist) {
		tool.DefaultLogger.Warnf("[Download] Failed to read shared path: %v", err)
	}
	c.JSON(http.StatusNotFound, tool.FastReturnError(
		pc.catalog.Translate(c.GetHeader("Accept-Language"), l10n.FileNotFound)))
}

func fileInfoOf(info os.FileInfo, rel string) types.FileInfo {
	fi := types.FileInfo{
		FileName: info.Name(),
		Path:     rel,
		IsDir:    info.IsDir(),
		Metadata: &types.FileMetadata{Modified: info.ModTime().UTC().Format("2006-01-02T15:04:05Z")},
	}
	if !info.IsDir() {
		fi.Size = info.Size()
		fi.FileType = mime.TypeByExtension(filepath.Ext(info.Name()))
		if fi.FileType == "" {
			fi.FileType = "application/octet-stream"
		}
	}
	return fi
}
