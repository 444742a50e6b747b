package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/postboard/internal/filestore"
	"github.com/xxxsen/postboard/internal/pkg/errcode"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/response"
)

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type ImageHandler struct {
	store    filestore.Store
	maxBytes int64
	now      func() time.Time
}

// UploadResponse is written as is, outside the error envelope, since upload
// clients read filePath from the top level.
type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath,omitempty"`
}

func NewImageHandler(store filestore.Store, maxBytes int64) *ImageHandler {
	return &ImageHandler{store: store, maxBytes: maxBytes, now: time.Now}
}

// Upload stores the "image" part and, when "oldPath" is given, removes the
// image it replaces. Removal is best effort.
func (h *ImageHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			c.JSON(http.StatusOK, UploadResponse{Message: "No file provided!"})
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrInvalidFile, "image is too large")
			return
		}
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "invalid multipart body")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	reader, contentType, err := ensureReadSeekCloser(opened)
	if err != nil {
		_ = opened.Close()
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	defer reader.Close()
	if _, ok := allowedImageTypes[contentType]; !ok {
		response.Error(c, http.StatusUnprocessableEntity, errcode.ErrInvalidFile, "only png, jpg and jpeg images are accepted")
		return
	}

	userID := getUserID(c)
	key := buildFileKey(userID, file.Filename, contentType, h.now())
	ctx := c.Request.Context()
	if err := h.store.Save(ctx, key, reader, file.Size); err != nil {
		logutil.GetLogger(ctx).Error("save image failed", zap.String("key", key), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, errcode.ErrUploadFailed, "failed to store image")
		return
	}
	if oldPath := c.PostForm("oldPath"); oldPath != "" {
		h.clearImage(ctx, userID, oldPath)
	}
	c.JSON(http.StatusOK, UploadResponse{Message: "File stored.", FilePath: h.store.URL(key)})
}

// clearImage deletes a replaced image owned by userID. Failures are logged and ignored.
func (h *ImageHandler) clearImage(ctx context.Context, userID, oldPath string) {
	key := keyFromPath(oldPath)
	logger := logutil.GetLogger(ctx).With(zap.String("old_path", oldPath), zap.String("user_id", userID))
	if key == "" || userID == "" || !strings.HasPrefix(key, userID+"_") {
		logger.Warn("skip clearing image not owned by uploader")
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		logger.Warn("clear old image failed", zap.Error(err))
	}
}

func (h *ImageHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.ContainsAny(key, `/\`) {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid image key")
		return
	}
	ctx := c.Request.Context()
	file, err := h.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			response.Fail(c, appErr.NotFound("image not found"))
			return
		}
		logutil.GetLogger(ctx).Error("open image failed", zap.String("key", key), zap.Error(err))
		response.Fail(c, err)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func ensureReadSeekCloser(file filestore.ReadSeekCloser) (filestore.ReadSeekCloser, string, error) {
	buf := make([]byte, 512)
	read, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	contentType := http.DetectContentType(buf[:read])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}
	return file, contentType, nil
}

// buildFileKey names uploads "<user>_<utc time>-<original name>".
func buildFileKey(userID, filename, contentType string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "image"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		ext = allowedImageTypes[contentType]
	}
	return userID + "_" + now.UTC().Format("20060102T150405.000") + "-" + base + ext
}

func keyFromPath(p string) string {
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	key := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if key == "." || key == "/" || key == ".." {
		return ""
	}
	return key
}
