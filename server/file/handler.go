package file

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
)

const defaultMaxBytes = 100 << 20

type Handler struct {
	Store     store.API
	UploadDir string
	// PublicPrefix is the URL path the upload directory is served under.
	PublicPrefix string
	MaxBytes     int64
}

type uploadResponse struct {
	ImageIDs  []int    `json:"imageIds"`
	ImageURLs []string `json:"imageURLs"`
}

// Register mounts the upload route and serves the upload directory.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/images", h.UploadImages)
	if h.PublicPrefix != "" {
		r.Static(h.PublicPrefix, h.UploadDir)
	}
}

// UploadImages handles POST /api/images (multipart/form-data, field name: files).
func (h *Handler) UploadImages(c *gin.Context) {
	if _, ok := transport.RequireUser(c, h.Store); !ok {
		return
	}

	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid multipart form")
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "missing files")
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		transport.WriteError(c, http.StatusInternalServerError, transport.CodeInternal, "failed to prepare storage")
		return
	}

	names := make([]string, 0, len(headers))
	for _, header := range headers {
		name, status, msg := h.saveImage(header)
		if status != 0 {
			removeAll(h.UploadDir, names)
			transport.WriteError(c, status, codeFor(status), msg)
			return
		}
		names = append(names, name)
	}

	ids, err := h.Store.UploadImages(c.Request.Context(), names)
	if err != nil {
		removeAll(h.UploadDir, names)
		transport.WriteStoreError(c, err)
		return
	}

	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = store.PublicImageURL(h.PublicPrefix, name)
	}
	c.JSON(http.StatusCreated, uploadResponse{ImageIDs: ids, ImageURLs: urls})
}

// saveImage writes one part to the upload directory under a fresh name. A
// non-zero status reports why the part was rejected.
func (h *Handler) saveImage(header *multipart.FileHeader) (string, int, string) {
	src, err := header.Open()
	if err != nil {
		return "", http.StatusBadRequest, "unreadable file"
	}
	defer src.Close()

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(src, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", http.StatusBadRequest, "invalid image type"
	}

	name := uuid.NewString() + imageExt(header.Filename, contentType)
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		logger.Error("create upload", zap.String("name", name), zap.Error(err))
		return "", http.StatusInternalServerError, "failed to save file"
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(sniff[:n]), src)); err != nil {
		_ = os.Remove(dst.Name())
		logger.Error("write upload", zap.String("name", name), zap.Error(err))
		return "", http.StatusInternalServerError, "failed to write file"
	}
	return name, 0, ""
}

// imageExt keeps the client's extension when it is a plain one and falls back
// to the sniffed content type otherwise.
func imageExt(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(sanitizeFilename(filename)))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// sanitizeFilename strips directory components and trims whitespace to prevent path traversal.
func sanitizeFilename(name string) string {
	cleaned := strings.ReplaceAll(name, "\\", "/")
	cleaned = filepath.Base(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	return cleaned
}

func removeAll(dir string, names []string) {
	for _, name := range names {
		_ = os.Remove(filepath.Join(dir, name))
	}
}

func codeFor(status int) int {
	if status >= http.StatusInternalServerError {
		return transport.CodeInternal
	}
	return transport.CodeInvalidInput
}
