package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/metrics"
)

var ErrNotVideo = errors.New("uploaded file is not a video")

// multipart headers and boundaries on top of the file itself
const uploadOverhead = 1 << 20

type uploadHandler struct {
	dir      string
	maxBytes int64
	metrics  *metrics.Metrics
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (h *uploadHandler) handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+uploadOverhead)

	fh, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file"})
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	mtype, err := mimetype.DetectReader(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	if !strings.HasPrefix(mtype.String(), "video/") {
		log.Warn().Err(ErrNotVideo).Str("module", "adapters.http").Str("file", fh.Filename).Str("mime", mtype.String()).Msg("upload rejected")
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": ErrNotVideo.Error(), "mime": mtype.String()})
		return
	}

	if err := os.MkdirAll(h.dir, 0o750); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create upload dir")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	name := h.targetName(fh.Filename, mtype.Extension())
	if err := c.SaveUploadedFile(fh, filepath.Join(h.dir, name)); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("file", name).Msg("save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	h.metrics.IncUploads()
	log.Info().Str("module", "adapters.http").Str("file", name).Int64("bytes", fh.Size).Str("mime", mtype.String()).Msg("video uploaded")
	c.JSON(http.StatusOK, uploadResponse{URL: "/videos/" + name, Filename: name})
}

// targetName keeps the client's base name unless it is unusable or taken.
func (h *uploadHandler) targetName(original, ext string) string {
	name := sanitizeFilename(original)
	if name == "" {
		name = uuid.NewString() + ext
	}
	if _, err := os.Stat(filepath.Join(h.dir, name)); err == nil {
		name = fmt.Sprintf("%s-%s", uuid.NewString()[:8], name)
	}
	return name
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}
