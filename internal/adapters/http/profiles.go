package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/adapters/storage"
)

type profileHandler struct {
	profiles *storage.ProfileStore
	current  *storage.ConfigStore
}

func (h *profileHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.profiles.All(c.Request.Context()))
}

func (h *profileHandler) get(c *gin.Context) {
	doc, err := h.profiles.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

func (h *profileHandler) put(c *gin.Context) {
	name := c.Param("name")
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.profiles.Put(c.Request.Context(), name, body); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h *profileHandler) delete(c *gin.Context) {
	if err := h.profiles.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *profileHandler) getCurrent(c *gin.Context) {
	doc := h.current.Get(c.Request.Context())
	if doc == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

func (h *profileHandler) putCurrent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.current.Put(c.Request.Context(), body); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *profileHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrInvalidProfileName), errors.Is(err, storage.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	}
}
