package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/domain"
)

const sessionScreenKey = "screen"

type pageHandler struct {
	root string
}

func (h *pageHandler) page(name string) gin.HandlerFunc {
	path := filepath.Join(h.root, name)
	return func(c *gin.Context) {
		c.File(path)
	}
}

// tv sends a browser to the player page of the screen it chose last time.
func (h *pageHandler) tv(c *gin.Context) {
	session := sessions.Default(c)
	if n, ok := session.Get(sessionScreenKey).(int); ok && n > 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/%d", n))
		return
	}
	c.Redirect(http.StatusFound, "/choose")
}

// fallback serves /<n> as the player page for screen n, then any file
// under the static root, then 404.
func (h *pageHandler) fallback(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	p := c.Request.URL.Path
	if n, ok := screenFromPath(p); ok {
		log.Debug().Str("module", "adapters.http").Int("screen", n).Msg("player page")
		c.File(filepath.Join(h.root, "player.html"))
		return
	}

	fs := http.Dir(h.root)
	if f, err := fs.Open(p); err == nil {
		st, statErr := f.Stat()
		_ = f.Close()
		if statErr == nil && !st.IsDir() {
			c.FileFromFS(p, fs)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func screenFromPath(p string) (int, bool) {
	s := strings.TrimPrefix(p, "/")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

type chooseRequest struct {
	Screen *domain.Screen `json:"screen" binding:"required,gte=1"`
}

// chooseScreen remembers the screen in the cookie session for /tv.
func chooseScreen(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid screen"})
		return
	}
	n := int(*req.Screen)

	session := sessions.Default(c)
	session.Set(sessionScreenKey, n)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Int("screen", n).Msg("screen chosen")
	c.JSON(http.StatusOK, gin.H{"screen": n, "url": fmt.Sprintf("/%d", n)})
}
