package cookie

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names understood by the browser clients.
const (
	AccessName  = "token"
	RefreshName = "refreshToken"
)

// Config controls the attributes applied to every session cookie.
type Config struct {
	Domain     string
	Secure     bool
	Path       string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager sets, reads and clears the two session cookies.
type Manager struct {
	cfg Config
}

// NewManager builds a Manager, filling unset fields with the session defaults.
func NewManager(cfg Config) *Manager {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{cfg: cfg}
}

// SetSession writes both cookies.
func (m *Manager) SetSession(c *gin.Context, accessToken, refreshToken string) {
	m.set(c, AccessName, accessToken, int(m.cfg.AccessTTL/time.Second))
	m.set(c, RefreshName, refreshToken, int(m.cfg.RefreshTTL/time.Second))
}

// ClearSession expires both cookies.
func (m *Manager) ClearSession(c *gin.Context) {
	m.set(c, AccessName, "", -1)
	m.set(c, RefreshName, "", -1)
}

// AccessToken returns the access cookie or "".
func (m *Manager) AccessToken(c *gin.Context) string {
	return read(c, AccessName)
}

// RefreshToken returns the refresh cookie or "".
func (m *Manager) RefreshToken(c *gin.Context) string {
	return read(c, RefreshName)
}

func (m *Manager) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, m.cfg.Path, m.cfg.Domain, m.cfg.Secure, true)
}

func read(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}
