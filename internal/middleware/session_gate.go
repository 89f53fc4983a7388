package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/devscout-auth/internal/models"
	"github.com/noah-isme/devscout-auth/internal/service"
	"github.com/noah-isme/devscout-auth/pkg/cookie"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
	"github.com/noah-isme/devscout-auth/pkg/response"
)

// Context keys set by the session gate.
const (
	ContextUserKey  = "currentUser"
	ContextStateKey = "sessionState"
)

// LoginPath is where denied page requests are sent.
const LoginPath = "/login"

type sessionResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) (*models.SessionResolution, error)
	Identify(ctx context.Context, accessToken string) (*models.User, error)
}

// SessionGate classifies every request with the route table and resolves
// the session cookies accordingly.
type SessionGate struct {
	routes   *RouteTable
	resolver sessionResolver
	cookies  *cookie.Manager
	metrics  *service.MetricsService
	logger   *zap.Logger
}

// NewSessionGate constructs the gate.
func NewSessionGate(routes *RouteTable, resolver sessionResolver, cookies *cookie.Manager, metrics *service.MetricsService, logger *zap.Logger) *SessionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGate{routes: routes, resolver: resolver, cookies: cookies, metrics: metrics, logger: logger}
}

// Handler returns the gin middleware.
func (g *SessionGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		switch g.routes.Classify(c.Request.URL.Path) {
		case RoutePublic:
			g.public(c)
		case RouteGuestOnly:
			g.guestOnly(c)
		default:
			g.protected(c)
		}
	}
}

func (g *SessionGate) public(c *gin.Context) {
	user, err := g.resolver.Identify(c.Request.Context(), g.cookies.AccessToken(c))
	if err != nil {
		g.logger.Warn("identity lookup failed on public route", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	if user != nil {
		attach(c, user, models.SessionByAccessToken)
	}
	c.Next()
}

func (g *SessionGate) guestOnly(c *gin.Context) {
	res, ok := g.resolve(c)
	if !ok {
		return
	}
	if res.State.Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
		return
	}
	if res.State == models.SessionDenied {
		g.cookies.ClearSession(c)
	}
	c.Next()
}

func (g *SessionGate) protected(c *gin.Context) {
	res, ok := g.resolve(c)
	if !ok {
		return
	}
	if !res.State.Authenticated() {
		g.deny(c)
		return
	}
	attach(c, res.User, res.State)
	c.Next()
}

// resolve runs the state machine, re-sets cookies on rotation and answers
// storage failures itself.
func (g *SessionGate) resolve(c *gin.Context) (*models.SessionResolution, bool) {
	res, err := g.resolver.Resolve(c.Request.Context(), g.cookies.AccessToken(c), g.cookies.RefreshToken(c))
	if err != nil {
		g.logger.Error("session resolution failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Abort(c, err)
		return nil, false
	}
	g.metrics.RecordGateDecision(res.State)
	if res.State == models.SessionDenied {
		g.logger.Debug("session denied", zap.String("path", c.Request.URL.Path), zap.String("reason", res.Reason))
	}
	if res.State == models.SessionByRefresh && res.Tokens != nil {
		g.cookies.SetSession(c, res.Tokens.AccessToken, res.Tokens.RefreshToken)
	}
	return res, true
}

func (g *SessionGate) deny(c *gin.Context) {
	g.cookies.ClearSession(c)
	if g.routes.IsAPIPath(c.Request.URL.Path) {
		response.Abort(c, appErrors.Clone(appErrors.ErrInvalidToken, "authentication required"))
		return
	}
	c.Redirect(http.StatusSeeOther, LoginPath)
	c.Abort()
}

func attach(c *gin.Context, user *models.User, state models.SessionState) {
	c.Set(ContextUserKey, user)
	c.Set(ContextStateKey, state)
}

// CurrentUser returns the user attached by the gate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
