// Package handlers is the JSON shell of the POS front end: sessions, catalog, cart,
// checkout, order history, reports and invoices.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
	"github.com/imrishuroy/go-pos-orderflow/internal/posapi"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/submission"
)

// SessionHeader names the session for routes outside /sessions/:sid.
const SessionHeader = "X-Session-ID"

// Authenticator signs staff in against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*posapi.LoginResult, error)
}

// Backend is the POS service as seen by one signed-in session.
type Backend interface {
	catalog.Source
	catalog.Editor
	checkout.OrderCreator
	ListOrders(ctx context.Context) ([]pos.HistoricalOrder, error)
	GetInvoice(ctx context.Context, id checkout.OrderID) (*posapi.Invoice, error)
	Logout(ctx context.Context) error
}

// HandlerConfig groups the dependencies of the routes.
type HandlerConfig struct {
	Auth      Authenticator
	Connect   func(token string) Backend
	Sessions  *session.Registry
	Catalog   *catalog.Service
	Builder   *checkout.Builder
	Gate      *submission.Gate
	Validate  *validatorv10.Validate
	Logger    *zap.Logger
	ImageBase string
	Now       func() time.Time
}

type server struct {
	HandlerConfig
}

// RegisterRoutes mounts every route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &server{HandlerConfig: cfg}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/sessions", s.login)
	sess := r.Group("/sessions/:sid", s.withSession(func(c *gin.Context) string { return c.Param("sid") }))
	{
		sess.DELETE("", s.logout)
		sess.GET("/cart", s.getCart)
		sess.POST("/cart/items", s.addItem)
		sess.POST("/cart/items/:id/increment", s.incrementItem)
		sess.POST("/cart/items/:id/decrement", s.decrementItem)
		sess.DELETE("/cart/items/:id", s.removeItem)
		sess.PUT("/cart/discount", s.setDiscount)
		sess.DELETE("/cart", s.clearCart)
		sess.POST("/checkout", s.checkout)
		sess.GET("/history", s.history)
	}

	authed := r.Group("", s.withSession(func(c *gin.Context) string { return c.GetHeader(SessionHeader) }))
	{
		authed.GET("/catalog/categories", s.categories)
		authed.GET("/catalog/items", s.items)
		authed.POST("/catalog/items", s.createMenuItem)
		authed.PUT("/catalog/items/:id", s.updateMenuItem)
		authed.DELETE("/catalog/items/:id", s.deleteMenuItem)
		authed.GET("/reports/sales", s.salesReport)
		authed.GET("/invoices/:id", s.invoice)
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if rid := c.GetHeader("X-Request-Id"); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

const stateKey = "session_state"

func (s *server) withSession(id func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := s.Sessions.Get(id(c))
		if err != nil {
			writeError(c, s.Logger, err)
			c.Abort()
			return
		}
		c.Set(stateKey, st)
		c.Next()
	}
}

func state(c *gin.Context) session.State {
	return c.MustGet(stateKey).(session.State)
}

func (s *server) backend(c *gin.Context) Backend {
	return s.Connect(state(c).Token)
}
