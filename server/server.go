// Package server exposes the dialogue engine over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Engine is the part of agent.Engine the handlers use.
type Engine interface {
	Start(ctx context.Context) (*types.ConversationState, error)
	Session(ctx context.Context, sessionID string) (*types.ConversationState, bool, error)
	Delete(ctx context.Context, sessionID string) error
	Turns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error)
	Invoke(ctx context.Context, req *agent.Request) (*agent.Response, error)
}

var _ Engine = (*agent.Engine)(nil)

type Options struct {
	// ServiceName labels the otelgin spans.
	ServiceName string
	// TurnWindow is the default number of turns GET .../turns returns.
	TurnWindow int
	// AccessLog enables gin's request logger.
	AccessLog bool
}

// New builds the router:
//
//	POST   /v1/sessions
//	GET    /v1/sessions/:id
//	DELETE /v1/sessions/:id
//	POST   /v1/sessions/:id/messages
//	GET    /v1/sessions/:id/turns?limit=N
//	GET    /v1/catalog
//	GET    /metrics
func New(engine Engine, cat *catalog.Catalog, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "ticketagent"
	}
	h := &Handlers{engine: engine, catalog: cat, turnWindow: opts.TurnWindow}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(opts.ServiceName))
	if opts.AccessLog {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	v1.POST("/sessions", h.HandleCreateSession)
	v1.GET("/sessions/:id", h.HandleGetSession)
	v1.DELETE("/sessions/:id", h.HandleDeleteSession)
	v1.POST("/sessions/:id/messages", h.HandlePostMessage)
	v1.GET("/sessions/:id/turns", h.HandleListTurns)
	v1.GET("/catalog", h.HandleGetCatalog)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}
