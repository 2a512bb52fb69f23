package main

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haasonsaas/darkan/pkg/admin"
	"github.com/haasonsaas/darkan/pkg/ingest"
)

// Server holds both RPC endpoints. Each endpoint handles one request at a
// time; the mutexes serialize handlers that net/http runs concurrently.
type Server struct {
	ingest  *ingest.Service
	admin   *admin.Dispatcher
	limiter *RateLimiter
	logger  zerolog.Logger

	ingestMu sync.Mutex
	adminMu  sync.Mutex
}

func NewServer(ingestSvc *ingest.Service, dispatcher *admin.Dispatcher, limiter *RateLimiter, logger zerolog.Logger) *Server {
	return &Server{
		ingest:  ingestSvc,
		admin:   dispatcher,
		limiter: limiter,
		logger:  logger,
	}
}

func (s *Server) ingestRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withRequestContext(s.logger.With().Str("component", "ingest_http").Logger()))
	r.POST("/v1/package", s.handlePackage)
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return r
}

func (s *Server) adminRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withRequestContext(s.logger.With().Str("component", "admin_http").Logger()))
	r.POST("/v1/command", s.handleCommand)
	return r
}

func (s *Server) handlePackage(c *gin.Context) {
	var pkg ingest.Package
	if err := c.ShouldBindJSON(&pkg); err != nil {
		respondError(c, http.StatusBadRequest, "malformed package: "+err.Error(), s.logger)
		return
	}
	if pkg.Hostname == "" {
		respondFailure(c, ingest.ErrMissingHostname, s.logger)
		return
	}
	if !s.limiter.Allow(pkg.Hostname) {
		respondFailure(c, errRateLimited, s.logger)
		return
	}

	s.ingestMu.Lock()
	out, err := s.ingest.Submit(c.Request.Context(), pkg)
	s.ingestMu.Unlock()
	if err != nil {
		respondFailure(c, err, s.logger)
		return
	}

	logger := requestLogger(c, s.logger)
	logger.Debug().
		Str("hostname", pkg.Hostname).
		Uint("host_id", out.HostID).
		Bool("created", out.Created).
		Bool("stored", out.Stored).
		Msg("Package handled")
	respondOK(c, nil)
}

func (s *Server) handleCommand(c *gin.Context) {
	var req admin.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, admin.ErrInvalidCommand, s.logger)
		return
	}

	s.adminMu.Lock()
	result, err := s.admin.Dispatch(c.Request.Context(), req)
	s.adminMu.Unlock()
	if err != nil {
		respondFailure(c, err, s.logger)
		return
	}
	respondOK(c, result)
}
