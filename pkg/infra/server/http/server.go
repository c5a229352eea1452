// Package http provides the gin based HTTP server.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-rag/pkg/infra/middleware"
	options "github.com/kart-io/sentinel-rag/pkg/options/server/http"
	apierrors "github.com/kart-io/sentinel-rag/pkg/utils/errors"
	"github.com/kart-io/sentinel-rag/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	engine *gin.Engine
	server *http.Server
	addr   string
}

// NewServer creates a new HTTP server with the given options.
func NewServer(opts *options.Options) *Server {
	if opts == nil {
		opts = options.NewOptions()
	}

	gin.SetMode(gin.ReleaseMode)

	// 不使用 gin 默认中间件
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	// 中间件必须在注册路由前应用，子路由组才能继承
	engine.Use(middleware.Recovery(), middleware.RequestID())
	if opts.AccessLog {
		engine.Use(middleware.Logger())
	}
	engine.Use(middleware.Tracing(middleware.DefaultSkipPaths...))

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrPageNotFound)
	})
	engine.NoMethod(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrMethodNotAllowed)
	})

	return &Server{opts: opts, engine: engine}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	if s.addr != "" {
		return s.addr
	}
	return s.opts.Addr
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()

	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		_ = s.server.Close()
		_ = ln.Close()
		return ctx.Err()
	default:
		return nil
	}
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
