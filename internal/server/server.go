package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"diagnostico/internal/config"
	"diagnostico/internal/models"
)

// Server expõe o modelo carregado na inicialização. O modelo é só de leitura,
// então os handlers o compartilham sem trava.
type Server struct {
	cfg      *config.Server
	logger   *zap.Logger
	model    models.Model
	artifact *models.Artifact
	metrics  *metrics
	engine   *gin.Engine
	inner    *http.Server
}

// New monta o roteador. art pode ser nil quando o modelo não veio de um artefato.
func New(cfg *config.Server, logger *zap.Logger, model models.Model, art *models.Artifact) (*Server, error) {
	if model == nil {
		return nil, errors.New("servidor sem modelo")
	}
	gin.SetMode(ginMode(cfg.Environment))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		model:    model,
		artifact: art,
		metrics:  newMetrics(),
	}

	r := gin.New()
	r.Use(s.requestID, s.accessLog)
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, s.recover))
	if len(cfg.CORSOrigins) > 0 {
		cc, err := corsConfig(cfg.CORSOrigins)
		if err != nil {
			return nil, err
		}
		r.Use(cors.New(cc))
	}

	r.POST("/predict", s.handlePredict)
	r.POST("/predict/batch", s.handleBatch)
	r.GET("/health", s.handleHealth)
	r.GET("/model", s.handleModel)
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	s.engine = r
	s.inner = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start() error {
	s.logger.Info("Servidor iniciado", zap.String("addr", s.inner.Addr), zap.String("model", s.model.Name()))
	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.logger.Info("Encerrando servidor")
	return s.inner.Shutdown(ctx)
}

func ginMode(env string) string {
	switch env {
	case "dev":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

func corsConfig(origins []string) (cors.Config, error) {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        5 * time.Minute,
	}
	if slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
		return cc, nil
	}
	for _, o := range origins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return cors.Config{}, fmt.Errorf("origem CORS inválida %q: use http:// ou https://", o)
		}
	}
	cc.AllowOrigins = origins
	return cc, nil
}
