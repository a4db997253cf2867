package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	elapsed := time.Since(start)

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	s.metrics.observe(route, strconv.Itoa(status), elapsed)
	s.reqLogger(c).Debug("Requisição",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Duration("latency", elapsed),
		zap.String("client_ip", c.ClientIP()),
	)
}

// recover transforma um panic no handler em resposta 500.
func (s *Server) recover(c *gin.Context, recovered any) {
	err := fmt.Errorf("panic: %v", recovered)
	s.reqLogger(c).Error("Panic durante a requisição", zap.Error(err), zap.Stack("stack"))
	s.internalError(c, err)
}

func (s *Server) reqLogger(c *gin.Context) *zap.Logger {
	return s.logger.With(zap.String(requestIDKey, c.GetString(requestIDKey)))
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// internalError responde 500. O texto do erro vai para o cliente salvo se expose_errors=false.
func (s *Server) internalError(c *gin.Context, err error) {
	msg := "ocorreu um erro inesperado no servidor"
	if s.cfg.ExposeErrors {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	s.fail(c, http.StatusInternalServerError, msg)
}
