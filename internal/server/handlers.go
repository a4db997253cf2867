package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"diagnostico/internal/features"
	"diagnostico/internal/models"
)

const maxBodyBytes = 1 << 20

const errNotJSON = "o corpo da requisição deve ser um objeto JSON"

var errNotJSONArray = errors.New("o corpo da requisição deve ser uma lista JSON de objetos")

func (s *Server) handlePredict(c *gin.Context) {
	log := s.reqLogger(c)

	var body map[string]any
	if err := decodeJSON(c.Request.Body, &body); err != nil || body == nil {
		log.Warn("Requisição sem JSON ou com formato incorreto", zap.Error(err))
		s.fail(c, http.StatusBadRequest, errNotJSON)
		return
	}

	x, err := features.Vectorize(body)
	var missing *features.MissingError
	if errors.As(err, &missing) {
		log.Warn("Falta característica obrigatória no JSON", zap.Strings("missing", missing.Missing))
		s.fail(c, http.StatusBadRequest, missing.Error())
		return
	}
	if err != nil {
		log.Error("Erro interno durante a predição", zap.Error(err))
		s.internalError(c, err)
		return
	}

	pred, err := models.Classify(s.model, x)
	if err != nil {
		log.Error("Erro interno durante a predição", zap.Error(err))
		s.internalError(c, err)
		return
	}

	s.metrics.predictions.WithLabelValues(pred.Message).Inc()
	log.Info("Predição realizada",
		zap.Int("prediction", pred.Label),
		zap.Float64s("probabilities", pred.Probabilities[:]),
		zap.String("message", pred.Message),
	)
	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleBatch(c *gin.Context) {
	log := s.reqLogger(c)

	var items []map[string]any
	if err := decodeJSON(c.Request.Body, &items); err != nil || items == nil {
		if err == nil {
			err = errNotJSONArray
		}
		log.Warn("Lote sem JSON ou com formato incorreto", zap.Error(err))
		s.fail(c, http.StatusBadRequest, errNotJSONArray.Error())
		return
	}

	X := make([][]float64, 0, len(items))
	for i, it := range items {
		if it == nil {
			log.Warn("Item do lote não é um objeto", zap.Int("index", i))
			s.fail(c, http.StatusBadRequest, fmt.Sprintf("item %d: %s", i, errNotJSON))
			return
		}
		x, err := features.Vectorize(it)
		var missing *features.MissingError
		if errors.As(err, &missing) {
			log.Warn("Falta característica obrigatória no lote", zap.Int("index", i), zap.Strings("missing", missing.Missing))
			s.fail(c, http.StatusBadRequest, fmt.Sprintf("item %d: %s", i, missing.Error()))
			return
		}
		if err != nil {
			log.Error("Erro interno durante a predição em lote", zap.Int("index", i), zap.Error(err))
			s.internalError(c, fmt.Errorf("item %d: %w", i, err))
			return
		}
		X = append(X, x)
	}

	preds := []models.Prediction{}
	if len(X) > 0 {
		var err error
		preds, err = models.ClassifyBatch(s.model, X)
		if err != nil {
			log.Error("Erro interno durante a predição em lote", zap.Error(err))
			s.internalError(c, err)
			return
		}
	}
	for _, p := range preds {
		s.metrics.predictions.WithLabelValues(p.Message).Inc()
	}
	log.Info("Lote de predições realizado", zap.Int("items", len(preds)))
	c.JSON(http.StatusOK, preds)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": s.model.Name()})
}

func (s *Server) handleModel(c *gin.Context) {
	out := gin.H{"model": s.model.Name(), "features": features.Names}
	if a := s.artifact; a != nil {
		out["features"] = a.Features
		out["trained_at"] = a.TrainedAt
		out["dataset"] = a.Dataset
		out["metrics"] = a.Metrics
		if a.Model != nil {
			out["iterations"] = a.Model.NIter
			out["converged"] = a.Model.Converged
		}
	}
	c.JSON(http.StatusOK, out)
}

// decodeJSON lê exatamente um valor JSON do corpo; números ficam como json.Number.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("dados extras após o valor JSON")
	}
	return nil
}
