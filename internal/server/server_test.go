package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"diagnostico/internal/config"
	"diagnostico/internal/dataset"
	"diagnostico/internal/features"
	"diagnostico/internal/models"
)

var (
	trainOnce sync.Once
	trained   *models.LogisticRegression
	trainErr  error
)

func trainedModel(t *testing.T) *models.LogisticRegression {
	t.Helper()
	trainOnce.Do(func() {
		ds, err := dataset.BreastCancer().Select(features.Names)
		if err != nil {
			trainErr = err
			return
		}
		train, _ := dataset.TrainTestSplit(ds, 0.2, 42)
		trained = models.NewLogisticRegression()
		trainErr = trained.Fit(train.X, train.Y)
	})
	if trainErr != nil {
		t.Fatalf("train: %v", trainErr)
	}
	return trained
}

func testConfig() *config.Server {
	return &config.Server{Host: "127.0.0.1", Port: 5000, ModelPath: "model.gob", Environment: "test", ExposeErrors: true}
}

func newTestServer(t *testing.T, cfg *config.Server, m models.Model) (*Server, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := New(cfg, zap.New(core), m, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, logs
}

type predictResponse struct {
	Prediction    *int      `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
	Message       string    `json:"message"`
	Error         string    `json:"error"`
}

func post(t *testing.T, s *Server, path, body string) (*httptest.ResponseRecorder, predictResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var resp predictResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func bodyFor(t *testing.T, vec []float64) string {
	t.Helper()
	b, err := json.Marshal(features.Map(vec))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func benignMean(t *testing.T) []float64 {
	ds, err := dataset.BreastCancer().Select(features.Names)
	if err != nil {
		t.Fatal(err)
	}
	return dataset.ClassMean(ds, dataset.Benign)
}

func TestPredictBenignMean(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))

	w, resp := post(t, s, "/predict", bodyFor(t, benignMean(t)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Prediction == nil || *resp.Prediction != 1 {
		t.Fatalf("expected prediction 1, got %s", w.Body.String())
	}
	if resp.Message != "Benigno" {
		t.Fatalf("expected Benigno, got %q", resp.Message)
	}
	if len(resp.Probabilities) != 2 {
		t.Fatalf("expected 2 probabilities, got %v", resp.Probabilities)
	}
	if sum := resp.Probabilities[0] + resp.Probabilities[1]; math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	if resp.Probabilities[1] <= 0.5 {
		t.Fatalf("expected p(benign) > 0.5, got %v", resp.Probabilities[1])
	}
}

func TestPredictMalignantMean(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	ds, _ := dataset.BreastCancer().Select(features.Names)

	w, resp := post(t, s, "/predict", bodyFor(t, dataset.ClassMean(ds, dataset.Malignant)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp.Prediction == nil || *resp.Prediction != 0 || resp.Message != "Maligno" {
		t.Fatalf("expected 0/Maligno, got %s", w.Body.String())
	}
}

func TestPredictMessageMatchesLabel(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	ds, _ := dataset.BreastCancer().Select(features.Names)
	_, test := dataset.TrainTestSplit(ds, 0.2, 42)

	seen := map[int]bool{}
	for i, row := range test.X {
		w, resp := post(t, s, "/predict", bodyFor(t, row))
		if w.Code != http.StatusOK || resp.Prediction == nil {
			t.Fatalf("row %d: status %d body %s", i, w.Code, w.Body.String())
		}
		p := *resp.Prediction
		if p != 0 && p != 1 {
			t.Fatalf("row %d: prediction %d", i, p)
		}
		want := map[int]string{0: "Maligno", 1: "Benigno"}[p]
		if resp.Message != want {
			t.Fatalf("row %d: prediction %d with message %q", i, p, resp.Message)
		}
		seen[p] = true
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("expected both labels on the holdout, saw %v", seen)
	}
}

func TestPredictMissingField(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	mean := benignMean(t)

	for _, name := range features.Names {
		body := features.Map(mean)
		delete(body, name)
		b, _ := json.Marshal(body)
		w, resp := post(t, s, "/predict", string(b))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("without %q: expected 400, got %d", name, w.Code)
		}
		if !strings.Contains(resp.Error, name) {
			t.Fatalf("without %q: error does not name the field: %q", name, resp.Error)
		}
	}
}

func TestPredictAllFieldsMissing(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	w, resp := post(t, s, "/predict", `{"foo": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	for _, name := range features.Names {
		if !strings.Contains(resp.Error, name) {
			t.Fatalf("error does not name %q: %q", name, resp.Error)
		}
	}
}

func TestPredictNotJSON(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	for _, body := range []string{"", "not json", "[1, 2]", "null", `"texto"`, `{"mean radius": 1} trailing`} {
		w, resp := post(t, s, "/predict", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
		if resp.Error == "" {
			t.Fatalf("body %q: expected error message", body)
		}
	}
}

func TestPredictExtraFieldsIgnored(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	mean := benignMean(t)

	_, plain := post(t, s, "/predict", bodyFor(t, mean))
	body := features.Map(mean)
	body["id"] = "abc"
	body["worst radius"] = 99.0
	b, _ := json.Marshal(body)
	w, extra := post(t, s, "/predict", string(b))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *extra.Prediction != *plain.Prediction || extra.Probabilities[1] != plain.Probabilities[1] {
		t.Fatalf("extra fields changed the result: %+v vs %+v", extra, plain)
	}
}

func TestPredictDeterministic(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	body := bodyFor(t, benignMean(t))

	first, _ := post(t, s, "/predict", body)
	for i := 0; i < 5; i++ {
		w, _ := post(t, s, "/predict", body)
		if !bytes.Equal(w.Body.Bytes(), first.Body.Bytes()) {
			t.Fatalf("call %d differs: %s vs %s", i, w.Body.String(), first.Body.String())
		}
	}
}

func TestPredictBadValueIsServerError(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	body := features.Map(benignMean(t))
	body["mean radius"] = "abc"
	b, _ := json.Marshal(body)

	w, resp := post(t, s, "/predict", string(b))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(resp.Error, "mean radius") {
		t.Fatalf("expected error text to be echoed, got %q", resp.Error)
	}
}

func TestPredictOverflowIsServerError(t *testing.T) {
	s, logs := newTestServer(t, testConfig(), trainedModel(t))
	body := features.Map(benignMean(t))
	body["mean smoothness"] = 1e308
	body["mean compactness"] = -1e308
	b, _ := json.Marshal(body)

	w, resp := post(t, s, "/predict", string(b))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %q", w.Code, w.Body.String())
	}
	if resp.Error == "" {
		t.Fatalf("expected error body, got %q", w.Body.String())
	}
	if logs.FilterMessage("Predição realizada").Len() != 0 {
		t.Fatal("overflowing input logged as a successful prediction")
	}
	if logs.FilterMessage("Erro interno durante a predição").Len() != 1 {
		t.Fatal("expected the failure to be logged")
	}
}

func TestPredictInvalidProbabilityIsServerError(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), &fakeModel{labels: []int{1}, probs: []float64{math.NaN()}})

	w, resp := post(t, s, "/predict", bodyFor(t, benignMean(t)))
	if w.Code != http.StatusInternalServerError || resp.Error == "" {
		t.Fatalf("expected 500 with error body, got %d: %q", w.Code, w.Body.String())
	}
}

func TestPredictNumericStringsAccepted(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	body := features.Map(benignMean(t))
	body["mean texture"] = "17.9"
	b, _ := json.Marshal(body)

	w, _ := post(t, s, "/predict", string(b))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

type fakeModel struct {
	err    error
	panic  bool
	labels []int
	probs  []float64
}

func (f *fakeModel) Fit(X [][]float64, y []int) error { return nil }
func (f *fakeModel) Name() string                      { return "fake" }

func (f *fakeModel) Predict(X [][]float64) ([]int, error) {
	if f.panic {
		panic("boom")
	}
	return f.labels, f.err
}

func (f *fakeModel) PredictProba(X [][]float64) ([]float64, error) { return f.probs, f.err }

func TestPredictModelErrorIsServerError(t *testing.T) {
	s, logs := newTestServer(t, testConfig(), &fakeModel{err: errors.New("falha numérica")})

	w, resp := post(t, s, "/predict", bodyFor(t, benignMean(t)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(resp.Error, "falha numérica") {
		t.Fatalf("expected error text in body, got %q", resp.Error)
	}
	if logs.FilterMessage("Erro interno durante a predição").FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Fatalf("expected one error log entry, got %v", logs.All())
	}
}

func TestPredictErrorsHiddenWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.ExposeErrors = false
	s, _ := newTestServer(t, cfg, &fakeModel{err: errors.New("segredo interno")})

	w, resp := post(t, s, "/predict", bodyFor(t, benignMean(t)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(resp.Error, "segredo") {
		t.Fatalf("error text leaked: %q", resp.Error)
	}
}

func TestPredictPanicRecovered(t *testing.T) {
	s, logs := newTestServer(t, testConfig(), &fakeModel{panic: true})

	w, resp := post(t, s, "/predict", bodyFor(t, benignMean(t)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(resp.Error, "boom") {
		t.Fatalf("expected panic text in body, got %q", resp.Error)
	}
	if logs.FilterMessage("Panic durante a requisição").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestPredictLogsOutcome(t *testing.T) {
	s, logs := newTestServer(t, testConfig(), trainedModel(t))

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(bodyFor(t, benignMean(t))))
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	entries := logs.FilterMessage("Predição realizada").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 prediction log, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx[requestIDKey] != "req-123" {
		t.Fatalf("missing request id in log: %v", ctx)
	}
	if ctx["message"] != "Benigno" {
		t.Fatalf("unexpected logged message: %v", ctx)
	}

	post(t, s, "/predict", `{}`)
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Fatalf("expected a warning for the rejected request")
	}
}

func TestBatch(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	ds, _ := dataset.BreastCancer().Select(features.Names)
	items := []map[string]any{
		features.Map(dataset.ClassMean(ds, dataset.Malignant)),
		features.Map(dataset.ClassMean(ds, dataset.Benign)),
	}
	b, _ := json.Marshal(items)

	req := httptest.NewRequest(http.MethodPost, "/predict/batch", bytes.NewReader(b))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var preds []models.Prediction
	if err := json.Unmarshal(w.Body.Bytes(), &preds); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(preds) != 2 || preds[0].Label != 0 || preds[1].Label != 1 {
		t.Fatalf("unexpected predictions: %+v", preds)
	}

	delete(items[1], "mean area")
	b, _ = json.Marshal(items)
	w, resp := post(t, s, "/predict/batch", string(b))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(resp.Error, "item 1") || !strings.Contains(resp.Error, "mean area") {
		t.Fatalf("unexpected error: %q", resp.Error)
	}

	w, _ = post(t, s, "/predict/batch", `{"mean radius": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("object body: expected 400, got %d", w.Code)
	}
}

func TestHealthAndModelInfo(t *testing.T) {
	m := trainedModel(t)
	core, _ := observer.New(zapcore.InfoLevel)
	art := &models.Artifact{Version: models.ArtifactVersion, Model: m, Features: features.Names}
	s, err := New(testConfig(), zap.New(core), m, art)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model", nil))
	var info struct {
		Model    string   `json:"model"`
		Features []string `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if info.Model != "LogisticRegression" || len(info.Features) != 10 {
		t.Fatalf("unexpected model info: %+v", info)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), trainedModel(t))
	post(t, s, "/predict", bodyFor(t, benignMean(t)))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `diagnostico_predictions_total{message="Benigno"} 1`) {
		t.Fatalf("prediction counter missing:\n%s", body)
	}
	if !strings.Contains(body, `diagnostico_http_requests_total{code="200",route="/predict"} 1`) {
		t.Fatalf("request counter missing")
	}
}

func TestCORSConfig(t *testing.T) {
	if _, err := corsConfig([]string{"example.com"}); err == nil {
		t.Fatal("expected error for origin without scheme")
	}
	cc, err := corsConfig([]string{"*"})
	if err != nil || !cc.AllowAllOrigins {
		t.Fatalf("expected wildcard to allow all origins: %+v %v", cc, err)
	}
	cc, err = corsConfig([]string{"https://app.example.com"})
	if err != nil || len(cc.AllowOrigins) != 1 {
		t.Fatalf("unexpected config: %+v %v", cc, err)
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(testConfig(), zap.NewNop(), nil, nil); err == nil {
		t.Fatal("expected error without model")
	}
}
