package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nutriplan/dietai/internal/domain/diet"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietai/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockDietService struct {
	mock.Mock
}

func (m *MockDietService) GenerateDiet(ctx context.Context, req diet.DietRequest) (diet.PlanResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(diet.PlanResult), args.Error(1)
}

func (m *MockDietService) Ask(ctx context.Context, req diet.AskRequest) (diet.AskResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(diet.AskResponse), args.Error(1)
}

func (m *MockDietService) ListModels(ctx context.Context) (diet.ModelList, error) {
	args := m.Called(ctx)
	return args.Get(0).(diet.ModelList), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "dietai-gateway", Version: "1.0.0", Environment: "test"},
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           5001,
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			IdleTimeout:    time.Second,
			AllowedOrigins: []string{"*"},
		},
		AI: config.AIConfig{UseGeminiFlag: "true", Timeout: time.Second},
		Monitoring: config.MonitoringConfig{
			EnableMetrics:   true,
			MetricsPath:     "/metrics",
			HealthCheckPath: "/health",
		},
	}
}

func newTestServer(t *testing.T, service *MockDietService) *Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewServer(
		testConfig(),
		logger,
		service,
		healthcheck.New("1.0.0", logger),
		monitoring.NewMetricsCollector(logger),
	)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	service := new(MockDietService)
	service.On("GenerateDiet", mock.Anything, mock.Anything).
		Return(diet.PlanResult{Body: json.RawMessage(`{"Monday":[]}`), Valid: true}, nil)
	service.On("Ask", mock.Anything, diet.AskRequest{Prompt: "hello"}).
		Return(diet.AskResponse{Answer: "Hi there"}, nil)
	service.On("ListModels", mock.Anything).
		Return(diet.ModelList{Models: []string{"models/gemini-flash-latest"}}, nil)

	s := newTestServer(t, service)

	rec := do(t, s, http.MethodPost, GenerateDietPath, `{"age":30}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Monday":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, AskAIPath, `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Hi there"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, ModelsPath, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":["models/gemini-flash-latest"]}`, rec.Body.String())

	service.AssertExpectations(t)
}

func TestServer_ResponseHeaders(t *testing.T) {
	service := new(MockDietService)
	service.On("Ask", mock.Anything, mock.Anything).Return(diet.AskResponse{Answer: "ok"}, nil)
	s := newTestServer(t, service)

	req := httptest.NewRequest(http.MethodPost, AskAIPath, strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Origin", "http://localhost:19006")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_Preflight(t *testing.T) {
	service := new(MockDietService)
	s := newTestServer(t, service)

	req := httptest.NewRequest(http.MethodOptions, GenerateDietPath, nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	service.AssertNotCalled(t, "GenerateDiet", mock.Anything, mock.Anything)
}

func TestServer_UnknownRoutes(t *testing.T) {
	s := newTestServer(t, new(MockDietService))

	rec := do(t, s, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, GenerateDietPath, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodPost, ModelsPath, "").Code)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, new(MockDietService))

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health/ready", "").Code)
}

func TestServer_Metrics(t *testing.T) {
	service := new(MockDietService)
	service.On("Ask", mock.Anything, mock.Anything).Return(diet.AskResponse{Answer: "ok"}, nil)
	s := newTestServer(t, service)

	do(t, s, http.MethodPost, AskAIPath, `{"prompt":"hi"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",path="/api/askAI",status_code="200"} 1`)
}

func TestServer_OpenAPI(t *testing.T) {
	s := newTestServer(t, new(MockDietService))

	rec := do(t, s, http.MethodGet, OpenAPIPath, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/generateDiet:")

	rec = do(t, s, http.MethodGet, DocsPath, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "url: '"+OpenAPIPath+"'")
}

func TestServer_SwaggerUIIgnoresRequestHeaders(t *testing.T) {
	s := newTestServer(t, new(MockDietService))

	req := httptest.NewRequest(http.MethodGet, DocsPath, nil)
	req.Host = "evil.example');alert(1);//"
	req.Header.Set("X-Forwarded-Proto", "javascript:alert(2)//</script><script>")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "alert(")
	assert.NotContains(t, body, "evil.example")
	assert.Equal(t, 1, strings.Count(body, "<script>"))
}

func TestServer_ProductionHidesSwaggerUI(t *testing.T) {
	cfg := testConfig()
	cfg.App.Environment = "production"
	s := NewServer(cfg, zaptest.NewLogger(t), new(MockDietService),
		healthcheck.New(cfg.App.Version, zaptest.NewLogger(t)),
		monitoring.NewMetricsCollector(zaptest.NewLogger(t)))

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, OpenAPIPath, "").Code)

	rec := do(t, s, http.MethodGet, DocsPath, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	logger := zaptest.NewLogger(t)
	s := NewServer(cfg, logger, new(MockDietService), healthcheck.New("1.0.0", logger), monitoring.NewMetricsCollector(logger))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	// Shutdown before or after ListenAndServe begins both end Start with nil
	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
