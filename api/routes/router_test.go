package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/humidityzone-backend/internal/cron"
	"github.com/angelmondragon/humidityzone-backend/internal/ipn"
	internalorders "github.com/angelmondragon/humidityzone-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/humidityzone-backend/pkg/auth"
	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubIPN struct {
	calls int
}

func (s *stubIPN) Handle(ctx context.Context, n ipn.Notification) (*ipn.Result, error) {
	s.calls++
	return &ipn.Result{TxnID: n.TxnID}, nil
}

type stubOrdersReader struct{}

func (stubOrdersReader) ListOrders(ctx context.Context, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	return &internalorders.OrderList{Orders: []internalorders.OrderSummary{}, Page: filters.Page, Limit: internalorders.ListPageSize}, nil
}

func (stubOrdersReader) FindOrderDetail(ctx context.Context, orderID int64) (*internalorders.OrderDetail, error) {
	return &internalorders.OrderDetail{ID: orderID}, nil
}

func (stubOrdersReader) ExportOrders(ctx context.Context, filters internalorders.ExportFilters) ([]internalorders.ExportRow, error) {
	return nil, nil
}

type stubSyncer struct {
	calls int
}

func (s *stubSyncer) Sync(ctx context.Context) (*cron.SyncReport, error) {
	s.calls++
	return &cron.SyncReport{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:          config.AppConfig{Env: "test"},
		JWT:          config.JWTConfig{Secret: "router-secret", Issuer: "humidityzone", ExpirationMinutes: 60},
		CORS:         config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}},
		CoinPayments: config.CoinPaymentsConfig{IPNSecret: "ipn-secret"},
		RateLimit:    config.RateLimitConfig{PublicWindow: time.Minute, PublicIPLimit: 30, PublicEmailLimit: 10},
	}
}

func newTestRouter(cfg *config.Config, deps Dependencies) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	if deps.DB == nil {
		deps.DB = stubPinger{}
	}
	if deps.Sessions == nil {
		deps.Sessions = stubSessionManager{}
	}
	if deps.OrdersReader == nil {
		deps.OrdersReader = stubOrdersReader{}
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.NewRegistry()
	}
	return NewRouter(cfg, logg, deps)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.OperatorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		Subject: "ops@example.com",
		Role:    role,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestViewerCanListOrders(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?page=2", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleViewer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for viewer list got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/5", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleViewer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for viewer detail got %d", resp.Code)
	}
}

func TestSyncRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	syncer := &stubSyncer{}
	router := newTestRouter(cfg, Dependencies{Sync: syncer})

	viewer := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/sync", nil)
	viewer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleViewer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, viewer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/sync", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if syncer.calls != 1 {
		t.Fatalf("expected one sync run, got %d", syncer.calls)
	}
}

func TestExportRoute(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/export", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.OperatorRoleViewer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("expected csv content type, got %q", resp.Header().Get("Content-Type"))
	}
}

func TestCoinPaymentsWebhookRejectsUnsignedBody(t *testing.T) {
	svc := &stubIPN{}
	router := newTestRouter(testConfig(), Dependencies{IPN: svc})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/coinpayments", strings.NewReader("txn_id=CP1&status=100"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatal("service must not be called for a bad signature")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestStorefrontWithoutServicesReturnsInternal(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
