package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trading-panel/internal/dto"
	"trading-panel/internal/model"
	"trading-panel/internal/realtime"
	"trading-panel/internal/repository"
	"trading-panel/internal/service"
	"trading-panel/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type staticSource map[string]float64

func (s staticSource) ResolvePrice(_ context.Context, symbol string) dto.PriceQuote {
	price, ok := s[symbol]
	return dto.PriceQuote{Symbol: symbol, LastPrice: price, Found: ok}
}

type silentNotifier struct{}

func (silentNotifier) Broadcast(context.Context, string) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (silentNotifier) NotifyPositionOpened(context.Context, model.Position) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (silentNotifier) NotifyPositionClosed(context.Context, model.Position, dto.PositionClosure) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

func (silentNotifier) NotifyAlertTriggered(context.Context, dto.Alert, float64) dto.BroadcastResult {
	return dto.BroadcastResult{}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestAPI(t *testing.T, db Pinger) *echo.Echo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(&model.Position{}, &model.PositionHistory{}, &model.PositionLog{}, &model.User{}))

	log := logger.NewNop()
	validator := service.NewValidator()
	prices := service.NewPriceService(log, staticSource{"BTCUSDT": 65000, "SOLUSDT": 150}, nil, 2, time.Minute)
	svc := &service.Service{
		PriceService: prices,
		PositionService: service.NewPositionService(log, validator, repository.NewPositionRepository(gdb),
			repository.NewUnitOfWork(gdb), prices, silentNotifier{}, service.RetryPolicy{Attempts: 1}),
		AlertRegistry: service.NewAlertRegistry(log, validator, prices, 1),
	}

	e := echo.New()
	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)
	NewHttpAPIHandler(e, svc, hub, db).SetupRoutes()
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestPositionsAPI(t *testing.T) {
	e := newTestAPI(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/positions", `{"name":"btcusdt","pos_type":"long","cross":10,"percent":10,"take_profit":70000,"stop_loss":60000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Position
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "BTCUSDT", created.Name)
	assert.Equal(t, 65000.0, created.EntryPrice)

	rec = doRequest(e, http.MethodPost, "/api/v1/positions", `{"name":"btcusdt","pos_type":"long","percent":10,"take_profit":1,"stop_loss":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), "take_profit")

	rec = doRequest(e, http.MethodPost, "/api/v1/positions", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPatch, "/api/v1/positions/1", `{"stop_loss":61000}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/api/v1/positions?active=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Position
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, 61000.0, listed[0].StopLoss)

	rec = doRequest(e, http.MethodPost, "/api/v1/positions/1/close", `{"price":66000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var closed model.Position
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &closed))
	assert.False(t, closed.IsActive)

	rec = doRequest(e, http.MethodPost, "/api/v1/positions/1/close", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/positions/1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var audit struct {
		History []model.PositionHistory `json:"history"`
		Logs    []model.PositionLog     `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &audit))
	assert.Len(t, audit.History, 2)
	assert.Len(t, audit.Logs, 3)

	rec = doRequest(e, http.MethodDelete, "/api/v1/positions/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(e, http.MethodDelete, "/api/v1/positions/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(e, http.MethodGet, "/api/v1/positions/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(e, http.MethodGet, "/api/v1/positions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertsAPI(t *testing.T) {
	e := newTestAPI(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/alerts", `{"name":"solusdt","target_price":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var alert dto.Alert
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &alert))
	assert.Equal(t, dto.AlertAbove, alert.Condition)

	rec = doRequest(e, http.MethodPost, "/api/v1/alerts", `{"name":"unknown","target_price":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []dto.Alert
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &alerts))
	require.Len(t, alerts, 1)

	rec = doRequest(e, http.MethodDelete, "/api/v1/alerts/"+alert.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(e, http.MethodDelete, "/api/v1/alerts/"+alert.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAPI(t *testing.T) {
	healthy := newTestAPI(t, pingerFunc(func(context.Context) error { return nil }))
	rec := doRequest(healthy, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price_source":true`)

	down := newTestAPI(t, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = doRequest(down, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
