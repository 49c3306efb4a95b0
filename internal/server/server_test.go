package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtam/ordersight/internal/config"
	"github.com/minhtam/ordersight/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, "orders_web.csv",
		"order_id,channel_id,order_date,status\n1,1,2025-01-01,completed\n2,1,2025-01-02,completed\n")
	writeFixture(t, dir, "orders_app.csv",
		"order_id,channel_id,order_date,status\n3,2,2025-01-03,returned\n")
	writeFixture(t, dir, "items.csv",
		"order_id,sku,quantity,unit_price\n1,SKU001,2,100\n2,SKU002,1,50\n3,SKU003,1,75\n")
	writeFixture(t, dir, "channels.csv",
		"channel_id,channel_name\n1,Website\n2,Mobile App\n")

	cfg := &config.Config{
		Data: config.DataConfig{
			Dir:       dir,
			WebOrders: "orders_web.csv",
			AppOrders: "orders_app.csv",
			Items:     "items.csv",
			Channels:  "channels.csv",
		},
	}

	return NewServer(cfg, nil)
}

func doRequest(t *testing.T, srv *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheckCSVMode(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/health", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"csv"`)
}

func TestGetMetrics(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/metrics", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var m models.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("250")), "revenue = %s", m.Revenue)
	assert.InDelta(t, 25.0, m.ReturnRate, 1e-9)
	assert.Equal(t, "SKU001 (2)", m.TopSKU)
}

func TestGetMetricsFiltered(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/metrics?channel=Mobile+App", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var m models.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.Revenue.IsZero())
	assert.InDelta(t, 100.0, m.ReturnRate, 1e-9)
}

func TestGetMetricsDateRange(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/metrics?from=2025-01-01&to=2025-01-01", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var m models.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("200")), "revenue = %s", m.Revenue)
}

func TestGetDailyRevenue(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/revenue/daily", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var series []models.DatePoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	require.Len(t, series, 2)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestGetChannelDist(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/channels/distribution", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var dist []models.ChannelPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	require.Len(t, dist, 1)
	assert.Equal(t, "Website", dist[0].Channel)
}

func TestGetOrdersDetail(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/orders", nil, "")

	require.Equal(t, http.StatusOK, w.Code)

	var rows []models.OrderLine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 3)
}

func TestExportReport(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/report", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestImportHistoryWithoutDatabase(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/imports", nil, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadUnknownSource(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/upload/bogus", nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadReplacesSourceAndRebuilds(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "orders_app.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("order_id,channel_id,order_date,status\n3,2,2025-01-03,completed\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, srv, http.MethodPost, "/api/upload/app", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)

	// Order 3 flipped to completed: its 75 now counts as revenue.
	w = doRequest(t, srv, http.MethodGet, "/api/metrics", nil, "")
	var m models.Metrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.Revenue.Equal(decimal.RequireFromString("325")), "revenue = %s", m.Revenue)
	assert.Zero(t, m.ReturnRate)
}

func TestUploadRejectsInvalidCSV(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "orders_app.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("order_id,channel_id,order_date,status\nnope,2,2025-01-03,completed\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, srv, http.MethodPost, "/api/upload/app", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/refresh", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":3`)
}
