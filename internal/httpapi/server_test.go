package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lotetrace/internal/contract"
	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/metrics"
	"github.com/roach88/lotetrace/internal/record"
	"github.com/roach88/lotetrace/internal/testutil"
	"github.com/roach88/lotetrace/internal/trace"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := trace.NewStore(
		ledger.NewMemory(),
		trace.WithClock(testutil.NewDeterministicClock()),
		trace.WithRelationObserver(m),
	)
	return New(contract.New(s, contract.WithMetrics(m)), Options{Gatherer: reg})
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRecordLifecycle(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodHead, "/api/v1/records/LOTE-001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/records", `{"id":"LOTE-001","name":"Chocolate","classificationCode":"1806"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodHead, "/api/v1/records/LOTE-001", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/records", `{"id":"LOTE-001","name":"x","classificationCode":"y"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ALREADY_EXISTS"`)

	rec = do(t, e, http.MethodPut, "/api/v1/records/LOTE-001", `{"name":"Chocolate Amargo","classificationCode":"1806"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got record.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Chocolate Amargo", got.Name)

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE-001/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snaps []trace.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	assert.Len(t, snaps, 2)

	rec = do(t, e, http.MethodDelete, "/api/v1/records/LOTE-001", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE-001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestEscapedIDs(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/records", `{"id":"LOTE/001","name":"Chocolate","classificationCode":"1806"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, e, http.MethodPost, "/api/v1/records", `{"id":"50%off","name":"Promo","classificationCode":"1806"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE%2F001", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got record.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "LOTE/001", got.ID)

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE%2F001/history", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snaps []trace.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	assert.Len(t, snaps, 1)

	rec = do(t, e, http.MethodPost, "/api/v1/records/LOTE%2F001/inputs", `{"id":"LOTE/777","name":"Cacau","classificationCode":"1801"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = do(t, e, http.MethodHead, "/api/v1/records/LOTE%2F777", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/records/50%25off", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "50%off", got.ID)
}

func TestAttachInput(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/records/LOTE-001/inputs", `{"id":"LOTE-777","name":"Cacau","classificationCode":"1801"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "owner must exist")

	do(t, e, http.MethodPost, "/api/v1/records", `{"id":"LOTE-001","name":"Chocolate","classificationCode":"1806"}`)
	rec = do(t, e, http.MethodPost, "/api/v1/records/LOTE-001/inputs", `{"id":"LOTE-777","name":"Cacau","classificationCode":"1801"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE-777", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cacau record.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cacau))
	assert.Equal(t, []record.RelationRef{{ID: "LOTE-001", Name: "Chocolate", ClassificationCode: "1806"}}, cacau.UsedBy)

	rec = do(t, e, http.MethodGet, "/api/v1/records/LOTE-001/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/records/LOTE-001/repair", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestInvoke(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/invoke/create", `{"args":["LOTE-001","Chocolate","1806"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/invoke/exists", `{"args":["LOTE-001"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/invoke/create", `{"args":["only-one"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INVALID_ARGUMENT"`)

	rec = do(t, e, http.MethodPost, "/api/v1/invoke/mint", `{"args":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/v1/invoke", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fns map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fns))
	assert.Equal(t, []string{"id", "name", "classificationCode"}, fns["create"])
}

func TestMalformedBody(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/api/v1/records", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t)
	do(t, e, http.MethodPost, "/api/v1/records", `{"id":"LOTE-001","name":"Chocolate","classificationCode":"1806"}`)

	rec := do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lotetrace_operations_total{operation="create",outcome="ok"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := map[trace.ErrorCode]int{
		trace.CodeNotFound:           http.StatusNotFound,
		trace.CodeAlreadyExists:      http.StatusConflict,
		trace.CodeInvalidArgument:    http.StatusBadRequest,
		trace.CodeCorruptRecord:      http.StatusInternalServerError,
		trace.CodeBackendUnavailable: http.StatusServiceUnavailable,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusFor(&trace.Error{Code: code}), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
