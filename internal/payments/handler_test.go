package payments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/middleware"
	"github.com/retreat-admin/backend/internal/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newPaymentsRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ledger := NewLedger(store, &recordingDispatcher{}, nil, nil)
	h := NewHandler(ledger, store, store, 100, time.UTC, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentifier, "desk-1")
		c.Next()
	})
	r.POST("/payments", h.Record)
	r.GET("/payments/history", h.History)
	r.GET("/payments/events", h.Events)
	return r
}

func send(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestHandlerRecordUsesDefaultAmount(t *testing.T) {
	p := participant("")
	store := newMemStore(p)
	r := newPaymentsRouter(store)

	w, env := send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var res Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 100.0, res.Entry.PaidAmount())
	assert.Equal(t, ReceiptSkipped, res.Receipt)
	assert.Equal(t, "desk-1", res.Event.RecordedBy)
}

func TestHandlerRecordErrors(t *testing.T) {
	p := participant("")
	store := newMemStore(p)
	r := newPaymentsRouter(store)

	w, _ := send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String(), "amount": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": uuid.NewString(), "amount": 100})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String(), "amount": 100, "expected_revision": 7})
	assert.Equal(t, http.StatusConflict, w.Code)

	store.writeErr = assert.AnError
	w, env := send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String(), "amount": 100})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, env.Error, assert.AnError.Error())
	assert.Equal(t, models.FeeStatusPending, store.entries[p.ID].FeeStatus)
}

func TestHandlerHistory(t *testing.T) {
	store := newMemStore(historyRoster()...)
	r := newPaymentsRouter(store)

	w, env := send(t, r, http.MethodGet, "/payments/history?mode=date&date=2025-12-28", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got HistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []string{"Newest", "Middle"}, historyNames(got.Entries))
	assert.Equal(t, Summary{Count: 2, Total: 250}, got.Summary)

	w, _ = send(t, r, http.MethodGet, "/payments/history?mode=date&date=28-12-2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = send(t, r, http.MethodGet, "/payments/history?mode=week", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerEvents(t *testing.T) {
	p := participant("")
	store := newMemStore(p)
	r := newPaymentsRouter(store)

	send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String(), "amount": 100})
	send(t, r, http.MethodPost, "/payments", map[string]any{"participant_id": p.ID.String(), "amount": 150})

	w, env := send(t, r, http.MethodGet, "/payments/events?participant_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.PaymentEvent
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 2)
	assert.Equal(t, 150.0, events[0].Amount)
}
