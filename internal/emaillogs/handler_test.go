package emaillogs

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/pkg/queue"
)

type memLogs struct {
	logs []models.EmailLog
}

func (m *memLogs) Record(_ context.Context, el *models.EmailLog) error {
	el.ID = uuid.New()
	el.CreatedAt = time.Now()
	m.logs = append(m.logs, *el)
	return nil
}

func (m *memLogs) ListByParticipant(_ context.Context, id uuid.UUID) ([]models.EmailLog, error) {
	out := make([]models.EmailLog, 0)
	for _, el := range m.logs {
		if el.ParticipantID == id {
			out = append(out, el)
		}
	}
	return out, nil
}

type memParticipants map[uuid.UUID]*models.Participant

func (m memParticipants) GetByID(_ context.Context, id uuid.UUID) (*models.Participant, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, roster.ErrNotFound
}

type memQueue struct {
	jobs []queue.ReceiptPayload
	err  error
}

func (m *memQueue) EnqueueReceipt(_ context.Context, p queue.ReceiptPayload) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, p)
	return nil
}

func paidParticipant(email string) *models.Participant {
	amount := 100.0
	at := time.Date(2025, 12, 28, 9, 0, 0, 0, time.UTC)
	return &models.Participant{
		ID:            uuid.New(),
		UniqueID:      "DG-7",
		Name:          "Maria",
		Email:         email,
		FeeStatus:     models.FeeStatusPaid,
		FeePaidAmount: &amount,
		FeePaidAt:     &at,
	}
}

func newRouter(store Store, participants ParticipantGetter, jobs Enqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, participants, jobs, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentifier, "desk@example.com")
		c.Next()
	})
	r.GET("/participants/:id/emails", h.ListByParticipant)
	r.POST("/participants/:id/emails/resend", h.Resend)
	return r
}

func send(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestResendQueuesJob(t *testing.T) {
	p := paidParticipant("maria@example.com")
	logs := &memLogs{}
	jobs := &memQueue{}
	r := newRouter(logs, memParticipants{p.ID: p}, jobs)

	w := send(r, http.MethodPost, "/participants/"+p.ID.String()+"/emails/resend")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, logs.logs, 1)
	assert.Equal(t, models.EmailLogStatusPending, logs.logs[0].Status)
	assert.Equal(t, "DG-7", logs.logs[0].ReceiptID)
	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, logs.logs[0].ID, jobs.jobs[0].LogID)
	assert.Equal(t, "desk@example.com", jobs.jobs[0].RequestedBy)

	w = send(r, http.MethodGet, "/participants/"+p.ID.String()+"/emails")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.EmailLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
}

func TestResendRejections(t *testing.T) {
	paid := paidParticipant("maria@example.com")
	noEmail := paidParticipant("")
	unpaid := &models.Participant{ID: uuid.New(), Name: "X", Email: "x@example.com", FeeStatus: models.FeeStatusPending}
	participants := memParticipants{paid.ID: paid, noEmail.ID: noEmail, unpaid.ID: unpaid}

	r := newRouter(&memLogs{}, participants, &memQueue{})
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/participants/nope/emails/resend").Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodPost, "/participants/"+uuid.NewString()+"/emails/resend").Code)
	assert.Equal(t, http.StatusConflict, send(r, http.MethodPost, "/participants/"+unpaid.ID.String()+"/emails/resend").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/participants/"+noEmail.ID.String()+"/emails/resend").Code)

	r = newRouter(&memLogs{}, participants, nil)
	assert.Equal(t, http.StatusServiceUnavailable, send(r, http.MethodPost, "/participants/"+paid.ID.String()+"/emails/resend").Code)

	r = newRouter(&memLogs{}, participants, &memQueue{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, send(r, http.MethodPost, "/participants/"+paid.ID.String()+"/emails/resend").Code)
}
