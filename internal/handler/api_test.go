package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/dispatcher"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/mocks"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/normalizer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeQueue struct {
	submitted []normalizer.Event
	err       error
}

func (q *fakeQueue) Submit(ev normalizer.Event) error {
	if q.err != nil {
		return q.err
	}
	q.submitted = append(q.submitted, ev)
	return nil
}

func (q *fakeQueue) QueueDepth() int { return len(q.submitted) }
func (q *fakeQueue) Rejected() int64 { return 3 }

type fakeStats struct{}

func (fakeStats) Stats() dispatcher.Stats { return dispatcher.Stats{Received: 10, Done: 8} }

type testServer struct {
	router   *gin.Engine
	queue    *fakeQueue
	senders  *mocks.MockSenderRepository
	analyses *mocks.MockAnalysisRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	s := &testServer{
		router:   gin.New(),
		queue:    &fakeQueue{},
		senders:  mocks.NewMockSenderRepository(ctrl),
		analyses: mocks.NewMockAnalysisRepository(ctrl),
	}
	NewHandler("Meu Guardião", s.queue, fakeStats{}, s.senders, s.analyses, zap.NewNop()).RegisterRoutes(s.router)
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const upsertPayload = `{
	"event": "messages.upsert",
	"instance": "meuguardiao",
	"data": {
		"key": {"remoteJid": "5511999@s.whatsapp.net", "fromMe": false, "id": "ABC"},
		"pushName": "Ana",
		"messageType": "conversation",
		"message": {"conversation": "clique aqui para ganhar um prêmio"}
	}
}`

func TestWebhook_AcceptsNewMessage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/webhook", upsertPayload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	require.Len(t, s.queue.submitted, 1)
	assert.Equal(t, "5511999@s.whatsapp.net", s.queue.submitted[0].Data.Key.RemoteJid)
}

func TestWebhook_ScenarioC_OtherEventsIgnored(t *testing.T) {
	s := newTestServer(t)

	for _, payload := range []string{
		`{"event": "connection.update", "data": {}}`,
		`{"event": "messages.update", "data": {"key": {"remoteJid": "5511999@s.whatsapp.net"}}}`,
		`{"event": "contacts.upsert", "instance": "meuguardiao", "data": [{"id": "5511999@s.whatsapp.net", "pushName": "Ana"}]}`,
		`{"event": "chats.update", "data": [{"remoteJid": "5511999@s.whatsapp.net", "unreadMessages": 1}]}`,
		`{"event": "qrcode.updated", "data": "data:image/png;base64,iVBORw0KGgo="}`,
		`{"event": "connection.update"}`,
		strings.Replace(upsertPayload, `"fromMe": false`, `"fromMe": true`, 1),
		strings.Replace(upsertPayload, `5511999@s.whatsapp.net`, `status@broadcast`, 1),
	} {
		w := s.do(http.MethodPost, "/webhook", payload)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	}
	assert.Empty(t, s.queue.submitted)
}

func TestWebhook_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	for _, payload := range []string{
		`{"event": `,
		`{"event": "messages.upsert", "data": [{"key": {}}]}`,
		`{"event": "messages.upsert", "data": "text"}`,
	} {
		w := s.do(http.MethodPost, "/webhook", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}
	assert.Empty(t, s.queue.submitted)
}

func TestWebhook_Backpressure(t *testing.T) {
	for _, err := range []error{dispatcher.ErrQueueFull, dispatcher.ErrPoolClosed} {
		s := newTestServer(t)
		s.queue.err = err

		w := s.do(http.MethodPost, "/webhook", upsertPayload)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "5", w.Header().Get("Retry-After"))
	}

	s := newTestServer(t)
	s.queue.err = errors.New("unexpected")
	w := s.do(http.MethodPost, "/webhook", upsertPayload)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		w := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"running","app":"Meu Guardião"}`, w.Body.String())
	}
}

func TestListAnalyses(t *testing.T) {
	s := newTestServer(t)
	s.analyses.EXPECT().ListRecent(gomock.Any(), 5).Return([]*models.AnalysisRecord{
		{ID: 2, SenderID: 1, MediaType: models.ModalityText, RiskScore: 9},
		{ID: 1, SenderID: 1, MediaType: models.ModalityImage, RiskScore: -1},
	}, nil)

	w := s.do(http.MethodGet, "/api/v1/analyses?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Analyses []models.AnalysisRecord `json:"analyses"`
		Total    int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, -1, body.Analyses[1].RiskScore)
}

func TestListAnalyses_BadLimit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/analyses?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSender(t *testing.T) {
	s := newTestServer(t)
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.senders.EXPECT().GetSenderByPhone(gomock.Any(), "5511999").
		Return(&models.Sender{ID: 7, Phone: "5511999", DisplayName: "Ana", FirstSeen: seen, LastSeen: seen}, nil)
	s.analyses.EXPECT().ListBySender(gomock.Any(), int64(7), defaultListLimit).
		Return([]*models.AnalysisRecord{{ID: 1, SenderID: 7}}, nil)

	w := s.do(http.MethodGet, "/api/v1/senders/5511999", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display_name":"Ana"`)
}

func TestGetSender_NotFound(t *testing.T) {
	s := newTestServer(t)
	s.senders.EXPECT().GetSenderByPhone(gomock.Any(), "000").Return(nil, nil)

	w := s.do(http.MethodGet, "/api/v1/senders/000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Dispatcher dispatcher.Stats `json:"dispatcher"`
		QueueDepth int              `json:"queue_depth"`
		Rejected   int64            `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(10), body.Dispatcher.Received)
	assert.Equal(t, int64(3), body.Rejected)
}
