package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leadwire/internal/database"
	"leadwire/internal/models"
	"leadwire/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	err   error
	sent  []string
	sid   string
	calls int
}

func (g *stubGateway) SendText(ctx context.Context, to, body string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	g.sent = append(g.sent, body)
	if g.sid == "" {
		return "SMstub", nil
	}
	return g.sid, nil
}

func newTestServer(t *testing.T) (*Server, *stubGateway) {
	t.Helper()

	for _, key := range []string{"LEADWIRE_ENV", "LEADWIRE_ENABLE_ENCRYPTION", "LEADWIRE_ENCRYPTION_SECRET"} {
		original := os.Getenv(key)
		_ = os.Unsetenv(key)
		t.Cleanup(func() {
			if original != "" {
				_ = os.Setenv(key, original)
			}
		})
	}

	db, err := database.New(filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gateway := &stubGateway{}

	leadService := service.NewLeadService(db, database.IsUniqueConstraintError, logger)
	propertyService := service.NewPropertyService(db, logger)
	messageService := service.NewMessageService(db, leadService, propertyService, gateway,
		service.NewAutoResponder(), time.Second, logger)

	cfg := &models.Config{}
	cfg.Server.Port = 0
	cfg.Server.MaxRequestBytes = 1 << 20

	return NewServer(cfg, messageService, leadService, propertyService, logger), gateway
}

func postWebhook(server *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/communications/webhook/sms",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestWebhookAcceptsInboundSMS(t *testing.T) {
	server, gateway := newTestServer(t)

	rec := postWebhook(server, url.Values{
		"From":       {"+15551234567"},
		"Body":       {"Hi, any houses available?"},
		"MessageSid": {"SMinbound1"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`, rec.Body.String())

	// Lead was created and an auto-response went out.
	assert.Equal(t, 1, gateway.calls)

	leadsReq := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	leadsRec := httptest.NewRecorder()
	server.router.ServeHTTP(leadsRec, leadsReq)

	var leads []models.Lead
	require.NoError(t, json.Unmarshal(leadsRec.Body.Bytes(), &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "+15551234567", leads[0].PhoneNumber)
	assert.Equal(t, models.LeadStatusContacted, leads[0].Status)
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	server, gateway := newTestServer(t)

	rec := postWebhook(server, url.Values{"Body": {"hello"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(server, url.Values{"From": {"+15551234567"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, gateway.calls)
}

func TestWebhookAcksWhenGatewayFails(t *testing.T) {
	server, gateway := newTestServer(t)
	gateway.err = context.DeadlineExceeded

	rec := postWebhook(server, url.Values{
		"From": {"+15551234567"},
		"Body": {"hello there"},
	})

	// The inbound message was persisted, so the provider still gets its ack.
	assert.Equal(t, http.StatusOK, rec.Code)

	msgsReq := httptest.NewRequest(http.MethodGet, "/api/communications/conversation/%2B15551234567", nil)
	msgsRec := httptest.NewRecorder()
	server.router.ServeHTTP(msgsRec, msgsReq)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(msgsRec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageStatusReceived, messages[0].Status)
	assert.Equal(t, models.MessageStatusFailed, messages[1].Status)
}

func TestConversationListing(t *testing.T) {
	server, _ := newTestServer(t)

	postWebhook(server, url.Values{"From": {"+15551234567"}, "Body": {"hello"}})
	postWebhook(server, url.Values{"From": {"+15551234567"}, "Body": {"still there?"}})

	req := httptest.NewRequest(http.MethodGet, "/api/communications", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var summaries []models.ConversationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].UnreadCount)
	// Two inbound plus two auto-responses.
	assert.Equal(t, 4, summaries[0].MessageCount)
}

func TestSendToLeadEndpoint(t *testing.T) {
	server, gateway := newTestServer(t)
	gateway.sid = "SMoperator"

	lead := createLeadViaAPI(t, server, "Dana Smith", "+15551234567")

	payload := bytes.NewBufferString(`{"message": "Your viewing is confirmed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/communications/"+lead.ID+"/send", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var msg models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, models.DirectionOutbound, msg.Direction)
	assert.Equal(t, models.MessageStatusSent, msg.Status)
	require.NotNil(t, msg.ProviderMessageID)
	assert.Equal(t, "SMoperator", *msg.ProviderMessageID)
}

func TestSendToLeadValidation(t *testing.T) {
	server, gateway := newTestServer(t)

	t.Run("unknown lead", func(t *testing.T) {
		payload := bytes.NewBufferString(`{"message": "hello"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/communications/does-not-exist/send", payload)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		lead := createLeadViaAPI(t, server, "Dana", "+15559876543")

		payload := bytes.NewBufferString(`{"message": "   "}`)
		req := httptest.NewRequest(http.MethodPost, "/api/communications/"+lead.ID+"/send", payload)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Zero(t, gateway.calls)
}

func createLeadViaAPI(t *testing.T, server *Server, name, phone string) models.Lead {
	t.Helper()

	body, err := json.Marshal(map[string]string{"name": name, "phone": phone})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var lead models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lead))
	return lead
}

func TestLeadCRUDEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	lead := createLeadViaAPI(t, server, "Dana Smith", "(555) 123-4567")
	assert.Equal(t, "+15551234567", lead.PhoneNumber)

	t.Run("duplicate phone rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name": "Other", "phone": "5551234567"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/leads", body)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/leads/"+lead.ID, nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		body := bytes.NewBufferString(`{"status": "qualified"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/leads/"+lead.ID, body)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Lead
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, models.LeadStatusQualified, updated.Status)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/leads/"+lead.ID, nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/leads/"+lead.ID, nil)
		rec = httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPropertyEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	body := bytes.NewBufferString(`{
		"address": "123 Main St",
		"city": "Springfield",
		"state": "IL",
		"zipCode": "62704",
		"price": 350000,
		"bedrooms": 3,
		"bathrooms": 2.5,
		"squareFootage": 1800
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/properties", body)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var property models.Property
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &property))
	assert.Equal(t, models.PropertyStatusAvailable, property.Status)

	t.Run("missing address rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/properties", bytes.NewBufferString(`{"price": 100}`))
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var properties []models.Property
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &properties))
		assert.Len(t, properties, 1)
	})

	t.Run("update status", func(t *testing.T) {
		body := bytes.NewBufferString(`{"status": "sold"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/properties/"+property.ID, body)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Property
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, models.PropertyStatusSold, updated.Status)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/properties/"+property.ID, nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestWebhookOptOutSuppressesReply(t *testing.T) {
	server, gateway := newTestServer(t)

	rec := postWebhook(server, url.Values{
		"From": {"+15551234567"},
		"Body": {"STOP"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, gateway.calls)
}
