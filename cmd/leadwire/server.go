package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"leadwire/internal/constants"
	apperrors "leadwire/internal/errors"
	"leadwire/internal/models"
	"leadwire/internal/service"
	"leadwire/internal/tracing"
	"leadwire/internal/validation"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const twimlEmptyResponse = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type Server struct {
	cfg         *models.Config
	router      *mux.Router
	logger      *logrus.Logger
	messages    service.MessageService
	leads       *service.LeadService
	properties  *service.PropertyService
	server      *http.Server
	startedAt   time.Time
}

func NewServer(cfg *models.Config, messages service.MessageService, leads *service.LeadService, properties *service.PropertyService, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		router:     mux.NewRouter(),
		logger:     logger,
		messages:   messages,
		leads:      leads,
		properties: properties,
		startedAt:  time.Now(),
	}

	s.router.Use(s.requestSizeLimitMiddleware)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	comms := api.PathPrefix("/communications").Subrouter()
	comms.HandleFunc("/webhook/sms", s.handleInboundSMS).Methods(http.MethodPost)
	comms.HandleFunc("", s.handleListConversations).Methods(http.MethodGet)
	comms.HandleFunc("/conversation/{phoneNumber}", s.handleConversationByPhone).Methods(http.MethodGet)
	comms.HandleFunc("/{leadId}/messages", s.handleMessagesByLead).Methods(http.MethodGet)
	comms.HandleFunc("/{leadId}/send", s.handleSendToLead).Methods(http.MethodPost)

	leads := api.PathPrefix("/leads").Subrouter()
	leads.HandleFunc("", s.handleListLeads).Methods(http.MethodGet)
	leads.HandleFunc("", s.handleCreateLead).Methods(http.MethodPost)
	leads.HandleFunc("/{id}", s.handleGetLead).Methods(http.MethodGet)
	leads.HandleFunc("/{id}", s.handleUpdateLead).Methods(http.MethodPut)
	leads.HandleFunc("/{id}", s.handleDeleteLead).Methods(http.MethodDelete)

	properties := api.PathPrefix("/properties").Subrouter()
	properties.HandleFunc("", s.handleListProperties).Methods(http.MethodGet)
	properties.HandleFunc("", s.handleCreateProperty).Methods(http.MethodPost)
	properties.HandleFunc("/{id}", s.handleGetProperty).Methods(http.MethodGet)
	properties.HandleFunc("/{id}", s.handleUpdateProperty).Methods(http.MethodPut)
	properties.HandleFunc("/{id}", s.handleDeleteProperty).Methods(http.MethodDelete)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.WithField("port", s.cfg.Server.Port).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateHTTPRequestSize(r, s.cfg.Server.MaxRequestBytes); err != nil {
			s.writeError(w, r, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Error("Failed to encode response")
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	entry := s.logger.WithError(err).WithField("path", r.URL.Path)
	if traceID := tracing.GetTraceID(r.Context()); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	tracing.RecordError(r.Context(), err)
	s.writeJSON(w, status, apperrors.ToHTTPResponse(err))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.startedAt).String(),
		"version": Version,
	})
}

// handleInboundSMS is the provider webhook. The provider retries on non-2xx,
// so the TwiML ack is only written once the inbound message row exists.
func (s *Server) handleInboundSMS(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "webhook.inbound_sms")
	defer span.End()

	if _, err := verifySignature(r, s.cfg.Server.WebhookSecret, constants.WebhookSignatureHeader); err != nil {
		s.writeError(w, r, apperrors.NewAuthError(err.Error()))
		return
	}

	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed form payload"))
		return
	}

	inbound := models.InboundSMS{
		From:              r.PostFormValue("From"),
		Body:              r.PostFormValue("Body"),
		ProviderMessageID: r.PostFormValue("MessageSid"),
	}

	msg, err := s.messages.HandleInbound(ctx, inbound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.Int64("message.id", msg.ID))

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(twimlEmptyResponse)); err != nil {
		s.logger.WithError(err).Error("Failed to write webhook ack")
	}
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.list_conversations")
	defer span.End()

	summaries, err := s.messages.Conversations(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleConversationByPhone(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.conversation_by_phone")
	defer span.End()

	rawPhone, err := url.PathUnescape(mux.Vars(r)["phoneNumber"])
	if err != nil {
		s.writeError(w, r, apperrors.NewValidationError("phoneNumber", "malformed phone number"))
		return
	}

	messages, err := s.messages.ListByPhone(ctx, rawPhone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleMessagesByLead(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.messages_by_lead")
	defer span.End()

	messages, err := s.messages.ListByLead(ctx, mux.Vars(r)["leadId"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	s.writeJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSendToLead(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.send_to_lead")
	defer span.End()

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed JSON payload"))
		return
	}

	msg, err := s.messages.SendToLead(ctx, mux.Vars(r)["leadId"], req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.ListLeads(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	s.writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var input service.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed JSON payload"))
		return
	}

	lead, err := s.leads.CreateLead(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.leads.GetLead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var input service.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed JSON payload"))
		return
	}

	lead, err := s.leads.UpdateLead(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.leads.DeleteLead(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := s.properties.ListProperties(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}
	s.writeJSON(w, http.StatusOK, properties)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var input service.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed JSON payload"))
		return
	}

	property, err := s.properties.CreateProperty(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, property)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := s.properties.GetProperty(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, property)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var input service.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", "malformed JSON payload"))
		return
	}

	property, err := s.properties.UpdateProperty(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, property)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.properties.DeleteProperty(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
