package service

import (
	"context"
	"strings"
	"time"

	"leadwire/internal/errors"
	"leadwire/internal/models"
	"leadwire/internal/phone"
	"leadwire/internal/privacy"
	"leadwire/internal/validation"

	"github.com/sirupsen/logrus"
)

// MessageStore defines the ledger operations the conversation engine needs.
// The ledger is append-only; there is no update or delete.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListMessagesByLead(ctx context.Context, leadID string) ([]models.Message, error)
	ListMessagesByPhone(ctx context.Context, phoneNumber string) ([]models.Message, error)
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
}

// LeadDirectory is the slice of the lead service the pipelines depend on.
type LeadDirectory interface {
	ResolveByPhone(ctx context.Context, canonicalPhone string) (*models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	MarkContacted(ctx context.Context, id string) error
}

// PropertyCounter supplies the available-listing count for reply templates.
type PropertyCounter interface {
	CountAvailable(ctx context.Context) (int, error)
}

// Gateway abstracts the outbound SMS transport. A send returns the provider's
// message id; any failure is non-fatal to the pipelines and is recorded as a
// failed message row instead.
type Gateway interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

type MessageService interface {
	HandleInbound(ctx context.Context, inbound models.InboundSMS) (*models.Message, error)
	SendToLead(ctx context.Context, leadID, body string) (*models.Message, error)
	ListByLead(ctx context.Context, leadID string) ([]models.Message, error)
	ListByPhone(ctx context.Context, rawPhone string) ([]models.Message, error)
	Conversations(ctx context.Context) ([]models.ConversationSummary, error)
}

type messageService struct {
	logger         *logrus.Logger
	db             MessageStore
	leads          LeadDirectory
	properties     PropertyCounter
	gateway        Gateway
	responder      *AutoResponder
	gatewayTimeout time.Duration
}

func NewMessageService(db MessageStore, leads LeadDirectory, properties PropertyCounter, gateway Gateway, responder *AutoResponder, gatewayTimeout time.Duration, logger *logrus.Logger) MessageService {
	return &messageService{
		logger:         logger,
		db:             db,
		leads:          leads,
		properties:     properties,
		gateway:        gateway,
		responder:      responder,
		gatewayTimeout: gatewayTimeout,
	}
}

// HandleInbound runs the webhook pipeline for one inbound SMS: normalize,
// resolve the lead, persist the message, advance the lead lifecycle, and
// auto-respond when the rule engine says so.
//
// Any error returned here occurred before the inbound message row existed, so
// the caller may surface it and let the provider redeliver. Once the row is
// persisted, later failures (status advance, auto-response) are logged and
// reflected in the reply row's status but never returned.
func (s *messageService) HandleInbound(ctx context.Context, inbound models.InboundSMS) (*models.Message, error) {
	if inbound.From == "" {
		return nil, errors.NewValidationError("From", "sender phone is required")
	}
	if inbound.Body == "" {
		return nil, errors.NewValidationError("Body", "message body is required")
	}

	canonical := phone.Normalize(inbound.From)

	lead, err := s.leads.ResolveByPhone(ctx, canonical)
	if err != nil {
		return nil, err
	}

	var providerID *string
	if inbound.ProviderMessageID != "" {
		providerID = &inbound.ProviderMessageID
	}

	msg, err := s.db.SaveMessage(ctx, &models.Message{
		LeadID:            lead.ID,
		PhoneNumber:       canonical,
		Direction:         models.DirectionInbound,
		Body:              inbound.Body,
		Status:            models.MessageStatusReceived,
		ProviderMessageID: providerID,
	})
	if err != nil {
		return nil, errors.NewStorageError("inbound message append", err)
	}

	s.logger.WithFields(privacy.MaskSensitiveFields(logrus.Fields{
		"lead_id":    lead.ID,
		"phone":      canonical,
		"message_id": msg.ID,
	})).Info("Inbound message persisted")

	// The inbound row exists; everything below is best-effort.
	if err := s.leads.MarkContacted(ctx, lead.ID); err != nil {
		s.logger.WithError(err).WithField("lead_id", privacy.MaskLeadID(lead.ID)).
			Warn("Failed to advance lead status")
	}

	if decision := s.responder.Decide(inbound.Body); decision.ShouldRespond {
		s.autoRespond(ctx, lead, canonical, inbound.Body)
	} else {
		s.logger.WithField("lead_id", privacy.MaskLeadID(lead.ID)).
			Debug("Auto-response suppressed by opt-out rule")
	}

	return msg, nil
}

// autoRespond generates, sends, and persists the automated reply. The reply
// row is appended whether or not the transport accepted the send.
func (s *messageService) autoRespond(ctx context.Context, lead *models.Lead, canonical, inboundBody string) {
	availableCount, err := s.properties.CountAvailable(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count available properties, generating reply without inventory")
		availableCount = 0
	}

	reply := s.responder.Generate(inboundBody, ResponseContext{
		LeadName:               lead.Name,
		AvailablePropertyCount: availableCount,
	})

	outbound := s.dispatch(ctx, lead.ID, canonical, reply)

	if _, err := s.db.SaveMessage(ctx, outbound); err != nil {
		s.logger.WithError(err).WithField("lead_id", privacy.MaskLeadID(lead.ID)).
			Error("Failed to persist auto-response")
	}
}

// dispatch attempts a gateway send under the configured timeout and shapes the
// outbound ledger row from the outcome. No lock is held across the network
// call.
func (s *messageService) dispatch(ctx context.Context, leadID, canonical, body string) *models.Message {
	sendCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	outbound := &models.Message{
		LeadID:      leadID,
		PhoneNumber: canonical,
		Direction:   models.DirectionOutbound,
		Body:        body,
	}

	providerID, err := s.gateway.SendText(sendCtx, canonical, body)
	if err != nil {
		s.logger.WithError(err).WithFields(privacy.MaskSensitiveFields(logrus.Fields{
			"lead_id": leadID,
			"phone":   canonical,
		})).Warn("Gateway send failed, recording failed message")
		outbound.Status = models.MessageStatusFailed
		return outbound
	}

	outbound.Status = models.MessageStatusSent
	outbound.ProviderMessageID = &providerID
	return outbound
}

// SendToLead runs the operator-initiated pipeline: validate, resolve the lead,
// send through the gateway, and persist the outbound row with a status that
// reflects the transport outcome. The persisted message is returned even when
// the send failed.
func (s *messageService) SendToLead(ctx context.Context, leadID, body string) (*models.Message, error) {
	trimmed := strings.TrimSpace(body)
	if err := validation.ValidateMessageBody(trimmed); err != nil {
		return nil, err
	}

	lead, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	canonical := phone.Normalize(lead.PhoneNumber)

	outbound := s.dispatch(ctx, lead.ID, canonical, trimmed)

	msg, err := s.db.SaveMessage(ctx, outbound)
	if err != nil {
		return nil, errors.NewStorageError("outbound message append", err)
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id":    privacy.MaskLeadID(lead.ID),
		"message_id": msg.ID,
		"status":     msg.Status,
	}).Info("Operator message persisted")

	return msg, nil
}

func (s *messageService) ListByLead(ctx context.Context, leadID string) ([]models.Message, error) {
	if _, err := s.leads.GetLead(ctx, leadID); err != nil {
		return nil, err
	}

	messages, err := s.db.ListMessagesByLead(ctx, leadID)
	if err != nil {
		return nil, errors.NewStorageError("message list", err)
	}
	return messages, nil
}

func (s *messageService) ListByPhone(ctx context.Context, rawPhone string) ([]models.Message, error) {
	messages, err := s.db.ListMessagesByPhone(ctx, phone.Normalize(rawPhone))
	if err != nil {
		return nil, errors.NewStorageError("message list", err)
	}
	return messages, nil
}

func (s *messageService) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	summaries, err := s.db.ListConversations(ctx)
	if err != nil {
		return nil, errors.NewStorageError("conversation aggregation", err)
	}
	return summaries, nil
}
