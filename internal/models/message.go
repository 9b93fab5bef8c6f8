package models

import (
	"time"
)

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusReceived  MessageStatus = "received"
)

// Message is one row of the append-only conversation ledger. Rows are never
// updated or deleted; the AUTOINCREMENT id breaks timestamp ties so the
// per-lead order is always the append order.
type Message struct {
	ID                int64            `json:"id" db:"id"`
	LeadID            string           `json:"leadId" db:"lead_id"`
	PhoneNumber       string           `json:"phoneNumber" db:"phone_number"`
	Direction         MessageDirection `json:"direction" db:"direction"`
	Body              string           `json:"body" db:"body"`
	Status            MessageStatus    `json:"status" db:"status"`
	ProviderMessageID *string          `json:"providerMessageId,omitempty" db:"provider_message_id"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
}

// InboundSMS is the normalized form of a provider webhook delivery.
type InboundSMS struct {
	From              string
	Body              string
	ProviderMessageID string
}
