package models

import (
	"time"
)

// ConversationSummary is derived from the message ledger on every read; it has
// no stored lifecycle of its own.
//
// UnreadCount counts every inbound message for the lead, not messages unseen
// by an operator. There is no per-operator read cursor; the field keeps the
// name the operator UI already consumes.
type ConversationSummary struct {
	LeadID          string    `json:"leadId"`
	LeadName        string    `json:"leadName"`
	PhoneNumber     string    `json:"phoneNumber"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	MessageCount    int       `json:"messageCount"`
	UnreadCount     int       `json:"unreadCount"`
}
