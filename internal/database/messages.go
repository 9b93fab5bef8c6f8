package database

import (
	"context"
	"database/sql"
	"fmt"

	"leadwire/internal/models"
)

// SaveMessage appends a message to the ledger, assigning its id and creation
// timestamp, and returns the stored row. Messages are immutable once written.
func (d *Database) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(msg.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	encryptedBody, err := d.encryptor.EncryptIfEnabled(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt body: %w", err)
	}

	var id int64
	err = retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, InsertMessageQuery,
			msg.LeadID, encryptedPhone, msg.Direction, encryptedBody,
			msg.Status, msg.ProviderMessageID,
		)
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get message id: %w", err)
		}

		return nil
	}, "save message")
	if err != nil {
		return nil, err
	}

	stored, err := d.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("message %d missing after insert", id)
	}

	return stored, nil
}

func (d *Database) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	return d.scanMessage(d.db.QueryRowContext(ctx, SelectMessageByIDQuery, id))
}

// ListMessagesByLead returns the full conversation for a lead in append order.
func (d *Database) ListMessagesByLead(ctx context.Context, leadID string) ([]models.Message, error) {
	rows, err := d.db.QueryContext(ctx, SelectMessagesByLeadQuery, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by lead: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return d.collectMessages(rows)
}

// ListMessagesByPhone returns all messages exchanged with a canonical phone
// number in append order.
func (d *Database) ListMessagesByPhone(ctx context.Context, phoneNumber string) ([]models.Message, error) {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, SelectMessagesByPhoneQuery, encryptedPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by phone: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return d.collectMessages(rows)
}

// ListConversations derives one summary per lead with at least one message,
// most recent conversation first.
func (d *Database) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	rows, err := d.db.QueryContext(ctx, SelectConversationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var summary models.ConversationSummary
		var encryptedName sql.NullString
		var encryptedPhone, encryptedBody string

		err := rows.Scan(
			&summary.LeadID,
			&encryptedName,
			&encryptedPhone,
			&encryptedBody,
			&summary.LastMessageTime,
			&summary.MessageCount,
			&summary.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		summary.PhoneNumber, err = d.encryptor.DecryptIfEnabled(encryptedPhone)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt phone number: %w", err)
		}

		summary.LastMessage, err = d.encryptor.DecryptIfEnabled(encryptedBody)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message body: %w", err)
		}

		if encryptedName.Valid {
			summary.LeadName, err = d.encryptor.DecryptIfEnabled(encryptedName.String)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt lead name: %w", err)
			}
		}
		if summary.LeadName == "" {
			summary.LeadName = "Unknown"
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return summaries, nil
}

func (d *Database) collectMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		msg, err := d.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func (d *Database) scanMessage(row rowScanner) (*models.Message, error) {
	msg := &models.Message{}
	var encryptedPhone, encryptedBody string

	err := row.Scan(
		&msg.ID,
		&msg.LeadID,
		&encryptedPhone,
		&msg.Direction,
		&encryptedBody,
		&msg.Status,
		&msg.ProviderMessageID,
		&msg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.PhoneNumber, err = d.encryptor.DecryptIfEnabled(encryptedPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt phone number: %w", err)
	}

	msg.Body, err = d.encryptor.DecryptIfEnabled(encryptedBody)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt message body: %w", err)
	}

	return msg, nil
}
