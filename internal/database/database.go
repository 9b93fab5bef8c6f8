package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"leadwire/internal/migrations"
	"leadwire/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600) // #nosec G304 - Path comes from validated configuration
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.GetInitialSchema()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encryptor, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: encryptor}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Lead operations

func (d *Database) SaveLead(ctx context.Context, lead *models.Lead) error {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(lead.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	encryptedName, err := d.encryptor.EncryptIfEnabled(lead.Name)
	if err != nil {
		return fmt.Errorf("failed to encrypt name: %w", err)
	}

	encryptedEmail, err := d.encryptor.EncryptIfEnabled(lead.Email)
	if err != nil {
		return fmt.Errorf("failed to encrypt email: %w", err)
	}

	encryptedNotes, err := d.encryptor.EncryptIfEnabled(lead.Notes)
	if err != nil {
		return fmt.Errorf("failed to encrypt notes: %w", err)
	}

	_, err = d.db.ExecContext(ctx, InsertLeadQuery,
		lead.ID, encryptedName, encryptedPhone, encryptedEmail,
		lead.Status, lead.PropertyInterest, encryptedNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}

	return nil
}

func (d *Database) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return d.scanLead(d.db.QueryRowContext(ctx, SelectLeadByIDQuery, id))
}

func (d *Database) GetLeadByPhone(ctx context.Context, phoneNumber string) (*models.Lead, error) {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	return d.scanLead(d.db.QueryRowContext(ctx, SelectLeadByPhoneQuery, encryptedPhone))
}

func (d *Database) ListLeads(ctx context.Context) ([]models.Lead, error) {
	rows, err := d.db.QueryContext(ctx, SelectAllLeadsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []models.Lead
	for rows.Next() {
		lead, err := d.scanLeadRow(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, nil
}

func (d *Database) UpdateLead(ctx context.Context, lead *models.Lead) error {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(lead.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	encryptedName, err := d.encryptor.EncryptIfEnabled(lead.Name)
	if err != nil {
		return fmt.Errorf("failed to encrypt name: %w", err)
	}

	encryptedEmail, err := d.encryptor.EncryptIfEnabled(lead.Email)
	if err != nil {
		return fmt.Errorf("failed to encrypt email: %w", err)
	}

	encryptedNotes, err := d.encryptor.EncryptIfEnabled(lead.Notes)
	if err != nil {
		return fmt.Errorf("failed to encrypt notes: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, UpdateLeadQuery,
			encryptedName, encryptedPhone, encryptedEmail, lead.Status,
			lead.PropertyInterest, encryptedNotes, lead.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update lead: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}

		return nil
	}, "update lead")
}

// AdvanceLeadStatus moves a lead from one lifecycle status to another, only if
// the lead is still in the expected status. Returns whether a row changed, so
// re-entrant webhook calls after the first transition are no-ops.
func (d *Database) AdvanceLeadStatus(ctx context.Context, id string, from, to models.LeadStatus) (bool, error) {
	result, err := d.db.ExecContext(ctx, AdvanceLeadStatusQuery, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to advance lead status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

func (d *Database) DeleteLead(ctx context.Context, id string) (bool, error) {
	result, err := d.db.ExecContext(ctx, DeleteLeadQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	var encryptedName, encryptedPhone, encryptedEmail, encryptedNotes string

	err := row.Scan(
		&lead.ID,
		&encryptedName,
		&encryptedPhone,
		&encryptedEmail,
		&lead.Status,
		&lead.PropertyInterest,
		&encryptedNotes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	lead.Name, err = d.encryptor.DecryptIfEnabled(encryptedName)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt name: %w", err)
	}

	lead.PhoneNumber, err = d.encryptor.DecryptIfEnabled(encryptedPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt phone number: %w", err)
	}

	lead.Email, err = d.encryptor.DecryptIfEnabled(encryptedEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt email: %w", err)
	}

	lead.Notes, err = d.encryptor.DecryptIfEnabled(encryptedNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt notes: %w", err)
	}

	return lead, nil
}

func (d *Database) scanLeadRow(rows *sql.Rows) (*models.Lead, error) {
	return d.scanLead(rows)
}
