package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"leadwire/internal/errors"
	"leadwire/internal/models"
	"leadwire/internal/phone"
	"leadwire/internal/privacy"
	"leadwire/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LeadStore defines the storage operations the lead directory needs.
type LeadStore interface {
	SaveLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	GetLeadByPhone(ctx context.Context, phoneNumber string) (*models.Lead, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
	UpdateLead(ctx context.Context, lead *models.Lead) error
	AdvanceLeadStatus(ctx context.Context, id string, from, to models.LeadStatus) (bool, error)
	DeleteLead(ctx context.Context, id string) (bool, error)
}

// IsUniqueConstraintFn classifies a storage error as a lost creation race.
type IsUniqueConstraintFn func(error) bool

// LeadService is the lead directory: identity resolution by canonical phone
// plus the operator CRUD surface.
type LeadService struct {
	db                 LeadStore
	logger             *logrus.Logger
	isUniqueConstraint IsUniqueConstraintFn
}

func NewLeadService(db LeadStore, isUniqueConstraint IsUniqueConstraintFn, logger *logrus.Logger) *LeadService {
	return &LeadService{
		db:                 db,
		logger:             logger,
		isUniqueConstraint: isUniqueConstraint,
	}
}

// ResolveByPhone finds the lead owning a canonical phone number, creating a
// placeholder lead when none exists. Concurrent resolutions of the same unseen
// number are serialized by the UNIQUE phone constraint: the loser of the
// insert race re-reads the winner's row, so at most one lead exists per number.
func (s *LeadService) ResolveByPhone(ctx context.Context, canonicalPhone string) (*models.Lead, error) {
	// The directory is keyed by canonical numbers regardless of caller.
	if !phone.IsCanonical(canonicalPhone) {
		canonicalPhone = phone.Normalize(canonicalPhone)
	}

	lead, err := s.db.GetLeadByPhone(ctx, canonicalPhone)
	if err != nil {
		return nil, errors.NewStorageError("lead lookup", err)
	}
	if lead != nil {
		return lead, nil
	}

	candidate := &models.Lead{
		ID:          uuid.NewString(),
		Name:        "Unknown",
		PhoneNumber: canonicalPhone,
		Email:       "",
		Status:      models.LeadStatusNew,
	}

	err = s.db.SaveLead(ctx, candidate)
	if err == nil {
		s.logger.WithFields(logrus.Fields{
			"lead_id": privacy.MaskLeadID(candidate.ID),
			"phone":   privacy.MaskPhoneNumber(canonicalPhone),
		}).Info("Created lead from inbound message")
		return s.getCreated(ctx, candidate.ID)
	}

	if s.isUniqueConstraint != nil && s.isUniqueConstraint(err) {
		lead, lookupErr := s.db.GetLeadByPhone(ctx, canonicalPhone)
		if lookupErr != nil {
			return nil, errors.NewStorageError("lead lookup after conflict", lookupErr)
		}
		if lead == nil {
			return nil, errors.NewStorageError("lead resolve", err)
		}
		return lead, nil
	}

	return nil, errors.NewStorageError("lead create", err)
}

// getCreated re-reads a just-inserted lead so callers get the stored
// timestamps rather than zero values.
func (s *LeadService) getCreated(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.db.GetLead(ctx, id)
	if err != nil {
		return nil, errors.NewStorageError("lead read-back", err)
	}
	if lead == nil {
		return nil, errors.NewStorageError("lead read-back", sql.ErrNoRows)
	}
	return lead, nil
}

func (s *LeadService) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.db.GetLead(ctx, id)
	if err != nil {
		return nil, errors.NewStorageError("lead lookup", err)
	}
	if lead == nil {
		return nil, errors.NewNotFoundError("Lead", id)
	}
	return lead, nil
}

func (s *LeadService) ListLeads(ctx context.Context) ([]models.Lead, error) {
	leads, err := s.db.ListLeads(ctx)
	if err != nil {
		return nil, errors.NewStorageError("lead list", err)
	}
	return leads, nil
}

// CreateLeadInput is the operator-supplied lead payload.
type CreateLeadInput struct {
	Name             string            `json:"name"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email"`
	Status           models.LeadStatus `json:"status"`
	PropertyInterest string            `json:"propertyInterest"`
	Notes            string            `json:"notes"`
}

func (s *LeadService) CreateLead(ctx context.Context, input CreateLeadInput) (*models.Lead, error) {
	if err := validation.ValidateLeadName(input.Name); err != nil {
		return nil, err
	}

	canonical := phone.Normalize(input.Phone)
	if err := validation.ValidatePhoneNumber(canonical); err != nil {
		return nil, err
	}

	if err := validation.ValidateLeadNotes(input.Notes); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.LeadStatusNew
	}
	if !status.IsValid() {
		return nil, errors.NewValidationError("status", "unknown lead status")
	}

	lead := &models.Lead{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(input.Name),
		PhoneNumber:      canonical,
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		Status:           status,
		PropertyInterest: strings.TrimSpace(input.PropertyInterest),
		Notes:            strings.TrimSpace(input.Notes),
	}

	if err := s.db.SaveLead(ctx, lead); err != nil {
		if s.isUniqueConstraint != nil && s.isUniqueConstraint(err) {
			return nil, errors.NewValidationError("phone", "a lead with this phone number already exists")
		}
		return nil, errors.NewStorageError("lead create", err)
	}

	return s.getCreated(ctx, lead.ID)
}

// UpdateLead applies an operator edit. Unlike the inbound pipeline, operators
// may set any valid status, including moving a lead backwards.
func (s *LeadService) UpdateLead(ctx context.Context, id string, input CreateLeadInput) (*models.Lead, error) {
	existing, err := s.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		if err := validation.ValidateLeadName(input.Name); err != nil {
			return nil, err
		}
		existing.Name = strings.TrimSpace(input.Name)
	}
	if input.Phone != "" {
		canonical := phone.Normalize(input.Phone)
		if err := validation.ValidatePhoneNumber(canonical); err != nil {
			return nil, err
		}
		existing.PhoneNumber = canonical
	}
	if input.Email != "" {
		existing.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Status != "" {
		if !input.Status.IsValid() {
			return nil, errors.NewValidationError("status", "unknown lead status")
		}
		if existing.Status.IsForwardOf(input.Status) {
			s.logger.WithFields(logrus.Fields{
				"lead_id": privacy.MaskLeadID(id),
				"from":    existing.Status,
				"to":      input.Status,
			}).Warn("Operator moved lead backwards in lifecycle")
		}
		existing.Status = input.Status
	}
	if input.PropertyInterest != "" {
		existing.PropertyInterest = strings.TrimSpace(input.PropertyInterest)
	}
	if input.Notes != "" {
		if err := validation.ValidateLeadNotes(input.Notes); err != nil {
			return nil, err
		}
		existing.Notes = strings.TrimSpace(input.Notes)
	}

	if err := s.db.UpdateLead(ctx, existing); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("Lead", id)
		}
		if s.isUniqueConstraint != nil && s.isUniqueConstraint(err) {
			return nil, errors.NewValidationError("phone", "a lead with this phone number already exists")
		}
		return nil, errors.NewStorageError("lead update", err)
	}

	return s.GetLead(ctx, id)
}

func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	deleted, err := s.db.DeleteLead(ctx, id)
	if err != nil {
		return errors.NewStorageError("lead delete", err)
	}
	if !deleted {
		return errors.NewNotFoundError("Lead", id)
	}
	return nil
}

// MarkContacted advances a lead from new to contacted. It is idempotent and
// never regresses a lead that has already moved further along the lifecycle.
func (s *LeadService) MarkContacted(ctx context.Context, id string) error {
	changed, err := s.db.AdvanceLeadStatus(ctx, id, models.LeadStatusNew, models.LeadStatusContacted)
	if err != nil {
		return errors.NewStorageError("lead status advance", err)
	}

	if changed {
		s.logger.WithField("lead_id", privacy.MaskLeadID(id)).Info("Lead marked as contacted")
	}

	return nil
}
