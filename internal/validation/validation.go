package validation

import (
	"fmt"
	"net/http"
	"strings"

	"leadwire/internal/constants"
	"leadwire/internal/errors"
)

// ValidatePhoneNumber validates phone number format and length
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.New(errors.ErrCodeInvalidInput, "phone number cannot be empty")
	}

	cleaned := strings.TrimPrefix(phone, "+")

	// Check length bounds
	if len(cleaned) < constants.MinPhoneNumberLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number must be at least %d digits", constants.MinPhoneNumberLength))
	}

	if len(cleaned) > constants.MaxPhoneNumberLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number too long (max %d digits)", constants.MaxPhoneNumberLength))
	}

	// Check that it contains only ASCII digits
	for _, char := range cleaned {
		if char < '0' || char > '9' {
			return errors.New(errors.ErrCodeInvalidInput, "phone number must contain only digits")
		}
	}

	return nil
}

// ValidateMessageBody validates an outbound or inbound message body. The body
// is rejected before any persistence or gateway traffic happens.
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New(errors.ErrCodeValidationFailed, "message body cannot be empty")
	}

	if len(body) > constants.MaxMessageBodyLength {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("message body too long (max %d characters)", constants.MaxMessageBodyLength))
	}

	return nil
}

// ValidateLeadName validates a lead display name
func ValidateLeadName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrCodeValidationFailed, "lead name cannot be empty")
	}

	if len(name) > constants.MaxLeadNameLength {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("lead name too long (max %d characters)", constants.MaxLeadNameLength))
	}

	return nil
}

// ValidateLeadNotes bounds the free-form operator notes field
func ValidateLeadNotes(notes string) error {
	if len(notes) > constants.MaxNotesLength {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("notes too long (max %d characters)", constants.MaxNotesLength))
	}

	return nil
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid content length")
	}

	if r.ContentLength > maxSizeBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("request too large: %d bytes (max %d bytes)", r.ContentLength, maxSizeBytes))
	}

	return nil
}
