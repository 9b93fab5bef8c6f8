package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		expected string
	}{
		{"canonical number", "+15551234567", "+*******4567"},
		{"without plus", "5551234567", "******4567"},
		{"empty", "", ""},
		{"just plus", "+", "+"},
		{"short with plus", "+1234", "+****"},
		{"short without plus", "123", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskPhoneNumber(tt.phone))
		})
	}
}

func TestMaskLeadID(t *testing.T) {
	assert.Equal(t, "****44aa", MaskLeadID("2f3a44aa"))
	assert.Equal(t, "", MaskLeadID(""))
	assert.Equal(t, "***", MaskLeadID("abc"))
}

func TestMaskProviderMessageID(t *testing.T) {
	assert.Equal(t, "**************34567890", MaskProviderMessageID("SM12345678901234567890"))
	assert.Equal(t, "****", MaskProviderMessageID("SM12"))
}

func TestMaskSensitiveFields(t *testing.T) {
	fields := map[string]interface{}{
		"phone":   "+15551234567",
		"lead_id": "2f3a44aa",
		"count":   3,
	}

	masked := MaskSensitiveFields(fields)
	assert.Equal(t, "+*******4567", masked["phone"])
	assert.Equal(t, "****44aa", masked["lead_id"])
	assert.Equal(t, 3, masked["count"])

	assert.Nil(t, MaskSensitiveFields(nil))
}
