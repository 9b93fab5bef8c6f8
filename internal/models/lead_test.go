package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusIsValid(t *testing.T) {
	for _, status := range []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted} {
		assert.True(t, status.IsValid(), string(status))
	}

	assert.False(t, LeadStatus("archived").IsValid())
	assert.False(t, LeadStatus("").IsValid())
	assert.False(t, LeadStatus("New").IsValid())
}

func TestLeadStatusIsForwardOf(t *testing.T) {
	assert.True(t, LeadStatusContacted.IsForwardOf(LeadStatusNew))
	assert.True(t, LeadStatusConverted.IsForwardOf(LeadStatusQualified))
	assert.False(t, LeadStatusNew.IsForwardOf(LeadStatusContacted))
	assert.False(t, LeadStatusContacted.IsForwardOf(LeadStatusContacted))
}
