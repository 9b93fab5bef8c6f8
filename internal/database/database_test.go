package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"leadwire/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	originalEnabled := os.Getenv("LEADWIRE_ENABLE_ENCRYPTION")
	originalSecret := os.Getenv("LEADWIRE_ENCRYPTION_SECRET")
	_ = os.Unsetenv("LEADWIRE_ENABLE_ENCRYPTION")
	_ = os.Unsetenv("LEADWIRE_ENCRYPTION_SECRET")
	t.Cleanup(func() {
		if originalEnabled != "" {
			_ = os.Setenv("LEADWIRE_ENABLE_ENCRYPTION", originalEnabled)
		}
		if originalSecret != "" {
			_ = os.Setenv("LEADWIRE_ENCRYPTION_SECRET", originalSecret)
		}
	})

	db, err := New(filepath.Join(t.TempDir(), "leadwire-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func makeLead(phone string) *models.Lead {
	return &models.Lead{
		ID:          uuid.NewString(),
		Name:        "Test Lead",
		PhoneNumber: phone,
		Email:       "lead@example.com",
		Status:      models.LeadStatusNew,
	}
}

func TestSaveAndGetLead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	lead.PropertyInterest = "3 bedroom"
	lead.Notes = "prefers evenings"
	require.NoError(t, db.SaveLead(ctx, lead))

	got, err := db.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.Name, got.Name)
	assert.Equal(t, lead.PhoneNumber, got.PhoneNumber)
	assert.Equal(t, lead.Email, got.Email)
	assert.Equal(t, lead.PropertyInterest, got.PropertyInterest)
	assert.Equal(t, lead.Notes, got.Notes)
	assert.Equal(t, models.LeadStatusNew, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetLeadByPhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	got, err := db.GetLeadByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, got.ID)

	missing, err := db.GetLeadByPhone(ctx, "+19998887766")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveLeadDuplicatePhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveLead(ctx, makeLead("+15551234567")))

	err := db.SaveLead(ctx, makeLead("+15551234567"))
	require.Error(t, err)
	assert.True(t, IsUniqueConstraintError(err))
}

func TestAdvanceLeadStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	changed, err := db.AdvanceLeadStatus(ctx, lead.ID, models.LeadStatusNew, models.LeadStatusContacted)
	require.NoError(t, err)
	assert.True(t, changed)

	// Second advance is a no-op, the lead already moved on.
	changed, err = db.AdvanceLeadStatus(ctx, lead.ID, models.LeadStatusNew, models.LeadStatusContacted)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := db.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusContacted, got.Status)
}

func TestAdvanceLeadStatusDoesNotRegress(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	lead.Status = models.LeadStatusQualified
	require.NoError(t, db.SaveLead(ctx, lead))

	changed, err := db.AdvanceLeadStatus(ctx, lead.ID, models.LeadStatusNew, models.LeadStatusContacted)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := db.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, got.Status)
}

func TestSaveMessageAssignsOrderedIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	bodies := []string{"first", "second", "third", "fourth", "fifth"}
	var ids []int64
	for _, body := range bodies {
		msg, err := db.SaveMessage(ctx, &models.Message{
			LeadID:      lead.ID,
			PhoneNumber: lead.PhoneNumber,
			Direction:   models.DirectionInbound,
			Body:        body,
			Status:      models.MessageStatusReceived,
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
	}

	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}

	messages, err := db.ListMessagesByLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(bodies))
	for i, msg := range messages {
		assert.Equal(t, bodies[i], msg.Body)
	}
}

func TestSaveMessageConcurrentAppends(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	const writers = 40
	idCh := make(chan int64, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			msg, err := db.SaveMessage(ctx, &models.Message{
				LeadID:      lead.ID,
				PhoneNumber: lead.PhoneNumber,
				Direction:   models.DirectionInbound,
				Body:        fmt.Sprintf("message %d", n),
				Status:      models.MessageStatusReceived,
			})
			if assert.NoError(t, err) {
				idCh <- msg.ID
			}
		}(i)
	}
	wg.Wait()
	close(idCh)

	seen := make(map[int64]bool)
	for id := range idCh {
		assert.False(t, seen[id], "duplicate message id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, writers)

	messages, err := db.ListMessagesByLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, messages, writers)
	for i := 1; i < len(messages); i++ {
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}
}

func TestListMessagesByPhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	other := makeLead("+19998887766")
	require.NoError(t, db.SaveLead(ctx, lead))
	require.NoError(t, db.SaveLead(ctx, other))

	for _, l := range []*models.Lead{lead, other} {
		_, err := db.SaveMessage(ctx, &models.Message{
			LeadID:      l.ID,
			PhoneNumber: l.PhoneNumber,
			Direction:   models.DirectionInbound,
			Body:        "hello from " + l.PhoneNumber,
			Status:      models.MessageStatusReceived,
		})
		require.NoError(t, err)
	}

	messages, err := db.ListMessagesByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, lead.ID, messages[0].LeadID)
}

func TestSaveMessageKeepsProviderID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	sid := "SM1234567890"
	msg, err := db.SaveMessage(ctx, &models.Message{
		LeadID:            lead.ID,
		PhoneNumber:       lead.PhoneNumber,
		Direction:         models.DirectionInbound,
		Body:              "hi",
		Status:            models.MessageStatusReceived,
		ProviderMessageID: &sid,
	})
	require.NoError(t, err)
	require.NotNil(t, msg.ProviderMessageID)
	assert.Equal(t, sid, *msg.ProviderMessageID)

	failed, err := db.SaveMessage(ctx, &models.Message{
		LeadID:      lead.ID,
		PhoneNumber: lead.PhoneNumber,
		Direction:   models.DirectionOutbound,
		Body:        "reply",
		Status:      models.MessageStatusFailed,
	})
	require.NoError(t, err)
	assert.Nil(t, failed.ProviderMessageID)
}

func TestListConversations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	seq := []struct {
		direction models.MessageDirection
		body      string
		status    models.MessageStatus
	}{
		{models.DirectionInbound, "any homes available?", models.MessageStatusReceived},
		{models.DirectionOutbound, "We have 3 properties available!", models.MessageStatusSent},
		{models.DirectionInbound, "what about 2 bedrooms", models.MessageStatusReceived},
	}
	for _, m := range seq {
		_, err := db.SaveMessage(ctx, &models.Message{
			LeadID:      lead.ID,
			PhoneNumber: lead.PhoneNumber,
			Direction:   m.direction,
			Body:        m.body,
			Status:      m.status,
		})
		require.NoError(t, err)
	}

	summaries, err := db.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, lead.ID, summary.LeadID)
	assert.Equal(t, "Test Lead", summary.LeadName)
	assert.Equal(t, "+15551234567", summary.PhoneNumber)
	assert.Equal(t, 3, summary.MessageCount)
	assert.Equal(t, 2, summary.UnreadCount)
	assert.Equal(t, "what about 2 bedrooms", summary.LastMessage)
}

func TestListConversationsEmpty(t *testing.T) {
	db := setupTestDB(t)

	summaries, err := db.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestListConversationsOrphanedLeadName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	lead.Name = ""
	require.NoError(t, db.SaveLead(ctx, lead))

	_, err := db.SaveMessage(ctx, &models.Message{
		LeadID:      lead.ID,
		PhoneNumber: lead.PhoneNumber,
		Direction:   models.DirectionInbound,
		Body:        "hello",
		Status:      models.MessageStatusReceived,
	})
	require.NoError(t, err)

	summaries, err := db.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Unknown", summaries[0].LeadName)
}

func TestUpdateLead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	lead.Name = "Renamed Lead"
	lead.Status = models.LeadStatusQualified
	require.NoError(t, db.UpdateLead(ctx, lead))

	got, err := db.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Lead", got.Name)
	assert.Equal(t, models.LeadStatusQualified, got.Status)
}

func TestDeleteLead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lead := makeLead("+15551234567")
	require.NoError(t, db.SaveLead(ctx, lead))

	deleted, err := db.DeleteLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPropertyCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	property := &models.Property{
		ID:            uuid.NewString(),
		Address:       "123 Main St",
		City:          "Springfield",
		State:         "IL",
		ZipCode:       "62704",
		Price:         350000,
		Bedrooms:      3,
		Bathrooms:     2.5,
		SquareFootage: 1800,
		Description:   "corner lot",
		Status:        models.PropertyStatusAvailable,
	}
	require.NoError(t, db.SaveProperty(ctx, property))

	got, err := db.GetProperty(ctx, property.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, property.Address, got.Address)
	assert.Equal(t, 2.5, got.Bathrooms)

	got.Status = models.PropertyStatusSold
	require.NoError(t, db.UpdateProperty(ctx, got))

	count, err := db.CountPropertiesByStatus(ctx, models.PropertyStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	deleted, err := db.DeleteProperty(ctx, property.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCountPropertiesByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	statuses := []models.PropertyStatus{
		models.PropertyStatusAvailable,
		models.PropertyStatusAvailable,
		models.PropertyStatusPending,
		models.PropertyStatusSold,
	}
	for i, status := range statuses {
		require.NoError(t, db.SaveProperty(ctx, &models.Property{
			ID:      uuid.NewString(),
			Address: "addr",
			Price:   float64(100000 * (i + 1)),
			Status:  status,
		}))
	}

	count, err := db.CountPropertiesByStatus(ctx, models.PropertyStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
