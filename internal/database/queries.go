package database

// Lead queries
const (
	InsertLeadQuery = `
		INSERT INTO leads (id, name, phone_number, email, status, property_interest, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	SelectLeadByIDQuery = `
		SELECT id, name, phone_number, email, status, property_interest, notes,
		       created_at, updated_at
		FROM leads
		WHERE id = ?
	`

	SelectLeadByPhoneQuery = `
		SELECT id, name, phone_number, email, status, property_interest, notes,
		       created_at, updated_at
		FROM leads
		WHERE phone_number = ?
	`

	SelectAllLeadsQuery = `
		SELECT id, name, phone_number, email, status, property_interest, notes,
		       created_at, updated_at
		FROM leads
		ORDER BY created_at DESC, id DESC
	`

	UpdateLeadQuery = `
		UPDATE leads
		SET name = ?, phone_number = ?, email = ?, status = ?,
		    property_interest = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	AdvanceLeadStatusQuery = `
		UPDATE leads
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	DeleteLeadQuery = `
		DELETE FROM leads WHERE id = ?
	`
)

// Message queries. The ledger is append-only: there is deliberately no UPDATE
// or DELETE statement for messages.
const (
	InsertMessageQuery = `
		INSERT INTO messages (lead_id, phone_number, direction, body, status, provider_message_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	SelectMessageByIDQuery = `
		SELECT id, lead_id, phone_number, direction, body, status, provider_message_id, created_at
		FROM messages
		WHERE id = ?
	`

	SelectMessagesByLeadQuery = `
		SELECT id, lead_id, phone_number, direction, body, status, provider_message_id, created_at
		FROM messages
		WHERE lead_id = ?
		ORDER BY created_at ASC, id ASC
	`

	SelectMessagesByPhoneQuery = `
		SELECT id, lead_id, phone_number, direction, body, status, provider_message_id, created_at
		FROM messages
		WHERE phone_number = ?
		ORDER BY created_at ASC, id ASC
	`

	// One row per lead with at least one message, newest conversation first.
	// The last message is picked by (created_at, id) so same-second appends
	// resolve to the most recently inserted row.
	SelectConversationsQuery = `
		SELECT g.lead_id,
		       l.name,
		       last.phone_number,
		       last.body,
		       last.created_at,
		       g.message_count,
		       g.inbound_count
		FROM (
			SELECT lead_id,
			       COUNT(*) AS message_count,
			       SUM(CASE WHEN direction = 'inbound' THEN 1 ELSE 0 END) AS inbound_count,
			       (SELECT m2.id FROM messages m2
			        WHERE m2.lead_id = messages.lead_id
			        ORDER BY m2.created_at DESC, m2.id DESC
			        LIMIT 1) AS last_id
			FROM messages
			GROUP BY lead_id
		) g
		JOIN messages last ON last.id = g.last_id
		LEFT JOIN leads l ON l.id = g.lead_id
		ORDER BY last.created_at DESC, last.id DESC
	`
)

// Property queries
const (
	InsertPropertyQuery = `
		INSERT INTO properties (id, address, city, state, zip_code, price, bedrooms,
		                        bathrooms, square_footage, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	SelectPropertyByIDQuery = `
		SELECT id, address, city, state, zip_code, price, bedrooms, bathrooms,
		       square_footage, description, status, created_at, updated_at
		FROM properties
		WHERE id = ?
	`

	SelectAllPropertiesQuery = `
		SELECT id, address, city, state, zip_code, price, bedrooms, bathrooms,
		       square_footage, description, status, created_at, updated_at
		FROM properties
		ORDER BY created_at DESC, id DESC
	`

	UpdatePropertyQuery = `
		UPDATE properties
		SET address = ?, city = ?, state = ?, zip_code = ?, price = ?, bedrooms = ?,
		    bathrooms = ?, square_footage = ?, description = ?, status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	DeletePropertyQuery = `
		DELETE FROM properties WHERE id = ?
	`

	CountPropertiesByStatusQuery = `
		SELECT COUNT(*) FROM properties WHERE status = ?
	`
)
