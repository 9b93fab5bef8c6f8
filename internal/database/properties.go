package database

import (
	"context"
	"database/sql"
	"fmt"

	"leadwire/internal/models"
)

// Property rows hold listing data, not personal data, so they are stored in
// the clear even when at-rest encryption is enabled.

func (d *Database) SaveProperty(ctx context.Context, property *models.Property) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, InsertPropertyQuery,
			property.ID, property.Address, property.City, property.State,
			property.ZipCode, property.Price, property.Bedrooms, property.Bathrooms,
			property.SquareFootage, property.Description, property.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to save property: %w", err)
		}
		return nil
	}, "save property")
}

func (d *Database) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	property := &models.Property{}

	err := d.db.QueryRowContext(ctx, SelectPropertyByIDQuery, id).Scan(
		&property.ID,
		&property.Address,
		&property.City,
		&property.State,
		&property.ZipCode,
		&property.Price,
		&property.Bedrooms,
		&property.Bathrooms,
		&property.SquareFootage,
		&property.Description,
		&property.Status,
		&property.CreatedAt,
		&property.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return property, nil
}

func (d *Database) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := d.db.QueryContext(ctx, SelectAllPropertiesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var properties []models.Property
	for rows.Next() {
		var property models.Property
		err := rows.Scan(
			&property.ID,
			&property.Address,
			&property.City,
			&property.State,
			&property.ZipCode,
			&property.Price,
			&property.Bedrooms,
			&property.Bathrooms,
			&property.SquareFootage,
			&property.Description,
			&property.Status,
			&property.CreatedAt,
			&property.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}

	return properties, nil
}

func (d *Database) UpdateProperty(ctx context.Context, property *models.Property) error {
	return retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, UpdatePropertyQuery,
			property.Address, property.City, property.State, property.ZipCode,
			property.Price, property.Bedrooms, property.Bathrooms,
			property.SquareFootage, property.Description, property.Status,
			property.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update property: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}

		return nil
	}, "update property")
}

func (d *Database) DeleteProperty(ctx context.Context, id string) (bool, error) {
	result, err := d.db.ExecContext(ctx, DeletePropertyQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// CountPropertiesByStatus returns how many properties are in the given
// lifecycle status; the auto-responder uses the "available" count.
func (d *Database) CountPropertiesByStatus(ctx context.Context, status models.PropertyStatus) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, CountPropertiesByStatusQuery, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}

	return count, nil
}
