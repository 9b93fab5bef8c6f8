package migrations

import (
	_ "embed"
)

//go:embed 001_initial_schema.sql
var initialSchema string

// GetInitialSchema returns the initial database schema. The schema ships
// embedded in the binary so deployments never depend on a scripts directory.
func GetInitialSchema() string {
	return initialSchema
}
