package sqlutil

import "database/sql"

// Helper functions for converting between Go types and sql.Null* types

// ToSqlInt64 converts a Go int64 pointer to sql.NullInt64
func ToSqlInt64(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}

// ToSqlInt32 converts a Go int pointer to sql.NullInt32
func ToSqlInt32(val *int) sql.NullInt32 {
	if val == nil {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(*val), Valid: true}
}

// ToSqlString converts a Go string pointer to sql.NullString
func ToSqlString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *val, Valid: true}
}

// ToSqlBool converts a Go bool pointer to sql.NullBool
func ToSqlBool(val *bool) sql.NullBool {
	if val == nil {
		return sql.NullBool{Valid: false}
	}
	return sql.NullBool{Bool: *val, Valid: true}
}

// FromSqlInt64 converts sql.NullInt64 to a Go int64 pointer
func FromSqlInt64(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	return &val.Int64
}

// FromSqlStringPtr converts sql.NullString to a Go string pointer
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	return &val.String
}
