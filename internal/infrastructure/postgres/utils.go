package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// nullIfEmpty guarda NULL en columnas opcionales de texto.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fromNullable lee columnas opcionales de texto.
func fromNullable(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isUUID evita enviar a una columna UUID un identificador mal formado (el driver fallaría).
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
