package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden relevante: el primer error que coincide con errors.Is gana.
var errorMappings = []errorMapping{
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrBlankReason, fiber.StatusBadRequest, "BLANK_REASON"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicateStock, fiber.StatusConflict, "DUPLICATE_STOCK"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInsufficientAvailable, fiber.StatusUnprocessableEntity, "INSUFFICIENT_AVAILABLE"},
	{domain.ErrInsufficientReserved, fiber.StatusUnprocessableEntity, "INSUFFICIENT_RESERVED"},
	{domain.ErrInsufficientAllocation, fiber.StatusUnprocessableEntity, "INSUFFICIENT_ALLOCATION"},
	{domain.ErrInvalidAdjustment, fiber.StatusUnprocessableEntity, "INVALID_ADJUSTMENT"},
}

// writeError traduce errores de dominio a dto.ErrorResponse con su código HTTP.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
