package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stocks        *inventory.StockCoordinator
	LedgerReport  *inventory.LedgerReportUseCase
	Replenishment *inventory.ReplenishmentUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token); el tenant es el company_id del token.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	h := NewStockHandler(deps.Stocks, deps.LedgerReport, deps.Replenishment)

	// Las rutas fijas van antes de /:id.
	stocks := protected.Group("/stocks")
	stocks.Post("/", h.Create)
	stocks.Get("/", h.List)
	stocks.Get("/low", h.ListLow)
	stocks.Get("/summary", h.Summary)
	stocks.Get("/replenishment", h.Replenishment)
	stocks.Post("/transfers", h.Transfer)
	stocks.Get("/:id", h.GetByID)
	stocks.Post("/:id/receive", h.Receive)
	stocks.Post("/:id/reserve", h.Reserve)
	stocks.Post("/:id/release", h.Release)
	stocks.Post("/:id/ship", h.Ship)
	stocks.Post("/:id/adjust", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), h.Adjust)
	stocks.Post("/:id/channels/allocate", h.Allocate)
	stocks.Post("/:id/channels/deallocate", h.Deallocate)
	stocks.Get("/:id/movements", h.Movements)
	stocks.Get("/:id/movements/verify", h.VerifyLedger)
	stocks.Get("/:id/ledger.pdf", h.LedgerPDF)

	protected.Get("/movements", h.MovementsByReference)
}
