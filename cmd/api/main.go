// @title           Stock Ledger API
// @version         1.0
// @description     Ledger de stock multiempresa: reservas, despachos, ajustes, canales y traslados.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
// @description     Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger-api/docs"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/stock-ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner inventory.TxRunner
		stocks   repository.StockRepository
		ledger   repository.MovementLedger
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		txRunner, stocks, ledger = store, store.Stocks(), store.Ledger()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
		stocks = postgres.NewStockRepository(pool)
		ledger = postgres.NewMovementLedger(pool)
	}

	// Eventos de stock: Kafka si está habilitado; si no, solo quedan en el log.
	var publisher inventory.EventPublisher
	if cfg.Kafka.Enabled {
		kp := messaging.NewKafkaPublisher(messaging.NewKafkaWriter(cfg.Kafka), log)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar writer de Kafka")
			}
		}()
		publisher = kp
	} else {
		publisher = messaging.NewLogPublisher(log)
	}

	coordinator := inventory.NewStockCoordinator(txRunner, stocks, ledger, log,
		inventory.WithPublisher(publisher),
	)
	ledgerReportUC := inventory.NewLedgerReportUseCase(stocks, ledger, infrapdf.NewMarotoLedgerGenerator())
	replenishmentUC := inventory.NewReplenishmentUseCase(stocks)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	// Sin archivo en disco se sirve el documento embebido en el paquete docs.
	swaggerCfg := swagger.Config{
		BasePath: "/",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		swaggerCfg.FilePath = cfg.HTTP.SwaggerFile
	} else {
		docs.SwaggerInfo.Host = cfg.HTTP.Addr()
		swaggerCfg.FileContent = []byte(docs.SwaggerInfo.ReadDoc())
	}
	app.Use(swagger.New(swaggerCfg))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stocks:        coordinator,
		LedgerReport:  ledgerReportUC,
		Replenishment: replenishmentUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
