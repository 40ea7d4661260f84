// @title                       Inventario Ledger API
// @version                     1.0
// @description                 Libro de movimientos, reservas, transferencias y conteos cíclicos de inventario.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
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

	_ "github.com/jhoicas/Inventario-ledger/docs"
	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/auth"
	"github.com/jhoicas/Inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/Inventario-ledger/internal/application/cyclecount"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/application/transfer"
	"github.com/jhoicas/Inventario-ledger/internal/bootstrap"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/events"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/picking"
	httpRouter "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, log.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir store del libro")
	}
	defer store.Close()

	// Eventos post-commit: RabbitMQ si está configurado, si no el log.
	var publisher events.Publisher = events.NewLogPublisher(log.Component("events"))
	if cfg.Events.RabbitMQURL != "" {
		rabbit, err := events.DialRabbitMQ(cfg.Events.RabbitMQURL, cfg.Events.Exchange,
			events.WithPublisherLogger(log.Component("rabbitmq")))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rabbit.Close()
		publisher = rabbit
	}
	dispatcher := events.NewDispatcher(publisher, cfg.Events.Buffer, log.Zerolog())

	ledgerSvc, err := bootstrap.NewLedger(store, cfg, log.Zerolog(), ledger.WithNotifier(dispatcher))
	if err != nil {
		log.Fatal().Err(err).Msg("configurar libro")
	}

	catalogUC := catalog.NewUseCase(ledgerSvc)
	registerMovementUC := adjustment.NewRegisterMovementUseCase(ledgerSvc, log.Zerolog())
	allocationUC := allocation.NewUseCase(ledgerSvc, picking.NewLocalCreator(log.Zerolog()), log.Zerolog())
	transferUC := transfer.NewUseCase(ledgerSvc, log.Zerolog())
	cycleCountUC := cyclecount.NewUseCase(ledgerSvc, log.Zerolog())
	authUC := auth.NewAuthUseCase(ledgerSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":         "ok",
			"service":        cfg.App.Name,
			"events_dropped": dispatcher.Dropped(),
			"events_failed":  dispatcher.Failed(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:           ledgerSvc,
		Catalog:          catalogUC,
		RegisterMovement: registerMovementUC,
		Allocation:       allocationUC,
		Transfers:        transferUC,
		CycleCounts:      cycleCountUC,
		AuthUC:           authUC,
		JWTSecret:        cfg.JWT.Secret,
	})

	if err := serve(ctx, app, dispatcher, cfg.HTTP.Addr(), 10*time.Second, log.Zerolog()); err != nil {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}
