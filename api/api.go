package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	"github.com/initia-labs/transfervolume/api/docs"
	"github.com/initia-labs/transfervolume/api/handler"
	"github.com/initia-labs/transfervolume/api/handler/common"
	"github.com/initia-labs/transfervolume/api/middleware"
	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm"
)

type Api struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *orm.Database
	app    *fiber.App
}

func New(cfg *config.Config, logger *slog.Logger, db *orm.Database) *Api {
	a := &Api{
		cfg:    cfg,
		logger: logger.With("component", "api"),
		db:     db,
	}
	a.app = a.NewApp()
	return a
}

//go:generate swag init --generalInfo api.go --output docs --outputTypes go

// NewApp builds the fiber app with every route registered
func (a *Api) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TransferVolume API",
		DisableStartupMessage: true,
		ErrorHandler:          a.errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD,OPTIONS",
	}))

	app.Get("/health", health)

	api := app.Group("/indexer")
	handler.Register(api, a.db, a.cfg, a.logger)

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	return app
}

// @title TransferVolume API
// @version 1.0
// @description Transfer volume of ERC-20 tokens whose name contains the configured filter
// @BasePath /indexer

// @tag.name TransferVolume
// @tag.description Per-token transfer counts

// @tag.name App
// @tag.description Indexer status
func (a *Api) Start() error {
	port := a.cfg.GetListenPort()
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%s", port)

	a.logger.Info("starting API server", slog.String("addr", fmt.Sprintf("http://localhost:%s", port)))

	return a.app.Listen(":" + port)
}

func (a *Api) Shutdown(ctx context.Context) error {
	return a.app.ShutdownWithContext(ctx)
}

func (a *Api) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		a.logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.Int("status", code),
			slog.Any("error", err))
	}

	return c.Status(code).JSON(common.ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

// health handles GET /health
// @Summary Health check
// @Tags App
// @Success 200 "OK"
// @Router /health [get]
func health(c *fiber.Ctx) error {
	return c.SendString("OK")
}
