package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/tablexport/internal/config"
	"github.com/locvowork/tablexport/internal/handler"
	"github.com/locvowork/tablexport/internal/logger"
	"github.com/locvowork/tablexport/pkg/xlsxport"
)

// App wires the HTTP conversion service together.
type App struct {
	Echo *echo.Echo
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context, verbose bool) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, verbose)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	order, err := xlsxport.ParseDateOrder(config.DefaultEnvConfig.DATE_ORDER)
	if err != nil {
		return fmt.Errorf("invalid DATE_ORDER: %w", err)
	}
	convHandler := handler.NewConvertHandler(config.DefaultEnvConfig.SHEET_NAME, order)

	a.RegisterMiddlewares()
	a.RegisterRoutes(convHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(convHandler *handler.ConvertHandler) {
	a.Echo.POST("/convert", convHandler.Convert)
	a.Echo.GET("/healthz", convHandler.Health)
}

func (a *App) Run() error {
	return a.Echo.Start(config.DefaultEnvConfig.SERVE_ADDR)
}
