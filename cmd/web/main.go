// cmd/web/main.go
package main

import (
	"os"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/api/handlers"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/api/responses"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/config"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/corrispettivi"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/normalize"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/observability"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/report"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		responses.InitLogger("info").Fatal("failed to load configuration", zap.Error(err))
	}
	logger := responses.InitLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	defaults, err := runOptions(cfg.Run)
	if err != nil {
		logger.Fatal("invalid run defaults", zap.Error(err))
	}

	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.NewMetrics()
	service := corrispettivi.NewService(logger, metrics)
	settings := report.Settings{
		Organization:   cfg.Report.Organization,
		RegimeNotice:   cfg.Report.RegimeNotice,
		CurrencySymbol: cfg.Report.CurrencySymbol,
	}
	reconcileHandler := handlers.NewReconcileHandler(service, settings, defaults)
	router := handlers.NewRouter(reconcileHandler, metrics, logger, cfg.Server.MaxUploadBytes)

	logger.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func runOptions(rc config.RunConfig) (corrispettivi.Options, error) {
	variant, err := corrispettivi.ParseVariant(rc.Variant)
	if err != nil {
		return corrispettivi.Options{}, err
	}
	policy, err := normalize.ParsePolicy(rc.OnInvalidRow)
	if err != nil {
		return corrispettivi.Options{}, err
	}
	return corrispettivi.Options{Variant: variant, OnInvalidRow: policy, LedgerSheet: rc.LedgerSheet}, nil
}
