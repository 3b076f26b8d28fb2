// Package main boots the avocado price predictor web form.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/avocado-price-predictor/internal/config"
	httpapi "github.com/fairyhunter13/avocado-price-predictor/internal/http"
	"github.com/fairyhunter13/avocado-price-predictor/internal/mlclient"
	"github.com/fairyhunter13/avocado-price-predictor/internal/mlmodel"
	"github.com/fairyhunter13/avocado-price-predictor/internal/obs"
	"github.com/fairyhunter13/avocado-price-predictor/internal/predictor"
	"github.com/fairyhunter13/avocado-price-predictor/internal/regions"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "model_backend", cfg.ModelBackend)

	svc, err := bootstrap(context.Background(), cfg)
	if err != nil {
		obs.Logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}

	counters := obs.NewCounters()
	obs.Publish(counters)
	app := httpapi.NewApp(cfg, svc, counters)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr, "region_count", len(svc.Regions()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}

// bootstrap loads both models and the region list. Any failure aborts startup.
func bootstrap(ctx context.Context, cfg config.Config) (*predictor.Service, error) {
	clf, reg, err := loadModels(ctx, cfg)
	if err != nil {
		return nil, err
	}
	names, err := loadRegions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return predictor.New(clf, reg, names), nil
}

func loadModels(ctx context.Context, cfg config.Config) (predictor.Classifier, predictor.Regressor, error) {
	if cfg.ModelBackend == config.BackendHTTP {
		c := mlclient.NewHTTPClient(cfg.MLServiceURL, cfg.MLTimeout)
		if err := c.Health(ctx); err != nil {
			return nil, nil, fmt.Errorf("model service %s: %w", cfg.MLServiceURL, err)
		}
		obs.Logger.Info("model_service_ready", "url", cfg.MLServiceURL)
		return c.Classifier(), c.Regressor(), nil
	}
	clf, err := mlmodel.LoadTask(cfg.ClassifierModelPath, mlmodel.TaskClassification)
	if err != nil {
		return nil, nil, err
	}
	reg, err := mlmodel.LoadTask(cfg.RegressorModelPath, mlmodel.TaskRegression)
	if err != nil {
		return nil, nil, err
	}
	obs.Logger.Info("models_loaded",
		"classifier", clf.Name(), "classes", clf.Classes(),
		"regressor", reg.Name(), "width", reg.Width(),
	)
	return clf, reg, nil
}

func loadRegions(ctx context.Context, cfg config.Config) ([]string, error) {
	if cfg.RegionsDSN != "" {
		src, err := regions.NewPostgresSource(ctx, cfg.RegionsDSN, cfg.RegionsTable, cfg.RegionColumn)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return regions.Load(ctx, src)
	}
	return regions.Load(ctx, regions.CSVSource{Path: cfg.DatasetPath, Column: cfg.RegionColumn})
}
