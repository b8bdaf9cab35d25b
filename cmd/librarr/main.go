package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/librarr/pkg/config"
	"github.com/shishobooks/librarr/pkg/database"
	"github.com/shishobooks/librarr/pkg/metrics"
	"github.com/shishobooks/librarr/pkg/migrations"
	"github.com/shishobooks/librarr/pkg/qualities"
	"github.com/shishobooks/librarr/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting librarr")

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	profile, err := qualities.NewService(db).EnsureDefaultProfile(ctx)
	if err != nil {
		log.Err(err).Fatal("quality profile error")
	}
	log.Info("quality profile ready", logger.Data{"profile_id": profile.ID, "name": profile.Name})

	metrics.Register()

	var srv *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", cfg.MetricsAddress)
		if err != nil {
			log.Err(err).Fatal("failed to bind metrics address")
		}
		log.Info("metrics server started", logger.Data{"address": listener.Addr().String()})

		go func() {
			err := srv.Serve(listener)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Err(err).Fatal("metrics server stopped")
			}
			log.Info("metrics server stopped")
		}()
	}

	graceful := signals.Setup()

	wrkr := worker.New(cfg, db, nil)
	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Err(err).Error("metrics server shutdown error")
		}
		log.Info("metrics server shutdown")
	}

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
