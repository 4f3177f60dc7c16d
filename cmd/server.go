package cmd

import (
	"context"
	"log"
	"microtrade/internal/contract"
	"microtrade/internal/delivery/http"
	"microtrade/internal/repository"
	"microtrade/internal/service"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run microtrade",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo := repository.NewRepository(appDep.cfg, appDep.db.DB, appDep.log)

	// a typed nil pointer must not reach the interface field
	var notifier contract.Notifier
	if appDep.notifier != nil {
		notifier = appDep.notifier
	}

	services := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.cache,
		notifier,
	)
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, services)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(appDep.cfg.Scheduler.CronExpression, func() {
		if err := services.SchedulerService.Execute(ctx); err != nil {
			appDep.log.Error("Scheduler tick failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule rule evaluation: %v", err)
	}
	scheduler.Start()

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	<-scheduler.Stop().Done()

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
