package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yapa/internal/app"
	"yapa/internal/auth"
	"yapa/internal/config"
	apphttp "yapa/internal/http"
	"yapa/internal/service"
	"yapa/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer stores.Close()

	media, err := app.BuildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	issuer, err := token.NewIssuer(cfg.Auth.SecretKey)
	if err != nil {
		logger.Fatalf("setup token issuer: %v", err)
	}

	userService := service.NewUserService(stores.Users, issuer, media, logger, service.UserServiceConfig{
		PasswordCost:   cfg.Auth.PasswordCost,
		MaxAvatarBytes: cfg.Media.MaxUploadBytes,
	})
	taskService := service.NewTaskService(stores.Tasks, stores.Users, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Media.MaxUploadBytes
	handler := apphttp.NewHandler(userService, taskService, auth.NewAuthenticator(stores.Users), media, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
