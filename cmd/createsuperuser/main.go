package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"yapa/internal/app"
	"yapa/internal/config"
	"yapa/internal/service"
	"yapa/internal/token"
	"yapa/internal/validation"
)

func main() {
	var form validation.Registration
	flag.StringVar(&form.FirstName, "first-name", "", "first name of the superuser")
	flag.StringVar(&form.LastName, "last-name", "", "last name of the superuser")
	flag.StringVar(&form.Email, "email", "", "email address used to log in")
	flag.StringVar(&form.Password1, "password", "", "password (defaults to $YAPA_SUPERUSER_PASSWORD)")
	flag.Parse()

	if form.Password1 == "" {
		form.Password1 = os.Getenv("YAPA_SUPERUSER_PASSWORD")
	}
	form.Password2 = form.Password1

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

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

	users := service.NewUserService(stores.Users, issuer, media, logger, service.UserServiceConfig{
		PasswordCost: cfg.Auth.PasswordCost,
	})
	user, err := users.CreateSuperuser(ctx, form)
	if err != nil {
		if list, ok := validation.As(err); ok {
			for _, fe := range list {
				fmt.Fprintf(os.Stderr, "%s: %s\n", fe.Field(), fe.Msg)
			}
			stores.Close()
			os.Exit(2)
		}
		logger.Fatalf("create superuser: %v", err)
	}

	fmt.Printf("superuser %s created (id %d)\n", user.Email, user.ID)
	fmt.Printf("token: %s\n", user.Token)
}
