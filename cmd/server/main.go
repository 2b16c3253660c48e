package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"coursemart/impl/auth"
	"coursemart/impl/core"
	"coursemart/impl/enroll"
	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/http-server/api"
	"coursemart/internal/stripeclient"
	"coursemart/internal/token"
	"coursemart/lib/logger"
	"coursemart/lib/sl"
)

const logFileName = "coursemart.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.Setup(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting coursemart", slog.String("config", *configPath), slog.String("env", conf.Env))

	db := database.NewMongoClient(conf)
	if db == nil {
		log.Fatal("mongo is disabled in config; the service cannot run without it")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.Ping(ctx); err != nil {
		lg.Error("mongo ping failed", sl.Err(err))
	}
	cancel()

	ttl, err := time.ParseDuration(conf.Auth.TokenTTL)
	if err != nil {
		log.Fatal("invalid token ttl: ", err)
	}
	if conf.Auth.Secret == "" {
		log.Fatal("auth secret is not set")
	}
	tokens := token.New(conf.Auth.Secret, ttl)

	gate := auth.New(tokens, db)

	var sc *stripeclient.StripeClient
	if conf.Stripe.APIKey != "" {
		sc = stripeclient.New(conf.Stripe.APIKey, conf.Stripe.WebhookSecret, conf.Stripe.Currency, lg)
		sc.SetDatabase(db)
	} else {
		lg.Warn("stripe api key not set; payment intents disabled")
	}

	workflow := enroll.New(db, db, db, lg)
	handler := core.New(db, gate, workflow, tokens, sc, lg)

	if err := api.New(conf, lg, handler); err != nil {
		lg.Error("api server stopped", sl.Err(err))
	}
}
