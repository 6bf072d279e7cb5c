// README: Entry point; loads config, wires stores and services, starts the HTTP
// server, the notification worker, and the expiration sweep.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"courier/internal/config"
	httptransport "courier/internal/http"
	"courier/internal/http/handlers"
	"courier/internal/infra"
	"courier/internal/modules/match"
	"courier/internal/modules/parcel"
	"courier/internal/modules/trip"
	"courier/internal/modules/user"
	"courier/internal/modules/wallet"
	"courier/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		parcelStore parcel.Store
		tripStore   trip.Store
		userStore   user.Store
		walletStore wallet.Store
	)
	switch cfg.DB.Backend {
	case "memory":
		parcelStore = parcel.NewMemoryStore()
		tripStore = trip.NewMemoryStore()
		userStore = user.NewMemoryStore()
		walletStore = wallet.NewMemoryStore()
	default:
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		parcelStore = parcel.NewPostgresStore(dbPool)
		tripStore = trip.NewPostgresStore(dbPool)
		userStore = user.NewPostgresStore(dbPool)
		walletStore = wallet.NewPostgresStore(dbPool)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	matchCache := match.NewCache(redisClient, cfg.Matching.CacheTTL)

	var sink notify.Sink = notify.LogSink{}
	if cfg.AMQP.URL != "" {
		rabbit, err := infra.NewRabbit(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("rabbitmq init: %v", err)
		}
		defer rabbit.Close()
		sink, err = notify.NewAMQPSink(rabbit, cfg.AMQP.Queue)
		if err != nil {
			log.Fatalf("rabbitmq queue: %v", err)
		}
	}
	dispatcher := notify.NewDispatcher(sink, 256)

	var mailer parcel.OTPMailer = notify.LogMailer{}
	if cfg.SMTP.Addr != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP.Addr, cfg.SMTP.From)
	}

	tripSvc := trip.NewService(tripStore)
	walletSvc := wallet.NewService(walletStore, parcelStore)
	parcelSvc := parcel.NewService(parcelStore, tripStore, walletSvc, userStore, dispatcher, mailer, cfg.Lifecycle)
	matchSvc := match.NewService(parcelStore, tripStore, matchCache, cfg.Matching)

	router := httptransport.NewRouter(
		handlers.NewParcelHandler(parcelSvc, matchSvc),
		handlers.NewTripHandler(tripSvc, matchSvc),
		handlers.NewWalletHandler(walletSvc),
	)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go dispatcher.Run(ctx)
	go parcelSvc.RunExpirationSweep(ctx)

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("courier-api listening on %s (backend=%s)", cfg.HTTP.Addr, cfg.DB.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
