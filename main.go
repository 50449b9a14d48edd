package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore-service/handlers"
	"bookstore-service/internal/auth"
	"bookstore-service/internal/books"
	"bookstore-service/internal/cart"
	"bookstore-service/internal/consul"
	"bookstore-service/internal/orders"
	"bookstore-service/internal/promocodes"
	"bookstore-service/internal/reviews"
	"bookstore-service/internal/stats"
	"bookstore-service/internal/stores/kafka"
	"bookstore-service/internal/stores/postgres"
	"bookstore-service/internal/users"
	"bookstore-service/pkg/logkey"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	setupSlog()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on process environment")
	}

	if err := startApp(); err != nil {
		slog.Error("service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	keys, err := loadAuthKeys()
	if err != nil {
		return fmt.Errorf("loading auth keys: %w", err)
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	booksConf, err := books.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	promoConf, err := promocodes.NewConf(db)
	if err != nil {
		return err
	}
	reviewsConf, err := reviews.NewConf(db)
	if err != nil {
		return err
	}
	statsConf, err := stats.NewConf(db)
	if err != nil {
		return err
	}
	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}

	// Kafka is best effort: without brokers the service still takes
	// orders, it just stops emitting events.
	var kafkaConf *kafka.Conf
	if os.Getenv("KAFKA_HOST") != "" {
		kafkaConf, err = kafka.NewConf()
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer kafkaConf.Close()
	} else {
		slog.Warn("KAFKA_HOST not set, events disabled")
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/bookstore"
	}

	api, err := handlers.API(prefix, keys, handlers.Confs{
		Books:      booksConf,
		Cart:       cartConf,
		Orders:     ordersConf,
		PromoCodes: promoConf,
		Reviews:    reviewsConf,
		Stats:      statsConf,
		Users:      usersConf,
		Kafka:      kafkaConf,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if os.Getenv("CONSUL_HTTP_HOST") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		registration, err := consul.NewRegistration("bookstore-" + uuid.NewString())
		if err != nil {
			return err
		}
		if err := registration.Register(client); err != nil {
			return err
		}
		defer func() {
			if err := registration.Deregister(client); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
	} else {
		slog.Warn("CONSUL_HTTP_HOST not set, service discovery disabled")
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("service listening", slog.String("Port", port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			if er := server.Close(); er != nil {
				return fmt.Errorf("forcing server close: %w", er)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func loadAuthKeys() (*auth.Keys, error) {
	privatePath := os.Getenv("JWT_PRIVATE_KEY_PATH")
	publicPath := os.Getenv("JWT_PUBLIC_KEY_PATH")
	if privatePath == "" || publicPath == "" {
		return nil, fmt.Errorf("jwt key path env variables are not set")
	}

	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	return auth.NewKeys(privateKey, publicKey)
}

func setupSlog() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	slog.SetDefault(slog.New(logHandler))
}
