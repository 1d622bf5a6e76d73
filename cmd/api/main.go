package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/needcart-api/internal/config"
	"github.com/needcart-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/needcart-api/internal/infrastructure/jwt"
	s3infra "github.com/needcart-api/internal/infrastructure/s3"
	"github.com/needcart-api/internal/infrastructure/smtp"
	"github.com/needcart-api/internal/infrastructure/sns"
	transporthttp "github.com/needcart-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Every protected route depends on the JWT provider; without it the API
	// must not come up at all.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3-backed escrow audit trail.
	s3Client := s3infra.NewClient(cfg)
	auditStore := s3infra.NewAuditStore(s3Client, cfg.S3AuditBucket)

	// SMTP mailer for signup codes.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// SNS disbursement publisher (optional — release fails loudly without it).
	var disburser sns.DisbursementPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		disburser = p
	} else {
		log.Printf("WARN: disbursement publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OrderRepo:   dynamo.NewOrderRepo(dynamoClient, cfg.DynamoTables.Orders),
		EscrowRepo:  dynamo.NewEscrowRepo(dynamoClient, cfg.DynamoTables.EscrowPayouts),
		SignupRepo:  dynamo.NewSignupRepo(dynamoClient, cfg.DynamoTables.PendingSignups),
		AuditStore:  auditStore,
		Mailer:      mailer,
		SMSSender:   smsSender,
		Disburser:   disburser,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
