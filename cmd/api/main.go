package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
	"pricelink.org/internal/config"
	"pricelink.org/internal/httpapi"
	"pricelink.org/internal/link"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/obs"
	"pricelink.org/internal/storage"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("PORTAL_PG_DSN is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	blobs, err := storage.NewDisk(cfg.StoragePath)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("codec: %v", err)
	}

	store := catalog.NewPGStore(db)
	sessions := auth.NewSessions(codec, catalog.NewDirectory(store),
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
	)
	catalogSvc := catalog.NewService(store, blobs)
	linkSvc := link.NewService(link.NewPGStore(db), store,
		link.WithTTL(cfg.DownloadLinkTTL))

	api := httpapi.New(cfg, sessions, catalogSvc, linkSvc, blobs, newMailer(cfg))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Flip readiness once the database answers.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Printf("db ping: %v", err)
			return
		}
		api.SetReady(true)
	}()

	log.Printf("Starting pricelink-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	api.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}

// newMailer picks the delivery backend from configuration: SMTP relay, an
// HTTP provider, or a silent no-op when neither is set.
func newMailer(cfg config.Config) mail.Sender {
	switch {
	case cfg.UseSMTP && cfg.SMTPHost != "":
		return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	case cfg.MailAPIKey != "":
		return mail.NewAPISender(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	default:
		log.Println("mail: no provider configured, sends will be dropped")
		return mail.Noop{}
	}
}
