package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/db"
	"github.com/pharmarawasy-del/Delala/internal/feed"
	"github.com/pharmarawasy-del/Delala/internal/images"
	"github.com/pharmarawasy-del/Delala/internal/publish"
	"github.com/pharmarawasy-del/Delala/internal/server"
	"github.com/pharmarawasy-del/Delala/internal/session"
	"github.com/pharmarawasy-del/Delala/internal/storage"
	"github.com/pharmarawasy-del/Delala/internal/store"
	"github.com/pharmarawasy-del/Delala/internal/wizard"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	supauth "github.com/supabase-community/auth-go"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	authClient := supauth.New(config.SupabaseProjectRef, config.SupabaseAnonKey)
	objectStorage := storage.NewSupabaseStorage(config.SupabaseProjectRef, config.SupabaseAnonKey)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	adsRepo := store.NewAdRepository(pool)
	profilesRepo := store.NewProfileRepository(pool)
	messagesRepo := store.NewMessageRepository(pool)

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("https://%s.supabase.co/auth/v1/.well-known/jwks.json", config.SupabaseProjectRef)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register supabase jwk with cache: %w", err)
	}

	normalizer := images.NewNormalizer(logger)
	publisher := publish.New(logger, objectStorage, adsRepo, profilesRepo, normalizer, config.AdImagesBucket)

	wizards := wizard.NewStore(time.Duration(config.DraftTTLMin) * time.Minute)
	defer wizards.Close()

	feeds := feed.NewStore(logger, adsRepo, time.Duration(config.FeedSessionTTLMin)*time.Minute)
	defer feeds.Close()

	verifier := server.NewJWKSVerifier(jwkCache, jwksURL)
	bootstrapper := session.NewBootstrapper(logger, verifier, profilesRepo, session.DefaultTimeout)

	// The process starts with no stored session; run the initial check so the
	// state machine leaves unknown before the listener accepts traffic.
	bootstrapper.Bootstrap(ctx, "")

	srv, err := server.New(
		config,
		logger,
		authClient,
		objectStorage,
		adsRepo,
		profilesRepo,
		messagesRepo,
		normalizer,
		publisher,
		wizards,
		feeds,
		bootstrapper,
		jwkCache,
		jwksURL,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
