package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"cinebase/api"
	"cinebase/config"
	"cinebase/handlers"
	"cinebase/internal/database"
	"cinebase/services/accounts"
	"cinebase/services/favorites"
	"cinebase/services/metadata"
	"cinebase/services/reviews"
	"cinebase/services/scheduler"
	"cinebase/services/sessions"
	"cinebase/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}))
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	defer db.Close()

	movieRepo := database.NewMovieRepository(db.Connection())
	reviewRepo := database.NewReviewRepository(db.Connection())
	favoriteRepo := database.NewFavoriteRepository(db.Connection())

	accountsSvc, err := accounts.NewService(cfg.DataDir, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("[main] accounts: %v", err)
	}

	sessionsSvc, err := sessions.NewService(cfg.DataDir, 0)
	if err != nil {
		log.Fatalf("[main] sessions: %v", err)
	}
	defer sessionsSvc.Close()

	metadataSvc := metadata.NewService(metadata.Config{
		KobisAPIKey:   cfg.KobisAPIKey,
		KMDBAPIKey:    cfg.KMDBAPIKey,
		DedupCacheTTL: cfg.DedupCacheTTL,
		IngestWorkers: cfg.IngestWorkers,
	}, movieRepo, nil)

	reviewsSvc := reviews.NewService(reviewRepo, movieRepo)
	favoritesSvc := favorites.NewService(favoriteRepo, movieRepo)

	moviesHandler := handlers.NewMoviesHandler(movieRepo, metadataSvc)
	reviewsHandler := handlers.NewReviewsHandler(reviewsSvc)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesSvc)
	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	adminAccountsHandler := handlers.NewAccountsHandler(accountsSvc, sessionsSvc)

	router := utils.NewRouter()
	apiRouter := router.PathPrefix("/api").Subrouter()

	// Auth surface.
	apiRouter.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/password", authHandler.ChangePassword).Methods(http.MethodPost, http.MethodOptions)

	// Public catalog surface. Optional auth so signed-in reviewers are
	// identified. Register fixed paths before the {id} patterns.
	public := apiRouter.NewRoute().Subrouter()
	public.Use(api.OptionalAuthMiddleware(sessionsSvc))
	public.HandleFunc("/boxoffice", moviesHandler.BoxOffice).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/movies/complete", moviesHandler.Complete).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/movies", moviesHandler.List).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/movies/{id}", moviesHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/movies/{id}/reviews", reviewsHandler.ListByMovie).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/movies/{id}/reviews", reviewsHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/reviews/{id}", reviewsHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)
	public.HandleFunc("/reviews/{id}/replies", reviewsHandler.ListReplies).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/reviews/{id}/replies", reviewsHandler.CreateReply).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/replies/{id}", reviewsHandler.DeleteReply).Methods(http.MethodDelete, http.MethodOptions)

	// Favorites require a session.
	authed := apiRouter.PathPrefix("/favorites").Subrouter()
	authed.Use(api.AccountAuthMiddleware(sessionsSvc))
	authed.HandleFunc("", favoritesHandler.List).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/{id}", favoritesHandler.Add).Methods(http.MethodPut, http.MethodOptions)
	authed.HandleFunc("/{id}", favoritesHandler.Remove).Methods(http.MethodDelete, http.MethodOptions)
	authed.HandleFunc("/{id}/status", favoritesHandler.Status).Methods(http.MethodGet, http.MethodOptions)

	// Catalog writes require an admin session.
	fromSearch := apiRouter.PathPrefix("/movies/from-search").Subrouter()
	fromSearch.Use(api.AccountAuthMiddleware(sessionsSvc), api.AdminOnlyMiddleware())
	fromSearch.HandleFunc("", moviesHandler.AddFromSearch).Methods(http.MethodPost, http.MethodOptions)

	// Admin surface: batch ingest, catalog deletes and moderation.
	admin := apiRouter.PathPrefix("/admin").Subrouter()
	admin.Use(api.AccountAuthMiddleware(sessionsSvc), api.AdminOnlyMiddleware())
	admin.HandleFunc("/ingest", moviesHandler.Ingest).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/movies/{id}", moviesHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/reviews", reviewsHandler.ListAll).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/accounts", adminAccountsHandler.List).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/accounts/{id}", adminAccountsHandler.Delete).Methods(http.MethodDelete, http.MethodOptions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ingestScheduler *scheduler.Service
	if cfg.AutoIngest {
		ingestScheduler = scheduler.NewService(metadataSvc, cfg.AutoIngestHour)
		ingestScheduler.Start(ctx)
		defer ingestScheduler.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
