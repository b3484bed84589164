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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"carpool-web/internal/api"
	"carpool-web/internal/auth"
	"carpool-web/internal/guard"
	"carpool-web/internal/rides"
	"carpool-web/internal/session"
	"carpool-web/internal/web"
)

func main() {
	// ── 1. Backend API client ──
	apiClient := api.NewClient(env("BACKEND_URL", "http://localhost:3000"))

	// ── 2. Session store ──
	store, err := openStore()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()
	sessions := session.NewManager(store)

	// ── 3. Services ──
	authSvc := auth.NewService(apiClient, sessions)
	rideSvc := rides.NewService(apiClient)

	// ── 4. Templates ──
	render, err := web.NewRenderer()
	if err != nil {
		log.Fatal(err)
	}

	authHandler := auth.NewHandler(authSvc, render)
	rideHandler := rides.NewHandler(rideSvc, render)

	// ── 5. HTTP router ──
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"carpool-web"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(authSvc.WithSession)

		authHandler.Mount(r)
		r.With(guard.Require()).Get("/profile", authHandler.Profile)

		r.Route("/driver", func(r chi.Router) {
			r.Use(guard.Require(auth.RoleDriver))
			rideHandler.MountDriver(r)
		})
		r.Route("/passenger", func(r chi.Router) {
			r.Use(guard.Require(auth.RolePassenger))
			rideHandler.MountPassenger(r)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.Require(auth.RoleAdmin))
			rideHandler.MountAdmin(r)
		})
	})

	// ── 6. Start server ──
	port := env("PORT", "8080")
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Printf("carpool-web listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// ── 7. Graceful shutdown ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	srv.Shutdown(shutCtx)
}

func openStore() (session.Store, error) {
	switch backend := env("SESSION_STORE", "badger"); backend {
	case "badger":
		return session.NewBadgerStore(env("BADGER_PATH", "./data/sessions"))
	case "redis":
		return session.NewRedisStore(env("REDIS_ADDR", "localhost:6379"))
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", backend)
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
