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

	"platewise.app/internal/httpapi"
	"platewise.app/internal/identity"
	"platewise.app/internal/invite"
	"platewise.app/internal/notify"
	"platewise.app/internal/obs"
	"platewise.app/internal/profile"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("PLATEWISE_COMMIT"))

	secret := os.Getenv("PLATEWISE_AUTH_SECRET")
	if secret == "" {
		log.Fatal("PLATEWISE_AUTH_SECRET is required")
	}

	// Connect to the database when a DSN is given; otherwise the service
	// runs fully in memory, which is enough for local development.
	var db *sql.DB
	if dsn := os.Getenv("PLATEWISE_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		identityStore identity.Store
		profileStore  profile.Store
		inviteStore   invite.Store
	)
	if db != nil {
		identityStore = identity.NewPGStore(db)
		profileStore = profile.NewPGStore(db)
		inviteStore = invite.NewPGStore(db)
	} else {
		log.Print("PLATEWISE_PG_DSN not set, using in-memory stores")
		identityStore = identity.NewMemoryStore()
		profileStore = profile.NewMemoryStore()
		inviteStore = invite.NewMemoryStore()
	}

	auth, err := identity.NewService(identityStore, secret)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}
	resolver, err := profile.NewResolver(profileStore)
	if err != nil {
		log.Fatalf("profile resolver: %v", err)
	}

	inviteOpts := []invite.Option{
		invite.WithNotifier(notify.LogNotifier{}),
	}
	if baseURL := os.Getenv("PLATEWISE_BASE_URL"); baseURL != "" {
		inviteOpts = append(inviteOpts, invite.WithBaseURL(baseURL))
	}
	invites, err := invite.NewManager(inviteStore, inviteOpts...)
	if err != nil {
		log.Fatalf("invitation manager: %v", err)
	}

	api, err := httpapi.New(httpapi.Config{
		Auth:        auth,
		Resolver:    resolver,
		Invitations: invites,
		Ready:       httpapi.ReadyProbe{DB: db},
		Version:     version,
	})
	if err != nil {
		log.Fatalf("http api: %v", err)
	}

	addr := os.Getenv("PLATEWISE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting platewise-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
