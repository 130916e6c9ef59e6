package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("open db %s: %v", cfg.DBPath, err)
		}
		defer db.Close()
	}

	var analytics *Analytics
	if db != nil {
		analytics = NewAnalytics(db)
		defer analytics.Stop()
	}

	audio := NewBeepCues(cfg.Audio)
	defer audio.Close()

	if cfg.TUI {
		runLocal(cfg, db, analytics, audio)
		return
	}

	hub := NewHub(cfg.Match(), db, analytics, audio)
	hub.publicURL = cfg.PublicURL
	go hub.Run()

	mux := SetupRoutes(hub, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if cfg.ClientDir != "" {
			log.Printf("Serving client files from %s", cfg.ClientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// runLocal plays a hot-seat match in the terminal. Logs go to a file so they
// don't tear the screen.
func runLocal(cfg Config, db *DB, analytics *Analytics, audio AudioCues) {
	if f, err := os.OpenFile("curling.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	svc := Services{Audio: audio}
	if db != nil {
		svc.Results = db
	}
	if analytics != nil {
		svc.Events = analytics
	}
	if err := runTerminal(cfg, svc); err != nil {
		log.Printf("terminal: %v", err)
	}
}
