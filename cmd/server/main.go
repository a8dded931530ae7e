package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"openshard.dev/internal/persistence/housedb"
	"openshard.dev/internal/shard"
	"openshard.dev/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/shard.yaml", "shard config path")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		dbPath     = flag.String("db", "", "house database path (overrides config)")
		disableDB  = flag.Bool("disable_db", false, "run without persistence")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[shard] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := shard.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", *configPath)
		cfg, _ = shard.LoadConfig("")
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Addr = *addr
	}
	if strings.TrimSpace(*dbPath) != "" {
		cfg.DBPath = *dbPath
	}

	var store *housedb.Store
	if !*disableDB {
		store, err = housedb.Open(cfg.DBPath, logger)
		if err != nil {
			logger.Fatalf("open housedb: %v", err)
		}
		defer store.Close()
	}

	sh, err := shard.New(cfg, store, logger)
	if err != nil {
		logger.Fatalf("shard: %v", err)
	}
	if err := sh.Boot(); err != nil {
		logger.Fatalf("boot: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := sh.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("shard loop: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/statz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"houses": sh.HouseCount(),
		})
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(sh, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
		sh.Stop()
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
