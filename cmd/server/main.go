package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/go-chatapp/internal/account"
	"github.com/example/go-chatapp/internal/api"
	"github.com/example/go-chatapp/internal/chat"
	"github.com/example/go-chatapp/internal/config"
	"github.com/example/go-chatapp/internal/server"
	"github.com/example/go-chatapp/internal/stats"
	"github.com/example/go-chatapp/internal/store"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dataDir        string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dataDir, "data-dir", "data", "directory for JSON data files")
	flag.StringVar(&dsn, "dsn", "", "postgres connection string (overrides -data-dir when set)")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[chatapp] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dataDir, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	var st store.Store
	if cfg.DatabaseDSN != "" {
		pg, err := store.NewPgStore(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("db open:", err)
		}
		defer func() {
			if err := pg.Close(); err != nil {
				logger.Println("db close:", err)
			}
		}()
		st = pg
	} else {
		fileStore, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Fatal("data dir:", err)
		}
		st = fileStore
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	accounts := account.NewManager(logger, st)
	presence := chat.NewPresenceRegistry()
	friends := chat.NewFriendshipGraph(logger, st)
	messages := chat.NewMessageLog(logger, st)

	hub := server.NewHub(logger, statsUpdater)
	router := chat.NewRouter(logger, presence, friends, messages, accounts, hub, statsUpdater)

	srv := api.NewChatApp(mux, logger, hub, router, accounts, friends, messages, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down hub...")
	hub.Shutdown()

	logger.Println("shutdown complete")
}
