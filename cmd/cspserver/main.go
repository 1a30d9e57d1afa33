// Command cspserver runs a CSP dispatcher behind HTTP and WebSocket
// transports, with an optional Redis-backed settings cache and a
// Prometheus metrics endpoint. Wiring follows the teacher's
// cmd/server/main.go: load .env, build the dependency graph by hand in
// main, then start the listener(s) and block.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ocx/csp/internal/csp/server"
	"github.com/ocx/csp/internal/csp/settings"
	"github.com/ocx/csp/internal/csp/settingscache"
	"github.com/ocx/csp/internal/csptransport/httptransport"
	"github.com/ocx/csp/internal/csptransport/wstransport"
	"github.com/ocx/csp/internal/cspconfig"
	"github.com/ocx/csp/internal/cspmetrics"
)

// selfSettingsKey is the single fixed key (not one per client) this
// process's own advertised PartySettings is cached under. Nothing in this
// module reads the entry back.
const selfSettingsKey = "self"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the CSP server config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("cspserver: no .env file found, continuing with process environment")
	}

	cfg, err := cspconfig.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("cspserver: failed to load config %s: %v", *configPath, err)
	}

	localSettings := settings.PartySettings{
		SupportedProtocolVersions: protocolVersionsAsUint16(cfg.Protocol.Supported),
	}

	srv := server.New(
		localSettings,
		cfg.Protocol.MinVersion,
		cfg.Protocol.LatestVersion,
		cfg.Protocol.Supported,
	)

	cspmetrics.New()

	if cfg.Redis.Addr != "" {
		if err := cacheLocalSettings(cfg, localSettings); err != nil {
			log.Printf("cspserver: settings cache unavailable, continuing without it: %v", err)
		}
	}

	httpHandler := httptransport.New(srv)
	wsHandler := wstransport.New(srv)

	mux := httpHandler.Router()
	mux.Handle("/ws", wsHandler)

	go serveMetrics(cfg.Metrics.Addr)

	log.Printf("cspserver: listening for CSP frames on %s (ws on the same port at /ws)", cfg.Server.HTTPAddr)
	if err := http.ListenAndServe(cfg.Server.HTTPAddr, mux); err != nil {
		log.Fatalf("cspserver: http server failed: %v", err)
	}
}

func protocolVersionsAsUint16(versions []uint8) []uint16 {
	out := make([]uint16, len(versions))
	for i, v := range versions {
		out[i] = uint16(v)
	}
	return out
}

// cacheLocalSettings publishes this process's own advertised PartySettings
// to Redis under selfSettingsKey. The server answers GetSettings from its
// own LocalSettings and does not consult this cache.
func cacheLocalSettings(cfg *cspconfig.Config, local settings.PartySettings) error {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	ttl := time.Duration(cfg.Redis.TTLSec) * time.Second
	cache := settingscache.New(settingscache.NewGoRedisAdapter(rdb), cfg.Redis.KeyPrefix, ttl)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Save(ctx, selfSettingsKey, local); err != nil {
		return err
	}
	log.Printf("cspserver: published local settings to redis at %s", cfg.Redis.Addr)
	return nil
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("cspserver: metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("cspserver: metrics server failed: %v", err)
		os.Exit(1)
	}
}
