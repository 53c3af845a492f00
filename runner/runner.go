// Package runner parses process configuration and wires the portal
// together.
package runner

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"lorechronicle/allcodex"
	"lorechronicle/allknower"
	"lorechronicle/creds"
	"lorechronicle/creds/sqlitestore"
	"lorechronicle/web"
)

type Config struct {
	Addr        string
	Debug       bool
	Secure      bool
	ProfileDB   string
	CORSOrigins []string
	Fallback    creds.Fallback
}

// ParseConfig reads flags and environment fallbacks. The credential
// environment variables are captured once here and injected; nothing else
// reads them afterwards.
func ParseConfig() *Config {
	cfg := Config{}

	var corsOrigins string

	flag.StringVar(&cfg.Addr, "addr", ":8080", "address to listen on")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flag.BoolVar(&cfg.Secure, "secure", false, "mark credential cookies Secure (set when serving HTTPS)")
	flag.StringVar(&cfg.ProfileDB, "profile-db", "", "path to a sqlite profile database; keeps tokens server-side instead of in cookies")
	flag.StringVar(&corsOrigins, "cors", "", "comma separated list of allowed CORS origins, e.g. http://localhost:3000")
	flag.Parse()

	if corsOrigins != "" {
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	cfg.Fallback = creds.Fallback{
		AllCodexURL:    os.Getenv("ALLCODEX_URL"),
		AllCodexToken:  os.Getenv("ALLCODEX_ETAPI_TOKEN"),
		AllKnowerURL:   os.Getenv("ALLKNOWER_URL"),
		AllKnowerToken: os.Getenv("ALLKNOWER_BEARER_TOKEN"),
	}

	return &cfg
}

// Run builds the credential store, the service clients and the logger,
// then serves until the context is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var store creds.Store

	if cfg.ProfileDB != "" {
		sqlStore, err := sqlitestore.New(cfg.ProfileDB, cfg.Fallback, cfg.Secure)
		if err != nil {
			return fmt.Errorf("failed to open profile database: %w", err)
		}
		defer sqlStore.Close()

		store = sqlStore

		logger.Info("using sqlite profile store", zap.String("path", cfg.ProfileDB))
	} else {
		store = creds.NewCookieStore(cfg.Fallback, cfg.Secure)
	}

	logger.Info("starting portal",
		zap.String("addr", cfg.Addr),
		zap.Bool("allcodex_fallback", cfg.Fallback.AllCodexURL != ""),
		zap.Bool("allknower_fallback", cfg.Fallback.AllKnowerURL != ""),
	)

	return web.Start(ctx, web.Config{
		Addr:        cfg.Addr,
		Debug:       cfg.Debug,
		CORSOrigins: cfg.CORSOrigins,
		Store:       store,
		AllCodex:    allcodex.NewClient(),
		AllKnower:   allknower.NewClient(),
		Logger:      logger,
	})
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// Banner prints the startup banner.
func Banner() {
	fmt.Fprintln(os.Stderr, "📜 Lore Chronicle portal")
}
