// Package shop parses shop command flags and composes the delivery server.
package shop

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/dragonlost/web/internal/platform/cmd"
	server "github.com/dragonlost/web/internal/services/shop/app"
)

// Config holds shop command configuration.
type Config struct {
	HTTPAddr     string `env:"DRAGONLOST_SHOP_HTTP_ADDR" envDefault:":8090"`
	DatabasePath string `env:"DRAGONLOST_SHOP_DB_PATH"   envDefault:"shop.db"`
	RCONHost     string `env:"DRAGONLOST_RCON_HOST"      envDefault:"localhost"`
	RCONPort     int    `env:"DRAGONLOST_RCON_PORT"      envDefault:"28016"`
	RCONPassword string `env:"DRAGONLOST_RCON_PASSWORD"`
	SilentGive   bool   `env:"DRAGONLOST_RCON_SILENT_GIVE" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "shop HTTP listen address")
	fs.StringVar(&cfg.DatabasePath, "db-path", cfg.DatabasePath, "sqlite database path")
	fs.StringVar(&cfg.RCONHost, "rcon-host", cfg.RCONHost, "game server rcon host")
	fs.IntVar(&cfg.RCONPort, "rcon-port", cfg.RCONPort, "game server rcon port")
	fs.StringVar(&cfg.RCONPassword, "rcon-password", cfg.RCONPassword, "game server rcon password")
	fs.BoolVar(&cfg.SilentGive, "rcon-silent-give", cfg.SilentGive, "grant items without chat announcements")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the shop app and serves deliveries until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceShop, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:     cfg.HTTPAddr,
			DatabasePath: cfg.DatabasePath,
			RCONHost:     cfg.RCONHost,
			RCONPort:     cfg.RCONPort,
			RCONPassword: cfg.RCONPassword,
			SilentGive:   cfg.SilentGive,
		}); err != nil {
			return fmt.Errorf("serve shop: %w", err)
		}
		return nil
	})
}
