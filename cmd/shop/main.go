// Package main starts the shop delivery service and handles termination.
//
// The process is a bridge between the web store and the live game server: it
// owns the persistent RCON connection and the exactly-once purchase delivery
// transaction.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	shopcmd "github.com/dragonlost/web/internal/cmd/shop"
)

func main() {
	cfg, err := shopcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SHOP] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shopcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
