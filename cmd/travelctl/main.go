// Command travelctl drives the trip, journal and food log repositories from
// the shell through the same session cache the API clients use.
//
// Usage:
//
//	travelctl [-owner id] token
//	travelctl [-owner id] trips list|show|create|update|delete|add-activity|remove-activity [flags]
//	travelctl [-owner id] journal list|create|update|delete [flags]
//	travelctl [-owner id] food list|create|update|delete [flags]
//
// Every command prints the resulting cache state as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/riyahid/travel-go/internal/app"
	"github.com/riyahid/travel-go/internal/auth"
	"github.com/riyahid/travel-go/internal/config"
	"github.com/riyahid/travel-go/internal/session"
)

var errUsage = errors.New("usage: travelctl [-owner id] <token|trips|journal|food> <command> [flags]")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "travelctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("travelctl", flag.ContinueOnError)
	owner := fs.String("owner", os.Getenv("TRAVEL_OWNER"), "owner id every command is scoped to (env TRAVEL_OWNER)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}
	if *owner == "" {
		return errors.New("an owner is required: pass -owner or set TRAVEL_OWNER")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	if rest[0] == "token" {
		token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL).GenerateToken(*owner)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, token)
		return err
	}

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	s := session.New(*owner, backends.Trips, backends.Journal, backends.FoodLogs)
	return dispatch(ctx, s, rest, out)
}
