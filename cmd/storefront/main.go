package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"headless-storefront/internal/config"
	"headless-storefront/internal/logging"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	var a *app

	withApp := func(fn func(c *cli.Context, a *app) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			return fn(c, a)
		}
	}

	return &cli.App{
		Name:  "storefront",
		Usage: "drive the storefront coordinators from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "override LOG_LEVEL"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if lvl := c.String("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			logger := logging.NewWithWriter(os.Stderr, cfg.Env, cfg.LogLevel)
			if err := cfg.ValidateDevice(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a, err = newApp(c.Context, cfg, logger)
			return err
		},
		After: func(c *cli.Context) error {
			if a != nil {
				a.close()
			}
			return nil
		},
		Commands: []*cli.Command{
			authCommand(withApp),
			cartCommand(withApp),
			catalogCommand(withApp),
			contentCommand(withApp),
			accountCommand(withApp),
		},
	}
}

type actionWrapper func(fn func(c *cli.Context, a *app) error) cli.ActionFunc
