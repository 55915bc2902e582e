// Command tourctl runs eligibility checks from the shell against the same
// cache and roster configuration as the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	service "github.com/okian/tourcheck/internal/app"
	"github.com/okian/tourcheck/internal/config"
	"github.com/okian/tourcheck/pkg/logger"
)

type metadata struct {
	svc     *service.Service
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tourctl"
	app.Usage = "check tour eligibility of players, matches and spreadsheets"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " log at debug level",
		},
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: " YAML configuration `FILE` (overrides TOURCHECK_CONFIG)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "player",
			Usage:     "check one or more players",
			ArgsUsage: "NAME [NAME...]",
			Action:    runPlayer,
		},
		{
			Name:  "match",
			Usage: "classify a match; doubles teams use \"A, B\"",
			Flags: matchFlags(),
			Action: func(c *cli.Context) error {
				return runMatch(c, false)
			},
		},
		{
			Name:  "status",
			Usage: "print WTA or nothing for a match",
			Flags: matchFlags(),
			Action: func(c *cli.Context) error {
				return runMatch(c, true)
			},
		},
		{
			Name:  "override",
			Usage: "pin a player's eligibility",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "name, n",
					Usage: "*player `NAME`",
				},
				cli.BoolTFlag{
					Name:  "eligible, e",
					Usage: " eligibility to store, use --eligible=false to exclude",
				},
				cli.StringFlag{
					Name:  "reason, r",
					Usage: " free text `REASON`",
				},
			},
			Action: runOverride,
		},
		{
			Name:  "rows",
			Usage: "fill the status column of a CSV export",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "in, i",
					Usage: " input `FILE`, default stdin",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: " output `FILE`, default stdout",
				},
			},
			Action: runRows,
		},
		{
			Name:      "explain",
			Usage:     "show how a first name is classified",
			ArgsUsage: "NAME",
			Action:    runExplain,
		},
		{
			Name:   "refresh",
			Usage:  "fetch the roster now",
			Action: runRefresh,
		},
		{
			Name:  "cache",
			Usage: "inspect and maintain the cache",
			Subcommands: []cli.Command{
				{
					Name:   "stats",
					Usage:  "print service statistics",
					Action: runStats,
				},
				{
					Name:   "clear",
					Usage:  "drop every entry",
					Action: runCacheClear,
				},
				{
					Name:   "cleanup",
					Usage:  "remove expired entries",
					Action: runCacheCleanup,
				},
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		if file := c.GlobalString("config"); file != "" {
			if err := os.Setenv(config.EnvFile, file); err != nil {
				return err
			}
		}
		ctx := context.Background()
		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}

		verbose := c.GlobalBool("verbose")
		if err := logger.InitWithFormat(c.App.ErrWriter, cfg.LogFormat); err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		} else if level == "info" {
			level = "warn"
		}
		if err := logger.SetLevelString(level); err != nil {
			return err
		}

		svc, err := service.New(service.FromConfig(cfg, logger.Named("tourctl"))...)
		if err != nil {
			return err
		}
		if err := svc.Start(ctx); err != nil {
			_ = svc.Close()
			return err
		}
		c.App.Metadata["config"] = &metadata{
			svc:     svc,
			verbose: verbose,
			e:       c.App.ErrWriter,
			w:       c.App.Writer,
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		m.svc.Stop(context.Background())
		return nil
	}
	return app
}

func matchFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "home, H",
			Usage: "*home side `PLAYERS`",
		},
		cli.StringFlag{
			Name:  "away, A",
			Usage: "*away side `PLAYERS`",
		},
	}
}

func meta(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}
