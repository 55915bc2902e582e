package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/okian/tourcheck/internal/adapters/rows"
)

func runPlayer(c *cli.Context) error {
	m := meta(c)
	ctx := context.Background()

	names := []string(c.Args())
	switch len(names) {
	case 0:
		return fmt.Errorf("at least one player name is required")
	case 1:
		v, err := m.svc.CheckPlayer(ctx, names[0])
		if err != nil {
			return err
		}
		return printJson(m.w, v)
	}
	out, err := m.svc.CheckPlayersBulk(ctx, names)
	if err != nil {
		return err
	}
	return printJson(m.w, out)
}

func runMatch(c *cli.Context, statusOnly bool) error {
	m := meta(c)
	ctx := context.Background()

	home, away := c.String("home"), c.String("away")
	if m.verbose {
		fmt.Fprintf(m.e, "home: %q\naway: %q\n", home, away)
	}
	if statusOnly {
		st, err := m.svc.Status(ctx, home, away)
		if err != nil {
			return err
		}
		fmt.Fprintln(m.w, st)
		return nil
	}
	res, err := m.svc.CheckMatch(ctx, home, away)
	if err != nil {
		return err
	}
	return printJson(m.w, res)
}

func runOverride(c *cli.Context) error {
	m := meta(c)
	v, err := m.svc.Override(context.Background(), c.String("name"), c.BoolT("eligible"), c.String("reason"))
	if err != nil {
		return err
	}
	return printJson(m.w, v)
}

// runRows processes the CSV in chunks of the configured row ceiling.
func runRows(c *cli.Context) error {
	m := meta(c)
	ctx := context.Background()

	var in io.Reader = os.Stdin
	if p := c.String("in"); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	header, records, err := rows.ReadCSV(in)
	if err != nil {
		return err
	}

	limit := m.svc.GetStats(ctx).Limits.Rows
	var (
		filled []rows.Row
		total  rows.Summary
	)
	for start := 0; start < len(records); start += limit {
		end := min(start+limit, len(records))
		out, sum, err := m.svc.ProcessRows(ctx, records[start:end])
		if err != nil {
			return err
		}
		filled = append(filled, out...)
		total.TotalProcessed += sum.TotalProcessed
		total.EligibleMatches += sum.EligibleMatches
		total.NonEligibleMatches += sum.NonEligibleMatches
	}

	var out io.Writer = m.w
	if p := c.String("out"); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := rows.WriteCSV(out, header, filled, m.svc.StatusField()); err != nil {
		return err
	}
	fmt.Fprintf(m.e, "processed: %d eligible: %d non-eligible: %d\n",
		total.TotalProcessed, total.EligibleMatches, total.NonEligibleMatches)
	return nil
}

func runExplain(c *cli.Context) error {
	m := meta(c)
	exp, err := m.svc.ExplainInference(context.Background(), c.Args().First())
	if err != nil {
		return err
	}
	return printJson(m.w, exp)
}

func runRefresh(c *cli.Context) error {
	m := meta(c)
	ctx := context.Background()
	if err := m.svc.RefreshRoster(ctx); err != nil {
		return err
	}
	return printJson(m.w, m.svc.GetStats(ctx).Roster)
}

func runStats(c *cli.Context) error {
	m := meta(c)
	return printJson(m.w, m.svc.GetStats(context.Background()))
}

func runCacheClear(c *cli.Context) error {
	m := meta(c)
	m.svc.ClearCache(context.Background())
	fmt.Fprintln(m.w, "cache cleared")
	return nil
}

func runCacheCleanup(c *cli.Context) error {
	m := meta(c)
	n := m.svc.CleanupCache(context.Background())
	fmt.Fprintf(m.w, "removed: %d\n", n)
	return nil
}
