// Command kinforge generates characters and grows family trees around them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/kinforge/internal/api"
	"github.com/talgya/kinforge/internal/config"
	"github.com/talgya/kinforge/internal/entropy"
	"github.com/talgya/kinforge/internal/family"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/persistence"
	"github.com/talgya/kinforge/internal/template"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	if cfg.Port > 0 {
		err = serve(cfg)
	} else {
		err = run(cfg, os.Stdout)
	}
	if err != nil {
		slog.Error("kinforge failed", "error", err)
		os.Exit(1)
	}
}

// setup loads the template and opens the database when one is configured.
func setup(cfg config.Config) (*template.Template, family.Blueprint, *persistence.DB, error) {
	tpl, err := template.Load(cfg.Template)
	if err != nil {
		return nil, family.Blueprint{}, nil, err
	}
	bp, err := tpl.Blueprint()
	if err != nil {
		return nil, family.Blueprint{}, nil, fmt.Errorf("template %s: %w", tpl.Name, err)
	}
	slog.Info("template loaded", "name", tpl.Name, "genders", len(tpl.Genders), "races", len(tpl.Races))

	if cfg.DBPath == "" {
		return tpl, bp, nil, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, family.Blueprint{}, nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, family.Blueprint{}, nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath)
	return tpl, bp, db, nil
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(cfg config.Config) error {
	tpl, bp, db, err := setup(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	srv := &api.Server{
		Template:  tpl.Name,
		Blueprint: bp,
		Names:     names.NewLibrary(cfg.NamesDir),
		Settings:  cfg.Settings(),
		DB:        db,
		Port:      cfg.Port,
		AdminKey:  cfg.AdminKey,
		MaxDepth:  cfg.MaxDepth,
		Origins:   cfg.CORSOrigins,
	}
	if cfg.AdminKey == "" {
		slog.Warn("KINFORGE_ADMIN_KEY not set, saving over HTTP is disabled")
	}
	srv.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func run(cfg config.Config, out io.Writer) error {
	tpl, bp, db, err := setup(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
		slog.Info("using random seed", "seed", seed)
	}

	// ── Families ──────────────────────────────────────────────────────
	lib := names.NewLibrary(cfg.NamesDir)
	for i := range cfg.Count {
		runSeed := seed + int64(i)
		gen := family.New(bp, lib, entropy.New(runSeed), cfg.Settings())
		subject, err := gen.NewSubject()
		if err != nil {
			return fmt.Errorf("generate subject: %w", err)
		}
		added, err := gen.AddFamily(subject.ID, cfg.Depth, cfg.ImmediateOnly)
		if err != nil {
			return fmt.Errorf("generate family of %s: %w", subject.Name.Full(), err)
		}

		fmt.Fprintf(out, "\n%s family (seed %d): %s relatives\n",
			humanize.Ordinal(i+1), runSeed, humanize.Comma(int64(len(added))))
		printTree(out, gen.Graph(), subject.ID)

		if db != nil {
			id, err := db.SaveFamily("", gen.Graph(), persistence.Meta{Seed: runSeed, Template: tpl.Name, Subject: subject.ID})
			if err != nil {
				return fmt.Errorf("save family: %w", err)
			}
			fmt.Fprintf(out, "saved as %s\n", id)
		}
	}
	return nil
}

func printTree(out io.Writer, g *kin.Graph, root kin.ID) {
	rels := g.Catalog().Tree()
	g.Walk(root, func(c *kin.Character, depth int) {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", depth))
		name := c.Name.Full()
		if name == "" {
			name = "(unnamed)"
		}
		b.WriteString(name)

		var facts []string
		if depth > 0 {
			facts = append(facts, rels.Node(c.Relationship).Name)
		}
		if years, ok := c.Age(); ok {
			facts = append(facts, fmt.Sprintf("%d", years))
		}
		if gi, ok := c.Gender(); ok {
			facts = append(facts, gi.Name)
		}
		if races := c.Races(); len(races) > 0 {
			facts = append(facts, strings.Join(races, "/"))
		}
		if len(facts) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(facts, ", "))
		}
		if traits := c.Traits(); len(traits) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(traits, "; "))
		}
		fmt.Fprintln(out, b.String())
	})
}
