/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/config"
	"github.com/suparena/entitycache/logging"
	"github.com/suparena/entitycache/metrics"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/repository"
)

const usage = `usage: entitycache [flags] <command>

commands:
  create    create the configured project
  inspect   print the contents of the configured project
  erase     remove the configured project from its store
  config    print the effective configuration

flags:
`

var (
	configFlag  = flag.String("config", "entitycache.yaml", "Path of the YAML configuration file")
	projectFlag = flag.String("project", "", "Project name, overrides the configuration")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag || *vFlag {
		info := entitycache.GetVersionInfo()
		fmt.Printf("entitycache version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *projectFlag != "" {
		cfg.Project = *projectFlag
	}
	logger, err := logging.Console(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), flag.Arg(0), cfg, logger, os.Stdout); err != nil {
		logger.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		os.Exit(1)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.WriteText(os.Stderr, prometheus.DefaultGatherer); err != nil {
			logger.Warn().Err(err).Msg("write metrics")
		}
	}
}

func run(ctx context.Context, command string, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	if command == "config" {
		_, err := fmt.Fprint(out, cfg.String())
		return err
	}

	repo, ds, err := entitycache.NewRepository(ctx, entitycache.DefaultBackends(), cfg, logger)
	if err != nil {
		return err
	}
	defer ds.Close()

	switch command {
	case "create":
		if err := repo.Create(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "created project %q in %s store\n", cfg.Project, ds.Name())
		return repo.Close(ctx)
	case "inspect":
		if err := repo.Open(ctx); err != nil {
			return err
		}
		defer repo.Close(ctx)
		return inspect(ctx, repo, out)
	case "erase":
		if err := repo.Erase(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "erased project %q\n", cfg.Project)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func inspect(ctx context.Context, repo *repository.Repository, out io.Writer) error {
	project, err := repo.GetProject()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "project %s (version %d)\n", project.Name, repo.Version())

	designs, err := repo.GetDesigns(ctx)
	if err != nil {
		return err
	}
	for _, d := range designs {
		fmt.Fprintf(out, "  design %s: %d styles\n", d.Name, len(d.Styles()))
	}

	templates, err := repo.GetTemplates(ctx)
	if err != nil {
		return err
	}
	for _, t := range templates {
		fmt.Fprintf(out, "  template %s: %d model mappings\n", t.Name, len(t.ModelMappings()))
	}

	diagrams, err := repo.GetDiagrams(ctx)
	if err != nil {
		return err
	}
	for _, d := range diagrams {
		shapes, err := repo.GetDiagramShapes(ctx, d)
		if err != nil {
			return err
		}
		n := 0
		for _, s := range shapes {
			s.Walk(func(*model.Shape) { n++ })
		}
		fmt.Fprintf(out, "  diagram %s: %d shapes\n", d.Name, n)
	}

	objects, err := repo.GetModelObjects(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %d top-level model objects\n", len(objects))
	return nil
}
