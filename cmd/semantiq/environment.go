package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/blobsync"
	"github.com/kaveh8866/SemantIQ/internal/cache"
	"github.com/kaveh8866/SemantIQ/internal/catalog"
	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/dataset"
	"github.com/kaveh8866/SemantIQ/internal/execution"
	"github.com/kaveh8866/SemantIQ/internal/orchestration"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
	"github.com/kaveh8866/SemantIQ/internal/scoring"
	"github.com/kaveh8866/SemantIQ/internal/template"
	"github.com/spf13/cobra"
)

// envFile is looked up next to .semantiq.yaml.
const envFile = ".env"

func loadProject(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	dir, err := cmd.Flags().GetString("project-dir")
	if err != nil || dir == "" {
		dir = "."
	}
	pc, err := projectconfig.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return pc, nil
}

// environment holds the collaborators shared by the commands that execute
// benchmarks.
type environment struct {
	project  *projectconfig.ProjectConfig
	adapters *adapters.ProviderFactory
	catalog  *catalog.Catalog
	engine   *execution.Engine
	cache    *cache.Store
	logger   *slog.Logger
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	pc, err := loadProject(cmd)
	if err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(pc.Resolve(envFile), pc)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	logger.Debug("Loaded settings", "settings", settings, "root", pc.Root)

	factory := adapters.NewFactory(settings, adapters.WithLogger(logger))
	loader := dataset.NewFileLoader(pc.Resolve(pc.Paths.Datasets), catalog.BuiltinDatasets())
	prompts := template.NewRenderer(os.DirFS(pc.Resolve(pc.Paths.Prompts)), catalog.BuiltinPrompts())

	return &environment{
		project:  pc,
		adapters: factory,
		catalog:  catalog.New(pc.Resolve(pc.Paths.Benchmarks), loader, catalog.WithLogger(logger)),
		engine: execution.NewEngine(loader, prompts, factory, scoring.RegistryFactory{},
			execution.WithToolVersion(version),
			execution.WithLogger(logger),
		),
		cache:  cache.NewStore(pc.Resolve(pc.Paths.Cache)),
		logger: logger,
	}, nil
}

// pipeline builds an orchestrator writing under cfg.OutputOptions.BaseDir,
// resolved against the project root.
func (e *environment) pipeline(cfg *config.PipelineConfig, opts ...orchestration.PipelineOption) (*orchestration.Pipeline, *registry.Registry, error) {
	cfg.OutputOptions.BaseDir = e.project.Resolve(cfg.OutputOptions.BaseDir)
	reg := registry.New(runstore.New(cfg.OutputOptions.BaseDir), registry.WithLogger(e.logger))

	if cfg.OutputOptions.AzureBlob.Enabled() {
		pub, err := blobsync.New(cfg.OutputOptions.AzureBlob, blobsync.WithLogger(e.logger))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, orchestration.WithPublisher(pub))
	}

	opts = append(opts, orchestration.WithPipelineLogger(e.logger))
	return orchestration.NewPipeline(cfg, e.catalog, e.engine, e.cache, reg, opts...), reg, nil
}

func (e *environment) Close() {
	if err := e.adapters.Close(context.Background()); err != nil {
		e.logger.Debug("Closing adapters", "error", err)
	}
}
