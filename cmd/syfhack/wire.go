package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/KKaradi/syfhack10year/internal/adapters/driven/ai"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/config/file"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/config/rules"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/badger"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/memory"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/sqlite"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/weaviate"
	"github.com/KKaradi/syfhack10year/internal/adapters/driving/cli"
	"github.com/KKaradi/syfhack10year/internal/connectors/filesystem"
	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/core/services"
	"github.com/KKaradi/syfhack10year/internal/extractors/html"
	"github.com/KKaradi/syfhack10year/internal/logger"
	"github.com/KKaradi/syfhack10year/internal/postprocessors/chunker"
	"github.com/KKaradi/syfhack10year/internal/telemetry"
)

// dataDirName is the default data directory inside the config directory.
const dataDirName = "data"

// cacheDirName is the context cache directory inside the data directory.
const cacheDirName = "cache"

// traceFlushTimeout bounds the final span export on close.
const traceFlushTimeout = 5 * time.Second

// closers releases adapters in reverse order of opening.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// wire builds the services for one command from the stored settings.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(store)

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var cl closers
	fail := func(err error) (*cli.Services, error) {
		if cerr := cl.close(); cerr != nil {
			logger.Warn("Releasing adapters: %v", cerr)
		}
		return nil, err
	}

	tp, shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:       opts.Trace,
		ServiceName:    "syfhack",
		ServiceVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("set up tracing: %w", err)
	}
	cl.add(func() error {
		flushCtx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
		defer cancel()
		return shutdown(flushCtx)
	})

	ruleSet := services.DefaultRuleSet()
	if settings.RulesPath != "" {
		ruleSet, err = rules.Load(filesystem.ResolvePath(settings.RulesPath), ruleSet)
		if err != nil {
			return fail(err)
		}
		logger.Debug("Loaded rules from %s", settings.RulesPath)
	}
	classifier, err := services.NewClassifier(ruleSet, services.WithTracerProvider(tp))
	if err != nil {
		return fail(fmt.Errorf("create classifier: %w", err))
	}

	extractor := html.New()
	corpus := func(root string) driven.CorpusSource {
		if root == "" {
			root = settings.CorpusPath
		}
		return filesystem.New(root)
	}

	svc := &cli.Services{
		Risk:     classifier,
		Catalog:  services.NewResourceCatalog(corpus(""), extractor),
		Settings: settingsSvc,
		Corpus:   corpus,
	}
	if opts.Offline {
		svc.Close = cl.close
		return svc, nil
	}

	if err := settingsSvc.Validate(); err != nil {
		return fail(err)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return fail(err)
	}
	cl.add(embedder.Close)
	logger.Debug("Embedding: %s (%d dimensions)", embedder.ModelName(), embedder.Dimensions())

	dataDir := settings.Index.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(filepath.Dir(store.Path()), dataDirName)
	}
	dataDir = filesystem.ResolvePath(dataDir)

	index, err := openIndex(ctx, settings, dataDir)
	if err != nil {
		return fail(err)
	}
	cl.add(index.Close)

	cache, err := openCache(settings, dataDir)
	if err != nil {
		return fail(err)
	}
	cl.add(cache.Close)

	svc.Retrieval = services.NewRetrievalService(
		extractor,
		chunker.New(),
		embedder,
		index,
		cache,
		services.RetrievalConfig{
			EmbedTimeout:   time.Duration(settings.Embedding.TimeoutSeconds) * time.Second,
			TracerProvider: tp,
		},
	)
	svc.Close = cl.close
	return svc, nil
}

func openIndex(ctx context.Context, settings *domain.AppSettings, dataDir string) (driven.VectorIndex, error) {
	switch settings.Index.Backend {
	case domain.IndexBackendMemory:
		return memory.NewVectorIndex(), nil
	case domain.IndexBackendSQLite:
		return sqlite.NewStore(dataDir)
	case domain.IndexBackendWeaviate:
		return weaviate.New(ctx, weaviate.Config{
			Host:        settings.Index.WeaviateHost,
			Scheme:      settings.Index.WeaviateScheme,
			ClassPrefix: settings.Index.WeaviateClass,
			Logger:      logger.Slog(),
		})
	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, settings.Index.Backend)
	}
}

// openCache keeps the context cache next to a persistent index and in
// memory otherwise. cache.dir overrides both.
func openCache(settings *domain.AppSettings, dataDir string) (driven.ContextCache, error) {
	cfg := badger.InMemoryConfig()
	switch {
	case settings.CacheDir != "":
		cfg = badger.DefaultConfig(filesystem.ResolvePath(settings.CacheDir))
	case settings.Index.Backend.IsPersistent():
		cfg = badger.DefaultConfig(filepath.Join(dataDir, cacheDirName))
	}
	cfg.Logger = logger.Slog()

	cache, err := badger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open context cache: %w", err)
	}
	return cache, nil
}
