package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vitalvas/typedoc/config"
	"github.com/vitalvas/typedoc/extensions/actions"
	"github.com/vitalvas/typedoc/extensions/jsonapi"
	"github.com/vitalvas/typedoc/extensions/laraveldata"
	"github.com/vitalvas/typedoc/extensions/paginate"
	"github.com/vitalvas/typedoc/extensions/querybuilder"
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/manifest"
	"github.com/vitalvas/typedoc/openapi"
)

// manifestLoadConcurrency bounds parallel manifest reads.
const manifestLoadConcurrency = 8

// Runner executes one generation run.
type Runner struct {
	Logger *slog.Logger
	// Stdout receives the document when no output path is configured.
	Stdout io.Writer
}

// Run loads the configuration and manifests, generates the document and
// writes it.
func (r *Runner) Run(ctx context.Context, opts GenerateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", uuid.NewString())
	start := time.Now()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Output != "" {
		cfg.Output.Path = opts.Output
	}
	if opts.Format != "" {
		cfg.Output.Format = opts.Format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := LoadManifests(ctx, opts.Manifests)
	if err != nil {
		return err
	}
	parser, err := manifest.NewParser(manifest.DefaultCacheSize)
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}
	src, err := manifest.NewSource(m, parser)
	if err != nil {
		return fmt.Errorf("build definitions: %w", err)
	}
	logger.Info("manifests loaded",
		"manifests", len(opts.Manifests),
		"classes", len(m.Classes),
		"routes", len(m.Routes),
		"cached_expressions", parser.Len(),
	)

	doc, diags := Generate(cfg, src, logger)
	for _, d := range diags.All() {
		logger.Warn("diagnostic", "severity", d.Severity.String(), "category", string(d.Category), "source", d.Source, "message", d.Message)
	}

	if err := writeDocument(doc, cfg.Output, r.Stdout); err != nil {
		return err
	}
	logger.Info("document generated",
		"paths", len(doc.Paths),
		"diagnostics", diags.Len(),
		"output", outputName(cfg.Output.Path),
		"duration", time.Since(start),
	)
	return nil
}

// LoadManifests reads the manifests concurrently and merges them in the
// given order.
func LoadManifests(ctx context.Context, paths []string) (*manifest.Manifest, error) {
	if len(paths) == 0 {
		return nil, errors.New("no manifest given")
	}
	loaded := make([]*manifest.Manifest, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(manifestLoadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			loaded[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := manifest.Merge(loaded...)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Generate wires every extension around src and generates the document.
// Pagination hooks are registered before the query builder hooks, which
// treat unknown builder methods as fluent.
func Generate(cfg *config.Config, src *manifest.Source, logger *slog.Logger) (*openapi.Document, *infer.Diagnostics) {
	diags := infer.NewDiagnostics()
	broker := infer.NewBroker(
		infer.WithBrokerLogger(logger),
		infer.WithDiagnostics(diags),
		infer.WithStrictContracts(cfg.Inference.Strict),
	)

	pages := paginate.New(cfg.Paginate.Extension())
	builders := querybuilder.New(
		querybuilder.WithCountSuffix(cfg.QueryBuilder.CountSuffix),
		querybuilder.WithExistsSuffix(cfg.QueryBuilder.ExistsSuffix),
	)
	data := laraveldata.New(cfg.Data.Extension())
	resources := jsonapi.New(cfg.JSONAPI.Extension())

	broker.Register(pages.Hooks()...).
		Register(builders.Hooks()...).
		Register(data.Hooks()...).
		Register(resources.Hooks()...)
	if len(cfg.Inference.Priority) > 0 {
		broker.Prioritize(cfg.Inference.Priority...)
	}

	idx := infer.NewIndex(src, broker, infer.WithIndexLogger(logger))
	resolver := infer.NewResolver(idx,
		infer.WithMaxDepth(cfg.Inference.MaxDepth),
		infer.WithResolverLogger(logger),
	)
	tr := openapi.NewTransformer(resolver, openapi.WithTransformerLogger(logger))
	requests := data.RequestTransformer(tr)
	tr.Register(pages.SchemaExtension()).
		Register(resources.SchemaExtensions(tr)...).
		Register(data.SchemaExtensions(tr)...).
		Register(requests)

	gen := openapi.NewGenerator(tr, cfg.Info.Document(), openapi.WithGeneratorLogger(logger))
	for _, url := range cfg.Info.Servers {
		gen.AddServer(openapi.Server{URL: url})
	}
	gen.AddParameterExtractor(pages.ParametersExtractor(), builders.ParametersExtractor(tr)).
		AppendOperationTransformer(requests).
		AddDocumentTransformer(data.NamesTransformer())
	actions.New(tr).Register(gen)

	return gen.Generate(src.Routes(resolver)), diags
}

func writeDocument(doc *openapi.Document, out config.OutputConfig, stdout io.Writer) error {
	if out.Path == "" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return openapi.Encode(stdout, doc, out.Format)
	}

	if dir := filepath.Dir(out.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(out.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := openapi.Encode(f, doc, out.Format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
