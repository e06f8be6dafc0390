package hooks

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/mgrep-hook/pkg/binaries"
	"github.com/jingkaihe/mgrep-hook/pkg/config"
	"github.com/jingkaihe/mgrep-hook/pkg/filter"
	"github.com/jingkaihe/mgrep-hook/pkg/logger"
	"github.com/jingkaihe/mgrep-hook/pkg/mgrep"
	"github.com/jingkaihe/mgrep-hook/pkg/pathutil"
	"github.com/jingkaihe/mgrep-hook/pkg/telemetry"
)

// BinaryResolver locates the mgrep invocation prefix.
type BinaryResolver interface {
	Resolve(ctx context.Context) (binaries.Invocation, error)
}

// Handler runs the Grep interception pipeline for one payload.
type Handler struct {
	cfg        config.Config
	runner     mgrep.Runner
	resolver   BinaryResolver
	getwd      func() (string, error)
	fileExists func(string) bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRunner replaces the process runner.
func WithRunner(r mgrep.Runner) HandlerOption {
	return func(h *Handler) { h.runner = r }
}

// WithBinaryResolver replaces the binary resolver.
func WithBinaryResolver(r BinaryResolver) HandlerOption {
	return func(h *Handler) { h.resolver = r }
}

// WithGetwd replaces os.Getwd for the workspace fallback.
func WithGetwd(fn func() (string, error)) HandlerOption {
	return func(h *Handler) { h.getwd = fn }
}

// WithFileExists replaces the token file existence check.
func WithFileExists(fn func(string) bool) HandlerOption {
	return func(h *Handler) { h.fileExists = fn }
}

// NewHandler creates a handler for cfg. Defaults run the real mgrep
// resolved from cfg.
func NewHandler(cfg config.Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:        cfg,
		runner:     mgrep.NewExecRunner(cfg.Timeout),
		resolver:   binaries.NewResolver(cfg.Bin, cfg.PluginRoot),
		getwd:      os.Getwd,
		fileExists: fileExists,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run reads one payload from stdin, writes a deny response to stderr when
// mgrep answered, and returns the process exit status. Skips are logged
// and never produce output.
func (h *Handler) Run(ctx context.Context, stdin io.Reader, stderr io.Writer) int {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to read hook input")
		return ExitAllow
	}

	var resp *HookResponse
	err = telemetry.WithSpan(ctx, "hook.run", func(ctx context.Context) error {
		var err error
		resp, err = h.Handle(ctx, raw)
		return err
	})
	if err != nil {
		logSkip(ctx, err)
		return ExitAllow
	}

	if err := resp.Write(stderr); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to emit hook response")
		return ExitAllow
	}
	return ExitDeny
}

// Handle turns a raw payload into a deny response, or returns the reason
// the original call should proceed.
func (h *Handler) Handle(ctx context.Context, raw []byte) (*HookResponse, error) {
	req, err := DecodeRequest(raw)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("tool_name", req.ToolName))
	telemetry.SetAttributes(ctx, attribute.String("tool.name", req.ToolName))

	search, err := ParseSearchRequest(req, h.cfg.MaxResults)
	if err != nil {
		return nil, err
	}

	if h.cfg.Disabled {
		return nil, errors.Wrapf(ErrPrecondition, "%s is set", config.EnvVar(config.KeyDisable))
	}
	if !h.fileExists(h.cfg.TokenFile) {
		return nil, errors.Wrapf(ErrPrecondition, "no token file at %s", h.cfg.TokenFile)
	}

	inv, err := h.resolver.Resolve(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrPrecondition, err.Error())
	}

	workspace, err := pathutil.ResolveWorkspace(req.CWD, h.getwd)
	if err != nil {
		return nil, errors.Wrap(ErrPrecondition, err.Error())
	}
	scope, err := pathutil.ResolveScope(search.Path, workspace)
	if err != nil {
		return nil, errors.Wrap(ErrPrecondition, err.Error())
	}

	cmd := mgrep.BuildCommand(inv.Prefix, mgrep.SearchOptions{
		Pattern:         search.Pattern,
		CaseInsensitive: search.CaseInsensitive,
		MaxResults:      search.MaxResults,
		Store:           h.cfg.Store,
		Scope:           pathutil.CLIArg(scope, workspace),
	}, workspace)

	log := logger.G(ctx).WithFields(logrus.Fields{
		"command": cmd.String(),
		"cwd":     workspace,
	})
	log.Info("running mgrep")
	telemetry.SetAttributes(ctx,
		attribute.String("mgrep.source", string(inv.Source)),
		attribute.Int("mgrep.max_results", search.MaxResults),
		attribute.String("mgrep.output_mode", string(search.OutputMode)),
		attribute.Int("mgrep.glob_count", len(search.GlobPatterns)),
	)

	stdout, err := h.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	lines := filter.SplitLines(stdout)
	matched := filter.FilterByGlob(lines, filter.NewMatcher(search.GlobPatterns), workspace)
	shaped := filter.Shape(matched, search.OutputMode, workspace)

	log.WithFields(logrus.Fields{
		"lines":    len(lines),
		"matched":  len(matched),
		"reported": len(shaped),
	}).Info("mgrep completed")
	telemetry.AddEvent(ctx, "mgrep.completed",
		attribute.Int("lines", len(lines)),
		attribute.Int("reported", len(shaped)),
	)

	text := BuildContext(search.Pattern, pathutil.DescribeScope(scope, workspace), shaped)
	return NewDenyResponse(text), nil
}

func logSkip(ctx context.Context, err error) {
	log := logger.G(ctx).WithField("reason", err.Error())
	switch {
	case errors.Is(err, ErrNotApplicable):
		log.Debug("skipping request")
	case errors.Is(err, ErrPrecondition):
		log.Info("skipping mgrep")
	case errors.Is(err, mgrep.ErrUnavailable):
		log.Warn("mgrep failed; allowing original call")
	default:
		log.Error("unexpected hook failure; allowing original call")
	}
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
