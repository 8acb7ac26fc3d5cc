package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/logiclm/internal/embedding"
	"github.com/cognicore/logiclm/internal/llm"
	"github.com/cognicore/logiclm/internal/logging"
	"github.com/cognicore/logiclm/pkg/logiclm"
	"github.com/cognicore/logiclm/pkg/logiclm/config"
	"github.com/cognicore/logiclm/pkg/logiclm/inference/naive"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/kb"
	"github.com/cognicore/logiclm/pkg/logiclm/retrieve"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
	"github.com/cognicore/logiclm/pkg/logiclm/store/memstore"
	"github.com/cognicore/logiclm/pkg/logiclm/store/sqlite"
)

// newCompleter builds the model client. Tests replace it.
var newCompleter = func(cfg config.Config) (llm.Completer, error) {
	timeout, err := cfg.LLMTimeout()
	if err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key (set OPENAI_API_KEY or llm.api_key)", internalerr.ErrInvalidConfig)
	}
	return &llm.Client{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		HTTPClient:  &http.Client{Timeout: timeout},
	}, nil
}

// newEmbedder builds the embeddings client. Tests replace it.
var newEmbedder = func(cfg config.Config) retrieve.Embedder {
	return &embedding.Client{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}
}

// env is what a command run needs, built from flags and config.
type env struct {
	opts   *RootOptions
	cfg    config.Config
	comp   *config.Components
	logger *zap.Logger
	out    *OutputFormatter
}

func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
	comp, err := (&config.Loader{ConfigPath: opts.ConfigPath, Required: opts.ConfigSet}).Load()
	if err != nil {
		return nil, out.Fail(WrapExitError(ExitCommandError, "load config", err))
	}
	return &env{
		opts:   opts,
		cfg:    comp.Config,
		comp:   comp,
		logger: logging.New(opts.Verbose, cmd.ErrOrStderr()),
		out:    out,
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

// openStore opens the configured database. An empty path keeps runs in
// memory for the duration of the command.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	if e.cfg.DBPath == "" {
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(ctx, e.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.cfg.DBPath, err)
	}
	return st, nil
}

func (e *env) loadKB() (*kb.KB, error) {
	if e.cfg.KBPath == "" {
		return nil, fmt.Errorf("%w: no knowledge base (set kb_path or LOGICLM_KB)", internalerr.ErrInvalidConfig)
	}
	return kb.Load(e.cfg.KBPath)
}

// retriever picks vector retrieval when an embeddings endpoint is configured
// and lexical retrieval otherwise.
func (e *env) retriever(k *kb.KB, st store.Store) retrieve.Retriever {
	if e.cfg.Embedding.BaseURL != "" {
		return &retrieve.Vector{
			Embedder: newEmbedder(e.cfg),
			Store:    st,
			Source:   k.Source,
			Logger:   e.logger,
		}
	}
	return retrieve.NewLexical(k.Source, k.Lines(), e.comp.Tokenizer)
}

func (e *env) engine(maxCombinations int) *naive.Engine {
	if maxCombinations <= 0 {
		maxCombinations = e.cfg.MaxCombinations
	}
	return naive.New(naive.WithLogger(e.logger), naive.WithMaxCombinations(maxCombinations))
}

// pipeline builds the facade for commands that talk to the model.
func (e *env) pipeline(ctx context.Context, withKB bool) (*logiclm.LogicLM, error) {
	completer, err := newCompleter(e.cfg)
	if err != nil {
		return nil, err
	}
	st, err := e.openStore(ctx)
	if err != nil {
		return nil, err
	}
	opts := logiclm.Options{
		Completer: completer,
		Engine:    e.engine(0),
		Store:     st,
		TopK:      e.cfg.TopK,
		Logger:    e.logger,
	}
	if withKB {
		k, err := e.loadKB()
		if err != nil {
			st.Close()
			return nil, err
		}
		opts.KB = k
		opts.Retriever = e.retriever(k, st)
	}
	return logiclm.New(opts), nil
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
