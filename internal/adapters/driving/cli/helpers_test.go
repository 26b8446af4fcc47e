package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/adapters/driven/embedding/hash"
	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/memory"
	"github.com/KKaradi/syfhack10year/internal/connectors/filesystem"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	coreservices "github.com/KKaradi/syfhack10year/internal/core/services"
	"github.com/KKaradi/syfhack10year/internal/extractors/html"
	"github.com/KKaradi/syfhack10year/internal/postprocessors/chunker"
)

// execute runs the root command with args and returns everything written
// to stdout and stderr. Flag values are reset afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	resetFlags(rootCmd)
	clearContexts(rootCmd)
	services = nil

	t.Cleanup(func() {
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetErr(os.Stderr)
		rootCmd.SetIn(os.Stdin)
		rootCmd.SetArgs(nil)
		services = nil
		resetFlags(rootCmd)
		clearContexts(rootCmd)
	})

	err := Execute(context.Background())
	return out.String(), err
}

// clearContexts drops the contexts cobra keeps on commands between
// executions so each run inherits the root context.
func clearContexts(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil makes cobra inherit the parent context
	for _, c := range cmd.Commands() {
		clearContexts(c)
	}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

const fiservPage = `<!DOCTYPE html>
<html>
<head><title>Fiserv Payment Gateway</title></head>
<body>
    <div class="header">
        <p><strong>Document Type:</strong> Payment Processing</p>
        <p><strong>Owner:</strong> Payments Team</p>
    </div>
    <div class="section">
        <h2>Resources and Tools</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>Fiserv Payment API</h3>
                <p><strong>Type:</strong> API</p>
                <p><strong>Description:</strong> Card authorisation and settlement</p>
                <p><strong>Programming Languages:</strong> Java, Python</p>
            </li>
        </ul>
    </div>
    <div class="section">
        <h2>Databases</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>Transactions DB</h3>
                <p><strong>Type:</strong> PostgreSQL</p>
            </li>
        </ul>
    </div>
</body>
</html>`

const servicenowPage = `<!DOCTYPE html>
<html>
<head><title>ServiceNow Integration Guide</title></head>
<body>
    <div class="section">
        <h2>Resources and Tools</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>ServiceNow REST API</h3>
                <p><strong>Type:</strong> API</p>
                <p><strong>Description:</strong> Incident and change management API</p>
            </li>
            <li class="resource-item">
                <h3>Incident Bot</h3>
                <p><strong>Type:</strong> Service</p>
            </li>
        </ul>
    </div>
</body>
</html>`

// testStack is a fully wired set of services over a temporary corpus.
type testStack struct {
	corpusDir string
	configDir string
	services  *Services
	settings  *coreservices.SettingsService
	closed    int
}

// setupTestServices wires the real services over an in-memory index, the
// hash embedder and a temporary corpus, and installs a builder that
// returns them.
func setupTestServices(t *testing.T) *testStack {
	t.Helper()

	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "fiserv.html"), []byte(fiservPage), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "servicenow.html"), []byte(servicenowPage), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "notes.txt"), []byte("ignored"), 0o600))

	classifier, err := coreservices.NewClassifier(coreservices.DefaultRuleSet())
	require.NoError(t, err)

	extractor := html.New()
	corpus := func(root string) driven.CorpusSource {
		if root == "" {
			root = corpusDir
		}
		return filesystem.New(root)
	}

	stack := &testStack{
		corpusDir: corpusDir,
		settings:  coreservices.NewSettingsService(memory.NewConfigStore(nil), coreservices.WithLookupEnv(noEnv)),
	}
	stack.services = &Services{
		Retrieval: coreservices.NewRetrievalService(
			extractor,
			chunker.New(),
			hash.NewEmbeddingService(hash.DefaultDimensions),
			memory.NewVectorIndex(),
			memory.NewContextCache(),
			coreservices.RetrievalConfig{},
		),
		Risk:     classifier,
		Catalog:  coreservices.NewResourceCatalog(corpus(""), extractor),
		Settings: stack.settings,
		Corpus:   corpus,
		Close: func() error {
			stack.closed++
			return nil
		},
	}

	original := builder
	builder = func(_ context.Context, opts Options) (*Services, error) {
		stack.configDir = opts.ConfigDir
		return stack.services, nil
	}
	t.Cleanup(func() { builder = original })

	return stack
}

// emptyCorpus removes every document from the corpus directory.
func (s *testStack) emptyCorpus(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(s.corpusDir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, os.Remove(filepath.Join(s.corpusDir, e.Name())))
	}
}

func noEnv(string) (string, bool) { return "", false }

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
