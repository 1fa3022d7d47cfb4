package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/config"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func offlineConfig() *config.Config {
	cfg := config.Default()
	cfg.Embedding.Provider = "tfidf"
	cfg.LLM.Provider = "ollama"
	return cfg
}

func TestDefaultNeedsCredential(t *testing.T) {
	cfg := config.Default()
	gt.Error(t, cfg.Validate())

	cfg.Providers.OpenAIAPIKey = "sk-test"
	gt.NoError(t, cfg.Validate())
	gt.Equal(t, cfg.TopK, 3)
	gt.Equal(t, cfg.Corpus.Dataset, "adesouza1/soap_notes")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*config.Config)
		ok     bool
	}{
		{"offline defaults", func(*config.Config) {}, true},
		{"unknown embedder", func(c *config.Config) { c.Embedding.Provider = "bert" }, false},
		{"unknown llm", func(c *config.Config) { c.LLM.Provider = "tfidf" }, false},
		{"unknown store", func(c *config.Config) { c.VectorStore.Type = "faiss" }, false},
		{"zero k", func(c *config.Config) { c.TopK = 0 }, false},
		{"zero batch", func(c *config.Config) { c.Embedding.BatchSize = 0 }, false},
		{"page too large", func(c *config.Config) { c.Corpus.PageSize = 500 }, false},
		{"file source without path", func(c *config.Config) { c.Corpus.Source = "file" }, false},
		{"file source", func(c *config.Config) { c.Corpus.Source = "file"; c.Corpus.File = "corpus.json" }, true},
		{"gemini without key", func(c *config.Config) { c.LLM.Provider = "gemini" }, false},
		{"gemini with key", func(c *config.Config) { c.LLM.Provider = "gemini"; c.Providers.GeminiAPIKey = "k" }, true},
		{"bad sample rate", func(c *config.Config) { c.Tracing.SampleRate = 2 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := offlineConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.ok {
				gt.NoError(t, err)
			} else {
				gt.Error(t, err)
			}
		})
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
top_k: 5
server:
  shutdown_timeout: 3s
embedding:
  provider: tfidf
vector_store:
  type: qdrant
  qdrant_port: 7000
`)
	gt.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := config.Default()
	gt.NoError(t, cfg.LoadFile(path))

	gt.Equal(t, cfg.TopK, 5)
	gt.Equal(t, cfg.Server.ShutdownTimeout, 3*time.Second)
	gt.Equal(t, cfg.Embedding.Provider, "tfidf")
	gt.Equal(t, cfg.VectorStore.Type, "qdrant")
	gt.Equal(t, cfg.VectorStore.QdrantPort, 7000)
	// untouched keys keep their defaults
	gt.Equal(t, cfg.Server.Listen, ":8000")
	gt.Equal(t, cfg.VectorStore.QdrantHost, "localhost")
}

func TestLoadFileMissing(t *testing.T) {
	cfg := config.Default()
	gt.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func runCommand(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var (
		got    *config.Config
		cfgErr error
	)
	cmd := &cli.Command{
		Name:  "test",
		Flags: config.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			got, cfgErr = config.FromCommand(c)
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return got, cfgErr
}

func TestFromCommandPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("top_k: 7\nllm:\n  provider: ollama\n"), 0o600))

	t.Setenv("SOAP_EMBEDDING_PROVIDER", "tfidf")

	cfg, err := runCommand(t, "--config", path, "--top-k", "4", "--listen", ":9000")
	gt.NoError(t, err)
	gt.Equal(t, cfg.TopK, 4)
	gt.Equal(t, cfg.LLM.Provider, "ollama")
	gt.Equal(t, cfg.Embedding.Provider, "tfidf")
	gt.Equal(t, cfg.Server.Listen, ":9000")
	gt.Equal(t, cfg.Corpus.Source, "huggingface")
}

func TestFromCommandRejectsInvalid(t *testing.T) {
	t.Setenv("SOAP_EMBEDDING_PROVIDER", "tfidf")
	t.Setenv("SOAP_LLM_PROVIDER", "ollama")

	_, err := runCommand(t, "--vector-store", "faiss")
	gt.Error(t, err)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := offlineConfig()
	cfg.Providers.OpenAIAPIKey = "sk-very-secret"
	gt.S(t, cfg.String()).NotContains("sk-very-secret")
	gt.S(t, cfg.String()).Contains("openai_key=****")
	gt.S(t, cfg.String()).Contains("gemini_key=(unset)")
}
