package config

import "testing"

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
			Budget: BudgetConfig{
				DailyTokenLimit: 1000000,
				Action:          "invalid_action",
			},
		},
		VectorStore: VectorStoreConfig{Type: "file", Path: "data/vectorstore"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Embedding: EmbeddingConfig{
					Model:  "text-embedding-3-small",
					Budget: BudgetConfig{Action: action},
				},
				VectorStore: VectorStoreConfig{Type: "file", Path: "data/vectorstore"},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 0},
		Embedding:   EmbeddingConfig{Model: "text-embedding-3-small"},
		VectorStore: VectorStoreConfig{Type: "file", Path: "data/vectorstore"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingEmbeddingModel(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		VectorStore: VectorStoreConfig{Type: "file", Path: "data/vectorstore"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_InvalidVectorStoreType(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Embedding:   EmbeddingConfig{Model: "text-embedding-3-small"},
		VectorStore: VectorStoreConfig{Type: "redis", Path: "data/vectorstore"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-file vector store type")
	}
}

func TestValidate_InvalidSimilarityThreshold(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Embedding:   EmbeddingConfig{Model: "text-embedding-3-small"},
		VectorStore: VectorStoreConfig{Type: "file", Path: "data/vectorstore"},
		Cache:       CacheConfig{SimilarityThreshold: 1.5},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for out-of-range similarity threshold")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownTimeout != 10 {
		t.Errorf("expected ShutdownTimeout=10, got %d", cfg.HTTP.ShutdownTimeout)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected Provider=openai, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected Model=text-embedding-3-small, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("expected Dimension=1536, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Embedding.Budget.Action != "warn" {
		t.Errorf("expected Budget.Action=warn, got %q", cfg.Embedding.Budget.Action)
	}
	if cfg.VectorStore.Type != "file" {
		t.Errorf("expected VectorStore.Type=file, got %q", cfg.VectorStore.Type)
	}
	if cfg.VectorStore.Path != "data/vectorstore" {
		t.Errorf("expected VectorStore.Path=data/vectorstore, got %q", cfg.VectorStore.Path)
	}
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("expected Cache.TTLSeconds=3600, got %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("expected Cache.MaxSize=1000, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Cache.SimilarityThreshold != 0.92 {
		t.Errorf("expected Cache.SimilarityThreshold=0.92, got %f", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Logging.Level=info, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 9090, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownTimeout: 5},
		Embedding: EmbeddingConfig{
			Provider: "azure", Model: "custom-model", Dimension: 3072,
			Budget: BudgetConfig{Action: "reject"},
		},
		VectorStore: VectorStoreConfig{Type: "file", Path: "/data/custom"},
		Cache:       CacheConfig{TTLSeconds: 60, MaxSize: 50, SimilarityThreshold: 0.8},
		Logging:     LoggingConfig{Level: "debug"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.Provider != "azure" {
		t.Errorf("expected Provider=azure, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension != 3072 {
		t.Errorf("expected Dimension=3072, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Embedding.Budget.Action != "reject" {
		t.Errorf("expected Budget.Action=reject, got %q", cfg.Embedding.Budget.Action)
	}
	if cfg.VectorStore.Path != "/data/custom" {
		t.Errorf("expected VectorStore.Path=/data/custom, got %q", cfg.VectorStore.Path)
	}
	if cfg.Cache.SimilarityThreshold != 0.8 {
		t.Errorf("expected Cache.SimilarityThreshold=0.8, got %f", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level=debug, got %q", cfg.Logging.Level)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RCI_TEST_VAR", "hello")

	in := []byte("value: ${RCI_TEST_VAR}\nother: ${RCI_UNSET_VAR:-fallback}\n")
	out := expandEnvVars(in)

	want := "value: hello\nother: fallback\n"
	if string(out) != want {
		t.Errorf("expandEnvVars() = %q, want %q", out, want)
	}
}
