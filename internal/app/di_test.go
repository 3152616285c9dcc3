package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellation/cloudview/internal/config"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityService "github.com/stellation/cloudview/internal/security/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// testConfig returns a configuration pointing at a throwaway storage
// directory with metrics disabled, suitable for exercising the container.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerHost:         "localhost",
		ServerPort:         8080,
		LogLevel:           "info",
		StorageDir:         t.TempDir(),
		SaveTimeout:        time.Second,
		TokenSigningSecret: "test-signing-secret",
		TokenTTL:           time.Hour,
		LockoutMaxAttempts: 5,
		LockoutDuration:    15 * time.Minute,
		RateLimitEnabled:   false,
		MetricsEnabled:     false,
		MetricsNamespace:   "cloudview",
		MetricsPort:        8081,
	}
}

// TestNewContainer verifies that a new container can be created with a valid configuration.
func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)

	container := NewContainer(cfg)

	if container == nil {
		t.Fatal("expected non-nil container")
	}

	if container.Config() != cfg {
		t.Error("container config does not match provided config")
	}
}

// TestContainerLogger verifies that the logger can be retrieved from the container.
func TestContainerLogger(t *testing.T) {
	cfg := &config.Config{
		LogLevel: "debug",
	}

	container := NewContainer(cfg)
	logger := container.Logger()

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	// Calling Logger() again should return the same instance (singleton)
	logger2 := container.Logger()
	if logger != logger2 {
		t.Error("expected same logger instance on multiple calls")
	}
}

// TestContainerLoggerDefaultLevel verifies that logger defaults to info level.
func TestContainerLoggerDefaultLevel(t *testing.T) {
	cfg := &config.Config{
		LogLevel: "invalid",
	}

	container := NewContainer(cfg)
	logger := container.Logger()

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

// TestContainerKeyWrapper verifies the wrapper is nil without a KMS key URI
// and opens a keeper when one is configured.
func TestContainerKeyWrapper(t *testing.T) {
	t.Run("no URI configured", func(t *testing.T) {
		container := NewContainer(testConfig(t))

		wrapper, err := container.KeyWrapper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wrapper != nil {
			t.Error("expected nil wrapper when KMS key URI is not configured")
		}
	})

	t.Run("local keeper URI", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KMSKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="

		container := NewContainer(cfg)

		wrapper, err := container.KeyWrapper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wrapper == nil {
			t.Fatal("expected non-nil wrapper")
		}
	})
}

// TestContainerEnvelopeCipher verifies that the cipher is built from freshly
// created key material on first run and reused afterwards.
func TestContainerEnvelopeCipher(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)

	cipher, err := container.EnvelopeCipher()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cipher == nil {
		t.Fatal("expected non-nil cipher")
	}

	// First run must have persisted the key material.
	if _, err := os.Stat(filepath.Join(cfg.StorageDir, securityService.SecretsFileName)); err != nil {
		t.Errorf("expected key material file to exist: %v", err)
	}

	cipher2, err := container.EnvelopeCipher()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cipher != cipher2 {
		t.Error("expected same cipher instance on multiple calls")
	}
}

// TestContainerEnvelopeCipherInvalidKeyMaterial verifies that unreadable key
// material aborts initialization and the error is cached.
func TestContainerEnvelopeCipherInvalidKeyMaterial(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.StorageDir, securityService.SecretsFileName)
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("failed to write key material: %v", err)
	}

	container := NewContainer(cfg)

	if _, err := container.EnvelopeCipher(); err == nil {
		t.Error("expected error for invalid key material")
	}
	if _, err := container.EnvelopeCipher(); err == nil {
		t.Error("expected error on second call")
	}
}

// TestContainerAPIKeyUseCase verifies the use case graph wires up and seeds
// the bootstrap key on an empty store.
func TestContainerAPIKeyUseCase(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)

	useCase, err := container.APIKeyUseCase()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := useCase.Init(ctx); err != nil {
		t.Fatalf("unexpected error from Init: %v", err)
	}

	records, err := useCase.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error from List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one bootstrap key, got %d", len(records))
	}
	if records[0].Username != "admin" {
		t.Errorf("expected bootstrap key for admin, got %q", records[0].Username)
	}

	// The seeded store must have been persisted to disk.
	if _, err := os.Stat(filepath.Join(cfg.StorageDir, "api-keys.json")); err != nil {
		t.Errorf("expected credential store file to exist: %v", err)
	}
}

// TestContainerSessionUseCase verifies the session use case depends on a
// working token service.
func TestContainerSessionUseCase(t *testing.T) {
	container := NewContainer(testConfig(t))

	useCase, err := container.SessionUseCase()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if useCase == nil {
		t.Fatal("expected non-nil session use case")
	}
}

// TestContainerHTTPServer verifies the API server initializes with routes.
func TestContainerHTTPServer(t *testing.T) {
	container := NewContainer(testConfig(t))

	server, err := container.HTTPServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server == nil {
		t.Fatal("expected non-nil http server")
	}

	routes := server.Router().Routes()
	if len(routes) == 0 {
		t.Error("expected routes to be registered")
	}
}

// TestContainerMetricsServer verifies the metrics server initializes with a provider.
func TestContainerMetricsServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = true

	container := NewContainer(cfg)

	server, err := container.MetricsServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server == nil {
		t.Fatal("expected non-nil metrics server")
	}
}

// TestContainerLazyInitialization verifies that components are only initialized when accessed.
func TestContainerLazyInitialization(t *testing.T) {
	container := NewContainer(testConfig(t))

	// At this point, no components should be initialized
	if container.logger != nil {
		t.Error("expected logger to be nil before first access")
	}

	// Access logger
	logger := container.Logger()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	// Now logger should be initialized
	if container.logger == nil {
		t.Error("expected logger to be initialized after access")
	}
}

// TestContainerShutdown verifies that the shutdown method can be called safely.
func TestContainerShutdown(t *testing.T) {
	container := NewContainer(testConfig(t))

	// Shutdown should not fail even if no components are initialized
	if err := container.Shutdown(context.TODO()); err != nil {
		t.Errorf("unexpected error during shutdown: %v", err)
	}
}

// TestContainerShutdownDrainsCredentialSaves verifies a validation's
// background save is flushed to disk before shutdown returns.
func TestContainerShutdownDrainsCredentialSaves(t *testing.T) {
	container := NewContainer(testConfig(t))

	useCase, err := container.APIKeyUseCase()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := useCase.Init(ctx); err != nil {
		t.Fatalf("unexpected error from Init: %v", err)
	}

	output, err := useCase.Create(ctx, &securityDomain.CreateAPIKeyInput{
		Username: "alice",
		Role:     securityDomain.RoleViewer,
	})
	if err != nil {
		t.Fatalf("unexpected error from Create: %v", err)
	}
	if _, err := useCase.Validate(ctx, output.PlainSecret); err != nil {
		t.Fatalf("unexpected error from Validate: %v", err)
	}

	if err := container.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected error during shutdown: %v", err)
	}

	repo, err := container.CredentialRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error loading store: %v", err)
	}
	for _, record := range table.Keys {
		if record.Username == "alice" && record.LastUsedAt == nil {
			t.Error("expected last-used timestamp to be persisted before shutdown")
		}
	}
}
