// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/stellation/cloudview/internal/config"
	apperrors "github.com/stellation/cloudview/internal/errors"
	"github.com/stellation/cloudview/internal/http"
	"github.com/stellation/cloudview/internal/metrics"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityHTTP "github.com/stellation/cloudview/internal/security/http"
	securityRepository "github.com/stellation/cloudview/internal/security/repository"
	securityService "github.com/stellation/cloudview/internal/security/service"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	keyWrapper      securityService.KeyWrapper
	keyStore        *securityService.FileKeyStore
	envelopeCipher  *securityService.EnvelopeCipher
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	secretService  securityService.SecretService
	tokenService   securityService.SessionTokenService
	eventLog       *securityService.EventLog
	lockoutTracker *securityService.LockoutTracker

	// Repositories
	credentialRepo securityUseCase.CredentialRepository

	// Use Cases
	apiKeyUseCase  securityUseCase.APIKeyUseCase
	sessionUseCase securityUseCase.SessionUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	keyWrapperInit      sync.Once
	keyStoreInit        sync.Once
	envelopeCipherInit  sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	secretServiceInit   sync.Once
	tokenServiceInit    sync.Once
	eventLogInit        sync.Once
	lockoutTrackerInit  sync.Once
	credentialRepoInit  sync.Once
	apiKeyUseCaseInit   sync.Once
	sessionUseCaseInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// KeyWrapper returns the KMS key wrapper, or nil when no KMS key URI is
// configured and the at-rest key is stored unwrapped.
func (c *Container) KeyWrapper() (securityService.KeyWrapper, error) {
	var err error
	c.keyWrapperInit.Do(func() {
		c.keyWrapper, err = c.initKeyWrapper()
		if err != nil {
			c.initErrors["keyWrapper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyWrapper"]; exists {
		return nil, storedErr
	}
	return c.keyWrapper, nil
}

// KeyStore returns the file-backed key store for the at-rest encryption key.
func (c *Container) KeyStore() (*securityService.FileKeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore()
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// EnvelopeCipher returns the cipher protecting the credential store at rest.
// It loads the persisted key material, creating it on first run.
func (c *Container) EnvelopeCipher() (*securityService.EnvelopeCipher, error) {
	var err error
	c.envelopeCipherInit.Do(func() {
		c.envelopeCipher, err = c.initEnvelopeCipher()
		if err != nil {
			c.initErrors["envelopeCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeCipher"]; exists {
		return nil, storedErr
	}
	return c.envelopeCipher, nil
}

// MetricsProvider returns the metrics provider instance.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled it returns a no-op implementation.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// SecretService returns the secret service for API key generation and hashing.
func (c *Container) SecretService() securityService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = securityService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the session token service.
func (c *Container) TokenService() (securityService.SessionTokenService, error) {
	var err error
	c.tokenServiceInit.Do(func() {
		c.tokenService, err = securityService.NewSessionTokenService(c.config.TokenSigningSecret, c.Logger())
		if err != nil {
			c.initErrors["tokenService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenService"]; exists {
		return nil, storedErr
	}
	return c.tokenService, nil
}

// EventLog returns the security event log backed by the structured logger.
func (c *Container) EventLog() *securityService.EventLog {
	c.eventLogInit.Do(func() {
		c.eventLog = securityService.NewEventLog(securityService.NewSlogSink(c.Logger()))
	})
	return c.eventLog
}

// LockoutTracker returns the failed-authentication lockout tracker.
func (c *Container) LockoutTracker() *securityService.LockoutTracker {
	c.lockoutTrackerInit.Do(func() {
		c.lockoutTracker = securityService.NewLockoutTracker(
			c.config.LockoutMaxAttempts,
			c.config.LockoutDuration,
			c.EventLog(),
		)
	})
	return c.lockoutTracker
}

// CredentialRepository returns the encrypted credential repository. When the
// storage directory is unusable it falls back to an in-memory repository so
// the server can still come up, at the cost of losing keys on restart.
func (c *Container) CredentialRepository() (securityUseCase.CredentialRepository, error) {
	var err error
	c.credentialRepoInit.Do(func() {
		c.credentialRepo, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepo"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// APIKeyUseCase returns the API key use case instance.
func (c *Container) APIKeyUseCase() (securityUseCase.APIKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initAPIKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// SessionUseCase returns the session use case instance.
func (c *Container) SessionUseCase() (securityUseCase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// HTTPServer returns the API server with all routes registered.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Drain background credential saves once no more requests are served.
	if c.apiKeyUseCase != nil {
		if err := c.apiKeyUseCase.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api key use case close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keyWrapper != nil {
		if err := c.keyWrapper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("key wrapper close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initKeyWrapper opens the configured KMS keeper, or returns nil when no key
// URI is set.
func (c *Container) initKeyWrapper() (securityService.KeyWrapper, error) {
	if c.config.KMSKeyURI == "" {
		return nil, nil
	}

	wrapper, err := securityService.NewKMSKeyWrapper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS key wrapper: %w", err)
	}
	return wrapper, nil
}

// initKeyStore creates the file key store under the storage directory.
func (c *Container) initKeyStore() (*securityService.FileKeyStore, error) {
	wrapper, err := c.KeyWrapper()
	if err != nil {
		return nil, fmt.Errorf("failed to get key wrapper for key store: %w", err)
	}

	if err := os.MkdirAll(c.config.StorageDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %q: %w", c.config.StorageDir, err)
	}

	return securityService.NewFileKeyStore(c.config.StorageDir, wrapper), nil
}

// initEnvelopeCipher loads the at-rest key material and builds the cipher.
// Missing key material is created and persisted on first run; invalid key
// material aborts startup so an operator can inspect the file.
func (c *Container) initEnvelopeCipher() (*securityService.EnvelopeCipher, error) {
	keyStore, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for envelope cipher: %w", err)
	}

	ctx := context.Background()
	material, err := keyStore.Load(ctx)
	switch {
	case err == nil:
	case apperrors.Is(err, securityDomain.ErrKeyMaterialNotFound):
		c.Logger().Info("key material not found, generating a new encryption key",
			slog.String("storage_dir", c.config.StorageDir),
		)
		material, err = keyStore.CreateAndPersist(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create key material: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load key material: %w", err)
	}

	cipher, err := securityService.NewEnvelopeCipher(material.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create envelope cipher: %w", err)
	}
	return cipher, nil
}

// initBusinessMetrics creates the business metrics recorder from the provider,
// or a no-op recorder when metrics are disabled.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initCredentialRepository creates the file-backed credential repository,
// degrading to in-memory storage when the storage directory is unusable.
func (c *Container) initCredentialRepository() (securityUseCase.CredentialRepository, error) {
	cipher, err := c.EnvelopeCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope cipher for credential repository: %w", err)
	}

	if err := os.MkdirAll(c.config.StorageDir, 0o700); err != nil {
		c.Logger().Warn("storage directory is unusable, falling back to in-memory credential storage",
			slog.String("storage_dir", c.config.StorageDir),
			slog.String("error", err.Error()),
		)
		return securityRepository.NewMemoryCredentialRepository(), nil
	}

	return securityRepository.NewFileCredentialRepository(c.config.StorageDir, cipher), nil
}

// initAPIKeyUseCase creates the API key use case with all its dependencies.
func (c *Container) initAPIKeyUseCase() (securityUseCase.APIKeyUseCase, error) {
	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for api key use case: %w", err)
	}

	useCase := securityUseCase.NewAPIKeyUseCase(
		credentialRepo,
		c.SecretService(),
		c.LockoutTracker(),
		c.EventLog(),
		c.Logger(),
		c.config.SaveTimeout,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
	}

	return securityUseCase.NewAPIKeyUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initSessionUseCase creates the session use case with all its dependencies.
func (c *Container) initSessionUseCase() (securityUseCase.SessionUseCase, error) {
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for session use case: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for session use case: %w", err)
	}

	useCase := securityUseCase.NewSessionUseCase(apiKeyUseCase, tokenService, c.config.TokenTTL)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}

	return securityUseCase.NewSessionUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initHTTPServer creates the API server and registers the security routes.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for http server: %w", err)
	}

	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for http server: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for http server: %w", err)
	}

	// Readiness means the credential store is reachable and decryptable.
	// A missing store is fine: Init seeds it on startup.
	ready := func(ctx context.Context) error {
		if _, err := credentialRepo.Load(ctx); err != nil &&
			!apperrors.Is(err, securityDomain.ErrStoreNotFound) {
			return err
		}
		return nil
	}

	server := http.NewServer(
		c.config.ServerHost,
		c.config.ServerPort,
		logger,
		c.config.CORSEnabled,
		c.config.CORSAllowOrigins,
		ready,
	)

	// Request metrics must be attached before the routes are registered.
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		server.Router().Use(metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace))
	}

	routeConfig := securityHTTP.RouteConfig{}
	if c.config.RateLimitEnabled {
		routeConfig.RateLimitRPS = c.config.RateLimitRequestsPerSec
		routeConfig.RateLimitBurst = c.config.RateLimitBurst
	}
	securityHTTP.RegisterRoutes(server.Router(), apiKeyUseCase, sessionUseCase, c.EventLog(), logger, routeConfig)

	return server, nil
}

// initMetricsServer creates the metrics server with the Prometheus handler.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
