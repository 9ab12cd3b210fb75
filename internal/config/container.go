package config

import (
	"fmt"

	"lector-reader/internal/domain"
	"lector-reader/internal/infra/supabase"
	"lector-reader/internal/repository"
	"lector-reader/internal/service"
	"lector-reader/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	SessionRepository      domain.ReadingSessionRepository
	ProgressRepository     domain.ReadingProgressRepository
	AnnotationRepository   domain.AnnotationRepository
	SubscriptionRepository domain.SubscriptionRepository
	AccountRepository      domain.AccountRepository
	// AdminAccountRepository writes account flags for support tooling. Nil
	// when no service role key is configured.
	AdminAccountRepository domain.AccountRepository

	AuthService        domain.AuthService
	EntitlementService domain.EntitlementService
	SessionService     domain.ReadingSessionService
	ProgressService    domain.ReadingProgressService
	DashboardService   domain.ReadingDashboardService
	AnnotationService  domain.AnnotationService
}

// NewContainer creates a new dependency injection container. Without
// Supabase credentials every table lives in memory and bearer tokens are
// read as user ids.
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	if SupabaseConfigured(cfg) {
		if err := c.wireSupabase(); err != nil {
			return nil, err
		}
	} else {
		appLogger.Warn("Supabase not configured, using in-memory storage and development tokens")
		c.wireMemory(repository.NewMemoryStore())
	}

	c.wireServices()
	return c, nil
}

// NewContainerWithStore wires the services on top of an in-memory store.
func NewContainerWithStore(cfg domain.Config, appLogger domain.Logger, store *repository.MemoryStore) *Container {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}
	c.wireMemory(store)
	c.wireServices()
	return c
}

func (c *Container) wireSupabase() error {
	client := supabase.NewSupabaseClient(c.Config, c.Logger)
	if err := client.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize supabase: %w", err)
	}
	c.SupabaseClient = client

	c.SessionRepository = repository.NewReadingSessionRepository(client, c.Logger)
	c.ProgressRepository = repository.NewReadingProgressRepository(client, c.Logger)
	c.AnnotationRepository = repository.NewAnnotationRepository(client, c.Logger)
	c.SubscriptionRepository = repository.NewSubscriptionRepository(client, c.Logger)
	c.AccountRepository = repository.NewAccountRepository(client, c.Logger)

	if c.Config.GetSupabaseServiceRoleKey() != "" {
		adminClient := supabase.NewServiceRoleClient(c.Config, c.Logger)
		if err := adminClient.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize supabase service role client: %w", err)
		}
		c.AdminAccountRepository = repository.NewAccountRepository(adminClient, c.Logger)
	}
	return nil
}

func (c *Container) wireMemory(store *repository.MemoryStore) {
	c.SupabaseClient = supabase.NewDevClient()
	c.SessionRepository = store.Sessions()
	c.ProgressRepository = store.Progress()
	c.AnnotationRepository = store.Annotations()
	c.SubscriptionRepository = store.Subscriptions()
	c.AccountRepository = store.Accounts()
	c.AdminAccountRepository = store.Accounts()
}

func (c *Container) wireServices() {
	c.AuthService = service.NewAuthService(c.SupabaseClient, c.AccountRepository, c.Logger)
	c.EntitlementService = service.NewEntitlementService(c.SubscriptionRepository, c.AccountRepository, c.Logger)
	c.SessionService = service.NewReadingSessionService(c.SessionRepository, c.ProgressRepository, c.Config.GetProgressMaxAccrual(), c.Logger)
	c.ProgressService = service.NewReadingProgressService(c.ProgressRepository, c.Logger)
	c.DashboardService = service.NewReadingDashboardService(c.SessionRepository, c.ProgressRepository, c.Logger)
	c.AnnotationService = service.NewAnnotationService(c.AnnotationRepository, c.Logger)
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
