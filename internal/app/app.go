package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	log "github.com/sirupsen/logrus"

	"recops/internal/config"
	"recops/internal/events"
	"recops/internal/poll"
	"recops/internal/services"
	"recops/internal/store"
	"recops/internal/store/primary"
	"recops/internal/store/sqlite"
	"recops/internal/tasks"
)

type App struct {
	Config *config.Config

	WaitStore store.WaitStore
	JobClient store.JobClient
	AWS       aws.Config

	Registry    *services.Registry
	WaitService *services.WaitService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if err := app.initWaitStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initJobClient(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initAWS(ctx); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initProviders()
	app.initCoreServices()

	log.WithField("kinds", app.Registry.Kinds()).Debug("Application initialization complete.")
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initWaitStore(ctx context.Context) error {
	dsn := a.Config.Database.DSN
	var (
		ws  store.WaitStore
		err error
	)
	if sqlite.IsDSN(dsn) {
		ws, err = sqlite.Open(ctx, dsn)
	} else {
		ws, err = primary.NewPrimaryStore(ctx, dsn)
	}
	if err != nil {
		return fmt.Errorf("init wait store: %w", err)
	}
	if err := ws.EnsureSchema(ctx); err != nil {
		ws.Close()
		return fmt.Errorf("init wait store schema: %w", err)
	}
	a.WaitStore = ws
	return nil
}

func (a *App) initJobClient() error {
	jc, err := store.NewAsynqJobClient(store.RedisOptions{
		Address:  a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}, tasks.QueueWaits)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	a.JobClient = jc
	return nil
}

func (a *App) initAWS(ctx context.Context) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.Config.AWS.Region),
	}
	if a.Config.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(a.Config.AWS.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	if ep := a.Config.AWS.Endpoint; ep != "" {
		awsCfg.BaseEndpoint = aws.String(ep)
	}
	a.AWS = awsCfg
	return nil
}

func (a *App) initProviders() {
	a.Registry = services.NewRegistry(
		services.NewPersonalizeProvider(a.AWS),
		services.NewBucketProvider(a.AWS),
	)
	// A nil *OpenAIBatchProvider must not be registered through the interface.
	if p := services.NewOpenAIBatchProvider(a.Config.OpenAI.APIKey); p != nil {
		a.Registry.Register(p)
	}
}

func (a *App) initCoreServices() {
	cfg := a.Config
	a.WaitService = services.NewWaitService(a.Registry, a.WaitStore, a.JobClient, services.WaitDefaults{
		Interval: cfg.Poll.Interval,
		Timeout:  cfg.Poll.Timeout,
		Retry: poll.RetryPolicy{
			MaxAttempts:     cfg.Poll.Retry.MaxAttempts,
			InitialInterval: cfg.Poll.Retry.InitialInterval,
			MaxInterval:     cfg.Poll.Retry.MaxInterval,
		},
	})
}

// EventSink returns the event tracker sink, or nil when no tracking id is
// configured.
func (a *App) EventSink() (events.Sink, error) {
	if a.Config.Events.TrackingID == "" {
		return nil, nil
	}
	sink, err := events.NewPersonalizeSink(a.AWS, a.Config.Events.TrackingID)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// cleanupPartialInit closes resources that were opened before a later init step failed.
func (a *App) cleanupPartialInit() {
	log.Println("Cleaning up partially initialized resources...")
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.Printf("WARN: error closing job client during cleanup: %v", err)
		}
	}
	if a.WaitStore != nil {
		if err := a.WaitStore.Close(); err != nil {
			log.Printf("WARN: error closing wait store during cleanup: %v", err)
		}
	}
}

// Close releases the store and queue connections.
func (a *App) Close() {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.WithError(err).Warn("error closing job client")
		}
	}
	if a.WaitStore != nil {
		if err := a.WaitStore.Close(); err != nil {
			log.WithError(err).Warn("error closing wait store")
		}
	}
}
