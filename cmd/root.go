package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recops/internal/app"
	"recops/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "recops",
	Short: "Recommendation service operations CLI",
	Long: `recops waits on long-running recommendation service resources (dataset imports,
solution versions, campaigns, batch jobs and more) until they become active, are
deleted or fail, and keeps a history of every wait.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipAppInit(cmd) {
			return nil
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg.ConfigureLogging()

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		openApp = appInstance

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
}

// openApp is the App initialized for the running command. Execute closes it
// whether or not the command succeeded.
var openApp *app.App

func closeApp() {
	if openApp != nil {
		openApp.Close()
		openApp = nil
	}
}

// skipAppInit reports whether cmd runs without an initialized App.
func skipAppInit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "kinds", "recops", "completion":
		return true
	}
	return cmd.Annotations["skipApp"] == "true"
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// Helper function to retrieve the app instance from context
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		// This should not happen if PersistentPreRunE ran successfully
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./config.yaml)")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database connectivity and provider configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Checking database connectivity...")
		if err := appInstance.WaitStore.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database connection successful.")

		fmt.Fprintf(cmd.OutOrStdout(), "AWS region: %s\n", appInstance.AWS.Region)
		fmt.Fprintln(cmd.OutOrStdout(), "Resource kinds with a configured provider:")
		for _, k := range appInstance.Registry.Kinds() {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", k, appInstance.Registry.ProviderName(k))
		}
		return nil
	},
}
