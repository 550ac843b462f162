// Package cli implements famctl, the administration tool for a league
// store: seeding, backups, catalog files and load simulation.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/fantasyfamily/internal/app"
	"github.com/okian/fantasyfamily/internal/config"
	"github.com/okian/fantasyfamily/pkg/logger"
)

// NewRootCommand builds the famctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "famctl",
		Short: "Administer a Fantasy Family league",
		Long: `famctl works directly against the configured league store.
Configuration is read the same way as the server: defaults, the YAML file
named by FANTASY_CONFIG (or --config), then FANTASY_* environment variables.
Store flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logger.Init(logger.WithWriter(cmd.ErrOrStderr()))
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "Path to a YAML config file")
	pf.String("store", "", "Store back-end: memory, file, sqlite or postgres")
	pf.String("store-path", "", "JSON or SQLite file for the file and sqlite stores")
	pf.String("database-url", "", "Postgres DSN for the postgres store")

	root.AddCommand(
		newSeedCmd(),
		newExportCmd(),
		newImportCmd(),
		newResetCmd(),
		newCatalogCmd(),
		newSimulateCmd(),
	)
	return root
}

// Execute runs famctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig applies the global flags on top of the layered configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("FANTASY_CONFIG", path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	overrides := map[string]*string{
		"store":        &cfg.Store,
		"store-path":   &cfg.StorePath,
		"database-url": &cfg.DatabaseURL,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openService starts a league service that writes every change straight
// through to the configured store. Callers must Stop it.
func openService(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := service.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	opts := append(service.OptionsFromConfig(cfg),
		service.WithStore(store),
		service.WithSaveDebounce(0),
		service.WithLogger(logger.Get().Named("famctl")),
	)
	svc := service.New(opts...)
	if err := svc.Start(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// withService runs fn against an open service and stops it afterwards,
// reporting the first error.
func withService(cmd *cobra.Command, fn func(*service.Service) error) (err error) {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := svc.Stop(context.WithoutCancel(cmd.Context())); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(svc)
}
