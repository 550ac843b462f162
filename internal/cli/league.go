package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/fantasyfamily/internal/app"
	"github.com/okian/fantasyfamily/internal/domain/model"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Initialize the store with the default league",
		Long: `Seed creates the default players and the life event catalog when the
store is empty. With --force an existing league is wiped and reseeded.`,
		Args: cobra.NoArgs,
		RunE: runSeed,
	}
	cmd.Flags().BoolP("force", "f", false, "Reseed even if the store already holds a league")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := service.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	_, existed, err := store.Load(cmd.Context())
	closeErr := store.Close()
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if closeErr != nil {
		return closeErr
	}
	if existed && !force {
		fmt.Fprintln(cmd.OutOrStdout(), "League already initialized; use --force to reseed.")
		return nil
	}

	return withService(cmd, func(svc *service.Service) error {
		if existed {
			if err := svc.Reset(cmd.Context()); err != nil {
				return err
			}
		}
		data := svc.Data()
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d players and %d life events.\n", len(data.Players), len(data.LifeEvents))
		return nil
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the league",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withService(cmd, func(svc *service.Service) error {
				data, err := svc.Export(cmd.Context())
				if err != nil {
					return err
				}
				if out == "" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Backup written to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the league with a JSON backup",
		Long: `Import validates the backup first; a malformed file leaves the stored
league untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			// Opening the service seeds an empty store, so reject bad input first.
			if _, err := model.DecodeSnapshot(data); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			return withService(cmd, func(svc *service.Service) error {
				if err := svc.Import(cmd.Context(), data); err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
				snap := svc.Data()
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d players, %d logged events and %d life events.\n",
					len(snap.Players), len(snap.LoggedEvents), len(snap.LifeEvents))
				return nil
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all league data and reseed the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service) error {
				if err := svc.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "League reset.")
				return nil
			})
		},
	}
}
