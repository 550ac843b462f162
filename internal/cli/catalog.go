package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/fantasyfamily/internal/app"
	"github.com/okian/fantasyfamily/internal/domain/catalog"
	"github.com/okian/fantasyfamily/internal/domain/readmodel"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with life event catalog files",
	}
	cmd.AddCommand(newCatalogCheckCmd(), newCatalogExportCmd())
	return cmd
}

func newCatalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a TOML catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			sum := readmodel.SummarizeCatalog(defs)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d life events (%d positive, %d negative, %d neutral)\n",
				args[0], sum.Total, sum.Positive, sum.Negative, sum.Neutral)
			return nil
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the league's catalog as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withService(cmd, func(svc *service.Service) error {
				defs := svc.Data().LifeEvents
				if out == "" {
					return catalog.Write(cmd.OutOrStdout(), defs)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := catalog.Write(f, defs); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	return cmd
}
