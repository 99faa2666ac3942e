package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindmeet/mindmeet/internal/config"
)

// pendingLister is implemented by stores that track applied migrations.
type pendingLister interface {
	Pending(ctx context.Context) ([]string, error)
}

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Applies pending schema migrations. With --status, lists pending migrations without applying them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if status {
				lister, ok := store.(pendingLister)
				if !ok {
					fmt.Fprintf(out, "%s schema is applied idempotently; nothing to list\n", cfg.DatabaseDriver)
					return nil
				}
				pending, err := lister.Pending(ctx)
				if err != nil {
					return fmt.Errorf("list pending migrations: %w", err)
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "no pending migrations")
					return nil
				}
				for _, name := range pending {
					fmt.Fprintf(out, "pending: %s\n", name)
				}
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list pending migrations without applying them")
	return cmd
}
