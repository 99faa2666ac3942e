package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindmeet/mindmeet/internal/config"
	"github.com/mindmeet/mindmeet/internal/service"
)

func newUserCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newSetActiveCommand(v, "activate", true))
	cmd.AddCommand(newSetActiveCommand(v, "deactivate", false))
	return cmd
}

func newSetActiveCommand(v *viper.Viper, name string, active bool) *cobra.Command {
	short := "Allow a user to log in again"
	if !active {
		short = "Block a user from logging in"
	}
	return &cobra.Command{
		Use:   name + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

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

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			// Toggling activation never issues tokens or sends mail.
			auth := service.NewAuthService(store.Users(), store.Roles(), nil, "", 0, 0)
			if err := auth.SetUserActive(ctx, id, active); err != nil {
				return fmt.Errorf("%s user %d: %w", name, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d %sd\n", id, name)
			return nil
		},
	}
}
