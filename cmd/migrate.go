package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the audits table",
		Long: `Applies the embedded schema migrations to the configured database,
regardless of db.auto_migrate. The in-memory driver has no schema.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{migrateAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.GetStore().Ping(cmd.Context()); err != nil {
				return fmt.Errorf("store unreachable after migration: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", appInstance.GetConfig().DB.Driver)
			return err
		},
	}
}
