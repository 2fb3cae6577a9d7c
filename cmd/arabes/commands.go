package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "arabes",
		Short:         "Arabes music and news site: server and terminal client",
		Long:          `Serve the Arabes REST API or browse, play and manage its music and news from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(app.createServeCommand(ctx))
	rootCmd.AddCommand(app.createMediaCommand(ctx))
	rootCmd.AddCommand(app.createNewsCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createDownloadCommand(ctx))
	rootCmd.AddCommand(app.createShareCommand(ctx))
	rootCmd.AddCommand(app.createLoginCommand(ctx))
	rootCmd.AddCommand(app.createLogoutCommand())
	rootCmd.AddCommand(app.createWhoamiCommand())
	rootCmd.AddCommand(app.createAdminCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand())

	return rootCmd
}
