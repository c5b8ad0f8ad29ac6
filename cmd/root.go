package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "seb",
		Short:         "Shopper earnings bot (seb): answer earnings questions over chat",
		Long:          "seb runs a chat bot that logs into the shopper center with a courier's credentials, keeps an incremental copy of their delivery and commission history, and answers questions like how much they earned today or last week.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newChatCmd(app),
		newSessionsCmd(app),
	)

	return rootCmd
}
