// Command focusflow shows and edits a FocusFlow task list from the terminal.
package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/23CSBS271/focus-flow/config"
)

// Version set via ldflags during build
var version = "dev"

type rootFlags struct {
	configPath string
	userID     string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "focusflow",
		Short:        "View and edit your FocusFlow tasks",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to focusflow.yml (default: ./focusflow.yml over the XDG config)")
	root.PersistentFlags().StringVarP(&flags.userID, "user", "u", "", "user id (default: user_id from config)")

	root.AddCommand(
		newViewCmd(flags),
		newAddCmd(flags),
		newEditCmd(flags),
		newStatusCmd(flags),
		newToggleCmd(flags),
		newMoveCmd(flags),
		newDropCmd(flags),
		newRemoveCmd(flags),
		newProfileCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// withApp loads configuration, builds the app and hands it to fn.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(a *app) error) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	a, err := newApp(cmd.Context(), cfg, flags.userID, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
