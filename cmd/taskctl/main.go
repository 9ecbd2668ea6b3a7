package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, closeApp := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	closeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd returns the command tree and a func releasing whatever the
// invoked command opened. The func is safe to call when nothing was opened.
func newRootCmd() (*cobra.Command, func()) {
	var (
		verbose bool
		a       *app
	)

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - personal task board",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a != nil || skipsApp(cmd) {
				return nil
			}
			opened, err := openApp(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			a = opened
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	current := func() *app { return a }

	// Account
	rootCmd.AddCommand(registerCmd(current))
	rootCmd.AddCommand(loginCmd(current))
	rootCmd.AddCommand(logoutCmd(current))
	rootCmd.AddCommand(whoamiCmd(current))
	rootCmd.AddCommand(profileCmd(current))
	rootCmd.AddCommand(statusCmd(current))

	// Tasks
	rootCmd.AddCommand(addCmd(current))
	rootCmd.AddCommand(listCmd(current))
	rootCmd.AddCommand(showCmd(current))
	rootCmd.AddCommand(editCmd(current))
	rootCmd.AddCommand(toggleCmd(current))
	rootCmd.AddCommand(removeCmd(current))
	rootCmd.AddCommand(statsCmd(current))
	rootCmd.AddCommand(watchCmd(current))

	return rootCmd, func() {
		if a != nil {
			a.close()
		}
	}
}

// skipsApp is true for cobra's built-in commands, which need no stores.
func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return true
		}
	}
	return false
}
