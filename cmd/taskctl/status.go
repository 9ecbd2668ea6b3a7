package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
)

type statusReport struct {
	Store         string         `json:"store_driver"`
	SessionDriver string         `json:"session_driver"`
	SignedIn      string         `json:"signed_in,omitempty"`
	Status        monitor.Status `json:"status"`
}

func statusCmd(current func() *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the task store, session backend and local credential cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			mon := monitor.New(a.backends.Tasks, a.backends.SessionProbe, a.cache, time.Minute, a.logger)
			mon.Refresh()

			report := statusReport{
				Store:         a.cfg.Store.Driver,
				SessionDriver: a.cfg.Store.SessionDriver,
				Status:        mon.GetStatus(),
			}
			if identity, ok := a.session.Identity(); ok {
				report.SignedIn = identity.Email
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store:       %s (%s)\n", onlineLabel(report.Status.Store), report.Store)
			fmt.Fprintf(out, "sessions:    %s (%s)\n", onlineLabel(report.Status.Sessions), report.SessionDriver)
			fmt.Fprintf(out, "credentials: %d cached (%s)\n", report.Status.LocalCacheSize, a.cfg.Credentials.Path)
			if report.SignedIn != "" {
				fmt.Fprintf(out, "signed in:   %s\n", report.SignedIn)
			}
			if !mon.IsOnline() {
				return fmt.Errorf("task store or session backend unreachable")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func onlineLabel(ok bool) string {
	if ok {
		return "online"
	}
	return "offline"
}
