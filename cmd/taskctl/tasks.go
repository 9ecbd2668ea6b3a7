package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/services"
)

func addCmd(current func() *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			task, err := a.tasks.Add(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	return cmd
}

func listCmd(current func() *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			tasks, err := a.tasks.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks yet")
				return nil
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func showCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			task, err := mustFind(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", task.ID)
			fmt.Fprintf(out, "Title:       %s\n", task.Title)
			fmt.Fprintf(out, "Status:      %s\n", statusLabel(task.IsComplete))
			fmt.Fprintf(out, "Created:     %s\n", task.CreatedAt.Local().Format(time.RFC1123))
			if task.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", task.Description)
			}
			return nil
		},
	}
}

func editCmd(current func() *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			task, err := mustFind(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") {
				title = task.Title
			}
			if !cmd.Flags().Changed("description") {
				description = task.Description
			}
			if err := a.tasks.Update(cmd.Context(), task.ID, title, description); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func toggleCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Flip a task between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			task, err := mustFind(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			toggled, err := a.tasks.ToggleComplete(cmd.Context(), task.ID, task.IsComplete)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", toggled.ID, statusLabel(toggled.IsComplete))
			return nil
		},
	}
}

func removeCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			if err := a.tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func statsCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			stats, err := a.tasks.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func watchCmd(current func() *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print completion counts periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.requireIdentity(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := func(ctx context.Context) error {
				stats, err := a.tasks.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "[%s] ", time.Now().Format("15:04:05"))
				printStats(out, stats)
				return nil
			}
			if err := report(cmd.Context()); err != nil {
				return err
			}

			scheduler := services.NewScheduler(a.logger)
			if err := scheduler.Every("stats", interval, report); err != nil {
				return err
			}
			scheduler.Start()
			<-cmd.Context().Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "Refresh interval")
	return cmd
}

// mustFind resolves an id to a task the caller owns.
func mustFind(ctx context.Context, a *app, id string) (*domain.Task, error) {
	task, found, err := a.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func printTasks(w io.Writer, tasks []domain.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, statusLabel(t.IsComplete), t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Title)
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, stats domain.Stats) {
	fmt.Fprintf(w, "total %d, done %d, pending %d\n", stats.Total, stats.Completed, stats.Pending)
}

func statusLabel(complete bool) string {
	if complete {
		return "done"
	}
	return "pending"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
