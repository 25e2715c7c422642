package commands

import (
	"errors"
	"fmt"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/spf13/cobra"
)

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and recolor a user's categories",
	}
	cmd.AddCommand(newCategoriesListCmd())
	cmd.AddCommand(newCategoriesRecolorCmd())
	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the distinct categories used across a user's todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.openStore(cmd.Context(), user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			all := store.Registry().All()
			if len(all) == 0 {
				fmt.Fprintln(out, "No categories")
				return nil
			}
			for _, c := range all {
				name := string(c.Color)
				if entry, ok := c.Color.Entry(); ok {
					name = entry.Name
				}
				fmt.Fprintf(out, "  - %s: %s (%s)\n", c.Name, c.Color, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id or email (required)")
	return cmd
}

func newCategoriesRecolorCmd() *cobra.Command {
	var user, color string
	var queueRepairs bool

	cmd := &cobra.Command{
		Use:   "recolor <name>",
		Short: "Give a category a new color on every todo that carries it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseColor(color)
			if err != nil {
				return fmt.Errorf("invalid --color %q: %w", color, err)
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			var opts []todos.Option
			if queueRepairs && e.cfg.QueueEnabled() {
				q, err := queue.NewRabbitMQQueue(e.cfg.RabbitMQURL, e.logger)
				if err != nil {
					return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
				}
				defer func() { _ = q.Close() }()
				opts = append(opts, todos.WithRepairQueue(q))
			}

			store, err := e.openStore(ctx, userID.String(), opts...)
			if err != nil {
				return err
			}

			result, err := store.UpdateCategoryColor(ctx, args[0], c)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %d todo(s)\n", len(result.Updated))
			if err != nil {
				if errors.Is(err, todos.ErrPartialPropagation) {
					for _, id := range result.Failed {
						fmt.Fprintf(out, "  failed: %s\n", id)
					}
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id or email (required)")
	cmd.Flags().StringVar(&color, "color", "", "Palette color, as hex or name (required)")
	cmd.Flags().BoolVar(&queueRepairs, "queue-repairs", true, "Enqueue a repair job for todos that could not be updated")
	_ = cmd.MarkFlagRequired("color")
	return cmd
}
