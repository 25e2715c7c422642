package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewTodosCmd creates the todos command
func NewTodosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Inspect a user's todos",
	}
	cmd.AddCommand(newTodosListCmd())
	return cmd
}

func newTodosListCmd() *cobra.Command {
	var user, filter, sort, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's todos",
		Long:  "List a user's todos through the same filter, sort and search the API applies",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := pipeline.DefaultQuery()
			if filter != "" {
				q.Filter = models.Filter(strings.ToLower(filter))
				if !q.Filter.Valid() {
					return fmt.Errorf("invalid --filter %q (must be all, active or completed)", filter)
				}
			}
			if sort != "" {
				q.Sort = models.SortKey(strings.ToLower(sort))
				if !q.Sort.Valid() {
					return fmt.Errorf("invalid --sort %q (must be created, updated, priority, alphabetical or category)", sort)
				}
			}
			q.Search = search

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
			visible := store.View(q)
			if len(visible) == 0 {
				fmt.Fprintln(out, "No todos")
			}
			for _, t := range visible {
				printTodo(out, t)
			}
			c := store.Counts()
			fmt.Fprintf(out, "\n%d active, %d completed, %d total\n", c.Active, c.Completed, c.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id or email (required)")
	cmd.Flags().StringVar(&filter, "filter", "", "all, active or completed")
	cmd.Flags().StringVar(&sort, "sort", "", "created, updated, priority, alphabetical or category")
	cmd.Flags().StringVarP(&search, "query", "q", "", "Search text and description")
	return cmd
}

func printTodo(w io.Writer, t *models.Todo) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "[%s] %-6s %s\n", mark, t.Priority, t.Text)
	fmt.Fprintf(w, "    id: %s  created: %s\n", t.ID, t.CreatedAt.Format("2006-01-02 15:04"))
	if len(t.Categories) > 0 {
		names := make([]string, 0, len(t.Categories))
		for _, c := range t.Categories {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Color))
		}
		fmt.Fprintf(w, "    categories: %s\n", strings.Join(names, ", "))
	}
}
