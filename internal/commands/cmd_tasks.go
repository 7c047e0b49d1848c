package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"pockettasks/internal/models"
)

// TasksCmd implements the task management commands.
type TasksCmd struct {
	flags *Flags

	// add flags
	addPriority string
	addDue      string
	addCategory string

	// list flags
	listFilter string
	listSearch string
	listSort   string
	listJSON   bool

	// edit flags
	editText     string
	editPriority string
	editDue      string
	editCategory string
	editClearDue bool
}

// NewTasksCmd creates the task commands.
func NewTasksCmd(flags *Flags) *TasksCmd {
	return &TasksCmd{flags: flags}
}

// Register adds the task commands to the application.
func (cmd *TasksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		cmd.addCmd(),
		cmd.listCmd(),
		cmd.toggleCmd(),
		cmd.editCmd(),
		cmd.rmCmd(),
		cmd.clearCompletedCmd(),
		cmd.statsCmd(),
	)
	return app
}

func (cmd *TasksCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a task",
		UsageText: "pockettasks add [--priority <p>] [--due <date>] [--category <c>] <text>",
		Description: `Adds a task to the end of the list and prints its id.

Examples:
  pockettasks add Buy milk
  pockettasks add --priority high --due 2026-03-01 --category Work "File taxes"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "Low, Medium or High",
				Value:       string(models.PriorityMedium),
				Destination: &cmd.addPriority,
			},
			&cli.StringFlag{
				Name:        "due",
				Aliases:     []string{"d"},
				Usage:       "due date (YYYY-MM-DD)",
				Destination: &cmd.addDue,
			},
			&cli.StringFlag{
				Name:        "category",
				Aliases:     []string{"c"},
				Usage:       "category (defaults to the configured default category)",
				Destination: &cmd.addCategory,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *TasksCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List tasks",
		UsageText: "pockettasks list [--filter <f>] [--search <text>] [--sort <key>] [--json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "all, pending or completed",
				Value:       string(models.FilterAll),
				Destination: &cmd.listFilter,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "case-insensitive text search",
				Destination: &cmd.listSearch,
			},
			&cli.StringFlag{
				Name:        "sort",
				Usage:       "dueDate, priority, category or none",
				Value:       string(models.SortNone),
				Destination: &cmd.listSort,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print one JSON object per line",
				Destination: &cmd.listJSON,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TasksCmd) toggleCmd() *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Aliases:   []string{"done"},
		Usage:     "Toggle a task between pending and completed",
		UsageText: "pockettasks toggle <id>",
		Action:    cmd.runToggle,
	}
}

func (cmd *TasksCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a task's text, priority, due date or category",
		UsageText: "pockettasks edit [--text <t>] [--priority <p>] [--due <date> | --clear-due] [--category <c>] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "new text", Destination: &cmd.editText},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "Low, Medium or High", Destination: &cmd.editPriority},
			&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "due date (YYYY-MM-DD)", Destination: &cmd.editDue},
			&cli.BoolFlag{Name: "clear-due", Usage: "remove the due date", Destination: &cmd.editClearDue},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "new category", Destination: &cmd.editCategory},
		},
		Action: cmd.runEdit,
	}
}

func (cmd *TasksCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Delete a task",
		UsageText: "pockettasks rm <id>",
		Action:    cmd.runRm,
	}
}

func (cmd *TasksCmd) clearCompletedCmd() *cli.Command {
	return &cli.Command{
		Name:   "clear-completed",
		Usage:  "Delete every completed task",
		Action: cmd.runClearCompleted,
	}
}

func (cmd *TasksCmd) statsCmd() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show task counts",
		Action: cmd.runStats,
	}
}

func (cmd *TasksCmd) runAdd(ctx context.Context, c *cli.Command) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("usage: pockettasks add <text>")
	}

	priority, err := models.ParsePriority(cmd.addPriority)
	if err != nil {
		return err
	}

	due, err := models.ParseDueDate(cmd.addDue)
	if err != nil {
		return err
	}

	category := strings.TrimSpace(cmd.addCategory)
	if category == "" {
		category = cmd.flags.Config.DefaultCategory
	}

	return withSession(ctx, cmd.flags, func(s *session) error {
		task, err := s.Tasks.AddTask(text, priority, due, category)
		if err != nil {
			return fmt.Errorf("add task: %w", err)
		}
		_, _ = fmt.Fprintln(c.Root().Writer, task.ID)
		return nil
	})
}

func (cmd *TasksCmd) runList(ctx context.Context, c *cli.Command) error {
	filter, err := models.ParseFilter(cmd.listFilter)
	if err != nil {
		return err
	}

	sortKey, err := models.ParseSortKey(cmd.listSort)
	if err != nil {
		return err
	}

	return withSession(ctx, cmd.flags, func(s *session) error {
		tasks := s.Tasks.Query(models.Query{Filter: filter, Search: cmd.listSearch, Sort: sortKey})

		out := c.Root().Writer
		if cmd.listJSON {
			enc := json.NewEncoder(out)
			for _, t := range tasks {
				if err := enc.Encode(t); err != nil {
					return fmt.Errorf("encode task: %w", err)
				}
			}
			return nil
		}

		return printTasks(out, tasks)
	})
}

func (cmd *TasksCmd) runToggle(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c, "toggle")
	if err != nil {
		return err
	}

	return withSession(ctx, cmd.flags, func(s *session) error {
		task, ok := s.Tasks.ToggleTaskComplete(id)
		if !ok {
			return fmt.Errorf("task %q not found", id)
		}

		state := "pending"
		if task.Completed {
			state = "completed"
		}
		_, _ = fmt.Fprintln(c.Root().Writer, state)
		return nil
	})
}

func (cmd *TasksCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c, "edit")
	if err != nil {
		return err
	}

	if c.IsSet("due") && cmd.editClearDue {
		return errors.New("--due and --clear-due are mutually exclusive")
	}

	// Validate every field before touching the store.
	var (
		text     string
		priority models.Priority
		due      string
	)
	if c.IsSet("text") {
		text = strings.TrimSpace(cmd.editText)
		if text == "" {
			return errors.New("text is required")
		}
	}
	if c.IsSet("priority") {
		if priority, err = models.ParsePriority(cmd.editPriority); err != nil {
			return err
		}
	}
	if c.IsSet("due") {
		if due, err = models.ParseDueDate(cmd.editDue); err != nil {
			return err
		}
	}

	return withSession(ctx, cmd.flags, func(s *session) error {
		if _, ok := s.Tasks.Get(id); !ok {
			return fmt.Errorf("task %q not found", id)
		}

		if c.IsSet("text") {
			s.Tasks.UpdateTask(id, text)
		}
		if c.IsSet("priority") {
			s.Tasks.UpdateTaskPriority(id, priority)
		}
		if c.IsSet("due") || cmd.editClearDue {
			s.Tasks.UpdateTaskDueDate(id, due)
		}
		if c.IsSet("category") {
			s.Tasks.UpdateTaskCategory(id, strings.TrimSpace(cmd.editCategory))
		}

		task, _ := s.Tasks.Get(id)
		return printTasks(c.Root().Writer, []models.Task{task})
	})
}

func (cmd *TasksCmd) runRm(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c, "rm")
	if err != nil {
		return err
	}

	return withSession(ctx, cmd.flags, func(s *session) error {
		if !s.Tasks.DeleteTask(id) {
			return fmt.Errorf("task %q not found", id)
		}
		_, _ = fmt.Fprintln(c.Root().Writer, "deleted")
		return nil
	})
}

func (cmd *TasksCmd) runClearCompleted(ctx context.Context, c *cli.Command) error {
	return withSession(ctx, cmd.flags, func(s *session) error {
		removed := s.Tasks.ClearCompleted()
		_, _ = fmt.Fprintf(c.Root().Writer, "removed %d\n", removed)
		return nil
	})
}

func (cmd *TasksCmd) runStats(ctx context.Context, c *cli.Command) error {
	return withSession(ctx, cmd.flags, func(s *session) error {
		sum := s.Tasks.Summary()

		w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Total\t%d\n", sum.Total)
		_, _ = fmt.Fprintf(w, "Completed\t%d\n", sum.Completed)
		_, _ = fmt.Fprintf(w, "Pending\t%d\n", sum.Pending)
		_, _ = fmt.Fprintf(w, "High priority\t%d\n", sum.HighPriority)
		_, _ = fmt.Fprintf(w, "Overdue\t%d\n", sum.Overdue)
		return w.Flush()
	})
}

func requireID(c *cli.Command, name string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("usage: pockettasks %s <id>", name)
	}
	return c.Args().First(), nil
}

func printTasks(out io.Writer, tasks []models.Task) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tDUE\tCATEGORY\tTEXT")

	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, done, t.Priority, due, t.Category, t.Text)
	}

	return w.Flush()
}
