package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/core/engine"
	"github.com/earnbuzz/earnbuzz/internal/output"
)

var (
	tasksUser string
	tasksTask string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List social tasks and drive a user's task flow",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the task catalog, or a user's board with --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close() // nolint:errcheck // best-effort cleanup

		user := strings.TrimSpace(tasksUser)
		if user == "" {
			tasks := rt.tasks.Tasks()
			return emitView(cmd, "tasks.list", func(f output.Formatter) (string, error) {
				return f.FormatTasks(tasks)
			})
		}

		board, err := rt.tasks.Board(cmd.Context(), user)
		if err != nil {
			return err
		}
		return emitView(cmd, "tasks.board."+user, func(f output.Formatter) (string, error) {
			return f.FormatTaskBoard(user, board)
		})
	},
}

var tasksBeginCmd = &cobra.Command{
	Use:   "begin",
	Short: "Start verification of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskAction(cmd, "begin")
	},
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete a verified task and credit its reward",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskAction(cmd, "complete")
	},
}

func runTaskAction(cmd *cobra.Command, action string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close() // nolint:errcheck // best-effort cleanup

	user := strings.TrimSpace(tasksUser)
	taskID := strings.TrimSpace(tasksTask)

	var res *engine.TaskResult
	if action == "begin" {
		res, err = rt.tasks.Begin(cmd.Context(), user, taskID)
	} else {
		res, err = rt.tasks.Complete(cmd.Context(), user, taskID)
	}
	if err != nil {
		return err
	}

	view := output.TaskView{
		UserID:       user,
		Task:         res.Task,
		Action:       action,
		VerifyEndsAt: res.VerifyEndsAt,
		Reward:       res.Reward,
		Balance:      res.Balance,
		Rejected:     res.Rejected,
	}
	return emitView(cmd, "tasks."+action+"."+taskID, func(f output.Formatter) (string, error) {
		return f.FormatTaskResult(view)
	})
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksUser, "user", "", "Show this user's task board")
	addOutputFlags(tasksListCmd)

	for _, c := range []*cobra.Command{tasksBeginCmd, tasksCompleteCmd} {
		c.Flags().StringVar(&tasksUser, "user", "", "User id")
		c.Flags().StringVar(&tasksTask, "task", "", "Task id")
		_ = c.MarkFlagRequired("user")
		_ = c.MarkFlagRequired("task")
		addOutputFlags(c)
	}

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksBeginCmd)
	tasksCmd.AddCommand(tasksCompleteCmd)
	rootCmd.AddCommand(tasksCmd)
}
