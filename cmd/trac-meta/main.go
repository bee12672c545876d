// Command trac-meta is the catalog's process entrypoint: a cobra command
// tree replacing the teacher's bare-flag cmd/server/main.go, grounded on
// internal/infrastructure/migrations/cli.go's CLI{manager, logger} +
// GetRootCommand() shape (spec §6/SPEC_FULL.md C7).
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

const (
	serviceName    = "trac-meta"
	serviceVersion = "0.1.0"
)

// rootFlags holds the persistent flags every subcommand reads (spec §6:
// "--config", "--secret-key/SECRET_KEY").
type rootFlags struct {
	configPath string
	secretKey  string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     serviceName,
		Short:   "TRAC-style versioned metadata catalog",
		Version: serviceVersion,
		// Unknown flags and subcommand errors exit non-zero with a
		// single-line message instead of cobra's usage dump (spec §6).
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the YAML config file (env/defaults layered underneath)")
	root.PersistentFlags().StringVar(&flags.secretKey, "secret-key", os.Getenv("SECRET_KEY"), "secret-store decryption key (or SECRET_KEY env var)")

	var taskName string
	var taskList bool
	root.Flags().StringVar(&taskName, "task", "", "alias for invoking a subcommand by name (scripting parity with spec §6)")
	root.Flags().BoolVar(&taskList, "task-list", false, "list registered task names and exit")

	root.AddCommand(
		newServeCommand(flags),
		newMigrateCommand(flags),
		newValidateConfigCommand(flags),
	)

	root.RunE = func(cmd *cobra.Command, args []string) error {
		tasks := collectTasks(cmd.Root())
		if taskList {
			for _, name := range taskNames(tasks) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}
		if taskName != "" {
			target, ok := tasks[taskName]
			if !ok {
				return fmt.Errorf("trac-meta: unknown task %q", taskName)
			}
			target.SilenceUsage = true
			target.SilenceErrors = true
			return target.RunE(target, args)
		}
		return cmd.Help()
	}

	return root
}

// collectTasks walks the command tree and returns every runnable leaf
// (one with a RunE), keyed by its space-joined path under the root
// (e.g. "serve", "migrate up") — the name spec §6's "--task <name>"
// alias form dispatches by.
func collectTasks(cmd *cobra.Command) map[string]*cobra.Command {
	tasks := make(map[string]*cobra.Command)
	var walk func(c *cobra.Command, prefix string)
	walk = func(c *cobra.Command, prefix string) {
		for _, sub := range c.Commands() {
			name := sub.Name()
			if prefix != "" {
				name = prefix + " " + name
			}
			if sub.RunE != nil {
				tasks[name] = sub
			}
			walk(sub, name)
		}
	}
	walk(cmd, "")
	return tasks
}

func taskNames(tasks map[string]*cobra.Command) []string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "trac-meta:", err)
		os.Exit(1)
	}
}
