package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"smallsh/internal/config"
	"smallsh/internal/shell"
)

var (
	cfgPath     string
	historyFile string
	logFile     string
)

// rootCmd runs the interactive shell.
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small interactive shell",
	Long: `smallsh reads one command per line, runs it in the foreground or, when
the line ends with '&', in the background. Built-ins are exit, status and cd.
SIGTSTP toggles foreground-only mode.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sh, err := shell.New(cfg, shell.DefaultStdio())
		if err != nil {
			return err
		}
		defer sh.Close()

		exitCode = sh.Run()
		return nil
	},
}

var exitCode int

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cmd.Flags().Changed("history-file") {
		cfg.HistoryFile = historyFile
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = logFile
	}
	return cfg, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "smallsh: %v\n", err)
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "YAML config file")
	rootCmd.Flags().StringVar(&historyFile, "history-file", "", "command history file, empty keeps history in memory")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "diagnostic log file")
}
