// Package cli provides the command-line interface for leapplan.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapplan/internal/cli/commands"
	"github.com/leapstack-labs/leapplan/internal/cli/config"
	"github.com/spf13/cobra"

	// Engine adapters register themselves from init().
	_ "github.com/leapstack-labs/leapplan/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapplan/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapplan/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapplan/pkg/adapters/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapplan",
		Short: "leapplan - validated multi-step SQL plan execution",
		Long: `leapplan executes plans: ordered steps of read-only SQL written as

  Step1: count films ` + "`SELECT COUNT(*) FROM film`" + `
  Step2: list ratings ` + "`SELECT DISTINCT rating FROM film`" + `

Every step is checked before anything runs. Statements execute against the
configured target inside transactions, with a cap on returned rows.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			ctx = config.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			logger.Debug("target", slog.String("type", cfg.Target.Type), slog.String("database", cfg.Target.Database))

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: nearest leapplan.yaml)")
	pf.StringP("target", "t", "", "Target adapter type (mysql, postgres, duckdb, sqlite)")
	pf.String("host", "", "Target host")
	pf.Int("port", 0, "Target port")
	pf.StringP("user", "u", "", "Target user")
	pf.StringP("database", "d", "", "Target database (file path for duckdb and sqlite)")
	pf.Int("max-rows", 0, "Maximum rows returned per statement")
	pf.Duration("statement-timeout", 0, "Per-statement timeout (0 disables)")
	pf.Int("pool-size", 0, "Connections per pool")
	pf.Duration("acquire-timeout", 0, "Maximum wait for a pooled connection")
	pf.String("state", "", "Path to run history database")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|table|json|csv|md|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "postgres", "duckdb", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapplan.

To load completions:

Bash:
  $ source <(leapplan completion bash)

Zsh:
  $ leapplan completion zsh > "${fpath[1]}/_leapplan"

Fish:
  $ leapplan completion fish | source

PowerShell:
  PS> leapplan completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
