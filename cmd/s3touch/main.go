// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/cli"
	"github.com/jeremyhahn/s3touch/pkg/version"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	globalConfig *cli.Config
	logger       adapters.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// Failed paths were already reported with the results.
		if !errors.Is(err, cli.ErrTouchFailed) {
			fmt.Fprint(os.Stderr, cli.FormatError(err, outputFormat()))
		}
		os.Exit(1)
	}
}

func outputFormat() cli.OutputFormat {
	if globalConfig == nil {
		return cli.FormatText
	}
	return cli.OutputFormat(globalConfig.OutputFormat)
}

var rootCmd = &cobra.Command{
	Use:   "s3touch <s3path>...",
	Short: "Replay S3 object-created events for existing objects",
	Long: `s3touch sends a synthetic "ObjectCreated:CompleteMultipartUpload" event for
each given S3 object to the SNS topic or Lambda function the object's bucket
is configured to notify, as if the object had just been uploaded.

The target is taken from --topic or --lambda when given, otherwise from the
bucket's notification configuration (looked up once per bucket per run).

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (S3TOUCH_*, plus AWS_REGION and HTTPS_PROXY)
  - Configuration file (~/.s3touch.yaml or ./.s3touch.yaml)
  - Default values (lowest priority)`,
	Example: `  s3touch s3://mybucket/dir/file.bin                        # Touch one object
  s3touch s3://mybucket/a.csv s3://mybucket/b.csv --workers 4  # Touch several in parallel
  s3touch --recursive s3://mybucket/logs/2024/               # Touch everything under a prefix
  s3touch --topic arn:aws:sns:us-east-1:123456789012:ingest s3://mybucket/k
  s3touch --lambda my-function --requester-pays s3://paid-bucket/k
  s3touch --dry-run -o table s3://mybucket/dir/file.bin       # Show what would be sent`,
	Args: cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		viperConfig, err = cli.InitConfig(cfgFile)
		if err != nil {
			return err
		}

		if err := viperConfig.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		globalConfig = cli.GetConfig(viperConfig)

		logger, err = cli.NewLogger(globalConfig, os.Stderr)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx, err := cli.NewCommandContext(cmd.Context(), globalConfig, logger)
		if err != nil {
			return err
		}
		defer func() { _ = ctx.Close() }()

		results, metrics, err := ctx.TouchCommand(cmd.Context(), args)
		if results != nil {
			fmt.Print(cli.FormatTouchResults(results, metrics, outputFormat()))
		}
		return err
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <s3path>",
	Short: "Print the synthetic event for an object without sending it",
	Long: `Read the object's size and ETag and print the event that would be sent.
No notification configuration is read and nothing is published.`,
	Example: `  s3touch event s3://mybucket/dir/file.bin               # Print the event JSON
  s3touch event s3://mybucket/dir/file.bin -o table      # Summarize the event`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx, err := cli.NewCommandContext(cmd.Context(), globalConfig, logger)
		if err != nil {
			return err
		}
		defer func() { _ = ctx.Close() }()

		n, err := ctx.EventCommand(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Print(cli.FormatEvent(n, outputFormat()))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after flags, environment and config file are merged.`,
	Example: `  s3touch config                                 # Show current config
  s3touch config -o json                         # Show config as JSON
  AWS_REGION=eu-west-1 s3touch config            # Preview region resolution`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(cli.DisplayConfig(globalConfig, globalConfig.OutputFormat))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	// Set custom usage template to always show examples (even on errors)
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SilenceErrors = true
	rootCmd.Version = version.Get()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.s3touch.yaml)")
	rootCmd.PersistentFlags().String("region", "", "AWS region (default from AWS_REGION, AWS_DEFAULT_REGION or us-east-1)")
	rootCmd.PersistentFlags().String("endpoint", "", "custom endpoint URL for all AWS services (e.g. http://localhost:4566)")
	rootCmd.PersistentFlags().String("proxy", "", "HTTPS proxy URL (default from HTTPS_PROXY)")
	rootCmd.PersistentFlags().String("access-key", "", "AWS access key ID")
	rootCmd.PersistentFlags().String("secret-key", "", "AWS secret access key")
	rootCmd.PersistentFlags().String("ca-cert", "", "PEM bundle path or inline PEM to trust for endpoint and proxy TLS (default from AWS_CA_BUNDLE)")
	rootCmd.PersistentFlags().Bool("insecure-skip-verify", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().Bool("requester-pays", false, "declare the caller as payer on HEAD and list requests")
	rootCmd.PersistentFlags().StringP("output-format", "o", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	// touch flags
	rootCmd.Flags().String("topic", "", "send every event to this SNS topic ARN")
	rootCmd.Flags().String("lambda", "", "send every event to this Lambda function")
	rootCmd.Flags().IntP("workers", "w", 1, "number of objects to touch concurrently")
	rootCmd.Flags().BoolP("recursive", "r", false, "treat each path as a prefix and touch every object under it")
	rootCmd.Flags().Bool("dry-run", false, "log the events instead of sending them")
	rootCmd.Flags().Float64("rate", 0, "maximum events per second across all workers (0 = unlimited)")
	rootCmd.MarkFlagsMutuallyExclusive("topic", "lambda")

	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	for _, cmd := range rootCmd.Commands() {
		cmd.SetUsageTemplate(usageTemplate)
	}
}
