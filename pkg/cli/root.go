// Package cli implements dashctl, the command-line client for the admin
// dashboard API.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if getOutputFormat(rootCmd) == outputJSON {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// globalOptions are the resolved persistent flags.
type globalOptions struct {
	host    string
	token   string
	output  string
	profile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	client := NewClient("", "")

	rootCmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Admin dashboard CLI",
		Long:          "Command-line interface for the admin dashboard API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > profile > default.
			p := loadOrEmptyConfig().ActiveProfile(opts.profile)
			flags := cmd.Flags()
			if !flags.Changed("host") {
				if v := os.Getenv("DASHBOARD_HOST"); v != "" {
					opts.host = v
				} else if p.Host != "" {
					opts.host = p.Host
				}
			}
			if !flags.Changed("token") {
				if v := os.Getenv("DASHBOARD_TOKEN"); v != "" {
					opts.token = v
				} else if p.Token != "" {
					opts.token = p.Token
				}
			}
			if !flags.Changed("output") {
				switch {
				case os.Getenv("DASHBOARD_OUTPUT") != "":
					opts.output = os.Getenv("DASHBOARD_OUTPUT")
				case p.Output != "":
					opts.output = p.Output
				default:
					opts.output = defaultOutputFormat(cmd.OutOrStdout())
				}
				// Keep the flag in sync for getOutputFormat.
				_ = cmd.Root().PersistentFlags().Set("output", opts.output)
			}
			if err := validateOutputFormat(opts.output); err != nil {
				return err
			}

			client.BaseURL = NewClient(opts.host, "").BaseURL
			client.Token = opts.token
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.host, "host", "http://localhost:8080", "Dashboard server URL")
	pf.StringVar(&opts.token, "token", "", "Access token for authentication")
	pf.StringVarP(&opts.output, "output", "o", outputTable, "Output format (table, json, yaml)")
	pf.StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newCitiesCmd(client))
	rootCmd.AddCommand(newStatesCmd(client))
	rootCmd.AddCommand(newUsersCmd(client))
	rootCmd.AddCommand(newInvoicesCmd(client))
	rootCmd.AddCommand(newQuizzesCmd(client))
	rootCmd.AddCommand(newWhoamiCmd(client))

	rootCmd.AddCommand(newAuthCmd(opts))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
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
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == outputJSON {
				return PrintJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dashctl version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
