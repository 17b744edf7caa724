package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"admin-dashboard/internal/middleware"
	"admin-dashboard/internal/rowstore"
)

func newAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd(opts))
	cmd.AddCommand(newAuthLoginCmd(opts))
	return cmd
}

func newAuthTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		subject string
		email   string
		role    string
		secret  string
		expires time.Duration
		noSave  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode access token and save it to the active profile",
		Long:  "Generate an HS256 access token signed with the backend JWT secret, for development and testing.",
		Example: `  # Token for the seeded admin profile
  dashctl auth token --sub 7f3c2a10-0000-4000-8000-000000000001 --email admin@example.com --secret dev-secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			claims := jwt.MapClaims{
				"sub":  subject,
				"role": role,
				"iat":  now.Unix(),
				"exp":  now.Add(expires).Unix(),
			}
			if email != "" {
				claims["email"] = email
			}
			signed, err := middleware.SignDevToken(secret, claims)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			if !noSave {
				if err := saveToken(opts.profile, signed); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "User id (JWT sub claim)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "authenticated", "Role claim")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (HS256)")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token expiry duration")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the token without saving it")
	_ = cmd.MarkFlagRequired("sub")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newAuthLoginCmd(opts *globalOptions) *cobra.Command {
	var (
		backendURL string
		anonKey    string
		email      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password and save the access token",
		Long: "Sign in against the backend auth API. The password is read from the terminal " +
			"without echo, or from the first line of stdin when it is not a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := loadOrEmptyConfig().ActiveProfile(opts.profile)
			if backendURL == "" {
				backendURL = firstNonEmpty(os.Getenv("BACKEND_URL"), p.BackendURL)
			}
			if anonKey == "" {
				anonKey = firstNonEmpty(os.Getenv("BACKEND_ANON_KEY"), p.AnonKey)
			}
			if backendURL == "" || anonKey == "" {
				return fmt.Errorf("--backend-url and --anon-key are required (or BACKEND_URL and BACKEND_ANON_KEY)")
			}

			authClient, err := rowstore.NewAuthClient(backendURL, anonKey)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sess, err := authClient.SignInWithPassword(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if err := saveToken(opts.profile, sess.AccessToken); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			if getOutputFormat(cmd) == outputJSON {
				return PrintJSON(cmd.OutOrStdout(), map[string]any{
					"status":     "ok",
					"subject":    sess.Principal.ID,
					"expires_at": sess.ExpiresAt,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (token expires %s)\n",
				email, sess.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend-url", "", "Backend base URL")
	cmd.Flags().StringVar(&anonKey, "anon-key", "", "Backend public API key")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("no password on stdin")
	}
	return line, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
