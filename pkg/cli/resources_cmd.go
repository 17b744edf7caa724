package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"admin-dashboard/internal/domain"
)

// listResult mirrors the API's list envelope.
type listResult[R any] struct {
	Data          []R     `json:"data"`
	Loading       bool    `json:"loading"`
	Error         *string `json:"error"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// failed returns the resource error reported inside a 200 response.
func (l listResult[R]) failed() error {
	if l.Error != nil {
		return fmt.Errorf("load failed: %s", *l.Error)
	}
	return nil
}

type pageFlags struct {
	maxResults int
	pageToken  string
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.maxResults, "max-results", 0, "Maximum rows per page (server default when 0)")
	cmd.Flags().StringVar(&p.pageToken, "page-token", "", "Token of the page to fetch")
}

func (p *pageFlags) query() url.Values {
	q := url.Values{}
	if p.maxResults > 0 {
		q.Set("max_results", strconv.Itoa(p.maxResults))
	}
	if p.pageToken != "" {
		q.Set("page_token", p.pageToken)
	}
	return q
}

// renderList prints a list and, for tables, the next page token.
func renderList[R any](cmd *cobra.Command, res listResult[R], columns []string, row func(R) []string) error {
	if err := res.failed(); err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Data))
	for _, r := range res.Data {
		rows = append(rows, row(r))
	}
	if err := render(cmd, res, columns, rows); err != nil {
		return err
	}
	if res.NextPageToken != "" && getOutputFormat(cmd) == outputTable {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "next page: --page-token %s\n", res.NextPageToken)
	}
	return nil
}

func newCitiesCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res listResult[domain.City]
			if err := client.GetJSON(cmd.Context(), "/cities", nil, &res); err != nil {
				return err
			}
			return renderList(cmd, res, []string{"id", "name", "state_id", "timezone"}, func(c domain.City) []string {
				state := "-"
				if c.StateID != nil {
					state = strconv.FormatInt(*c.StateID, 10)
				}
				return []string{strconv.FormatInt(c.ID, 10), c.Name, state, strOrDash(c.Timezone)}
			})
		},
	}
}

func newStatesCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "List states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res listResult[domain.State]
			if err := client.GetJSON(cmd.Context(), "/states", nil, &res); err != nil {
				return err
			}
			return renderList(cmd, res, []string{"id", "name", "code", "country"}, func(s domain.State) []string {
				return []string{strconv.FormatInt(s.ID, 10), s.Name, strOrDash(s.Code), strOrDash(s.Country)}
			})
		},
	}
}

func newUsersCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect user profiles",
	}
	cmd.AddCommand(newUsersListCmd(client))
	cmd.AddCommand(newUsersStatsCmd(client))
	return cmd
}

func newUsersListCmd(client *Client) *cobra.Command {
	var (
		search string
		page   pageFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := page.query()
			if search != "" {
				q.Set("q", search)
			}
			var res listResult[domain.Profile]
			if err := client.GetJSON(cmd.Context(), "/profiles", q, &res); err != nil {
				return err
			}
			return renderList(cmd, res, []string{"id", "name", "email", "role", "status"}, func(p domain.Profile) []string {
				status := "active"
				if p.Blocked() {
					status = "blocked"
				}
				return []string{p.ID, p.DisplayName(), strOrDash(p.Email), strOrDash(p.Role), status}
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive match on username, full name or email")
	page.register(cmd)
	return cmd
}

func newUsersStatsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user management counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats domain.UserStats
			if err := client.GetJSON(cmd.Context(), "/profiles/stats", nil, &stats); err != nil {
				return err
			}
			return render(cmd, stats, []string{"users", "admins", "active", "blocked"}, [][]string{{
				strconv.Itoa(stats.Users),
				strconv.Itoa(stats.Admins),
				strconv.Itoa(stats.Active),
				strconv.Itoa(stats.Blocked),
			}})
		},
	}
}

func newInvoicesCmd(client *Client) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res listResult[domain.Invoice]
			if err := client.GetJSON(cmd.Context(), "/invoices", page.query(), &res); err != nil {
				return err
			}
			return renderList(cmd, res, []string{"number", "customer", "amount", "status", "issued"}, func(inv domain.Invoice) []string {
				return []string{inv.Number, strOrDash(inv.CustomerEmail), inv.FormatAmount(), inv.Status, formatDate(inv.IssuedAt)}
			})
		},
	}
	page.register(cmd)
	return cmd
}

func newQuizzesCmd(client *Client) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List quizzes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res listResult[domain.Quiz]
			if err := client.GetJSON(cmd.Context(), "/quizzes", page.query(), &res); err != nil {
				return err
			}
			return renderList(cmd, res, []string{"id", "title", "category", "questions", "published"}, func(q domain.Quiz) []string {
				return []string{
					strconv.FormatInt(q.ID, 10),
					q.Title,
					strOrDash(q.Category),
					strconv.Itoa(q.QuestionCount),
					strconv.FormatBool(q.IsPublished),
				}
			})
		},
	}
	page.register(cmd)
	return cmd
}

func newWhoamiCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile of the authenticated caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var me struct {
				User *domain.Profile `json:"user"`
			}
			if err := client.GetJSON(cmd.Context(), "/me", nil, &me); err != nil {
				return err
			}
			if me.User == nil {
				if getOutputFormat(cmd) == outputTable {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
					return nil
				}
				return render(cmd, me, nil, nil)
			}
			u := me.User
			return render(cmd, me, []string{"id", "name", "email", "role"}, [][]string{{
				u.ID, u.DisplayName(), strOrDash(u.Email), strOrDash(u.Role),
			}})
		},
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
