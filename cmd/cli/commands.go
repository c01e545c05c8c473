package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/accountledger/internal/adapter/http/dto"
	"github.com/iho/accountledger/internal/domain"
	"github.com/iho/accountledger/internal/infrastructure/auth"
	"github.com/iho/accountledger/internal/infrastructure/config"
	"github.com/iho/accountledger/internal/infrastructure/postgres"
)

type rootOptions struct {
	baseURL string
	timeout time.Duration
	token   string
	actorID string
	role    string
	asJSON  bool
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.actorID, o.role, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "accountledger",
		Short:         "Account ledger CLI tool",
		Long:          `A command line interface for the account ledger API and its database migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", "", "Bearer token")
	flags.StringVar(&opts.actorID, "actor", "", "Actor id sent when the API runs without token auth")
	flags.StringVar(&opts.role, "role", string(domain.RoleAccountant), "Actor role sent with --actor")
	flags.BoolVar(&opts.asJSON, "json", false, "Print raw JSON")

	rootCmd.AddCommand(
		ledgersCmd(opts),
		accountsCmd(opts),
		paymentsCmd(opts),
		tokenCmd(),
		migrateCmd(),
	)

	return rootCmd
}

func ledgersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgers",
		Short: "Ledger entry operations",
	}

	var filter string
	var limit, offset int
	list := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List the entries of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseLedgerFilter(filter); err != nil {
				return err
			}

			q := url.Values{}
			q.Set("filter", filter)
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListLedgersResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/ledgers", q, nil, &resp); err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printLedgers(cmd.OutOrStdout(), resp.Ledgers)
		},
	}
	list.Flags().StringVar(&filter, "filter", "all", "all, pending, conciliated or nulled")
	list.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")

	get := &cobra.Command{
		Use:   "get <ledger-id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.LedgerResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledgers/"+url.PathEscape(args[0]), nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "Report whether any entry awaits reconciliation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Pending bool `json:"pending"`
			}
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledgers/pending", nil, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Pending)
			return nil
		},
	}

	cmd.AddCommand(list, get, pending, transitionCmd(opts, "conciliate"), transitionCmd(opts, "null"))

	return cmd
}

func transitionCmd(opts *rootOptions, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <ledger-id>",
		Short: fmt.Sprintf("%s a pending entry", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.LedgerResponse
			path := "/api/v1/ledgers/" + url.PathEscape(args[0]) + "/" + action
			if err := opts.client().do(cmd.Context(), http.MethodPost, path, nil, nil, &resp); err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resp.ID, resp.State)
			return nil
		},
	}
}

func accountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	summary := &cobra.Command{
		Use:   "summary <account-id>",
		Short: "Total an account's entries by state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountSummaryResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/summary", nil, nil, &resp); err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "STATE\tCOUNT\tTOTAL\n")
			fmt.Fprintf(tw, "pending\t%d\t%s\n", resp.PendingCount, resp.Pending.StringFixed(2))
			fmt.Fprintf(tw, "conciliated\t%d\t%s\n", resp.ConciliatedCount, resp.Conciliated.StringFixed(2))
			fmt.Fprintf(tw, "nulled\t%d\t%s\n", resp.NulledCount, resp.Nulled.StringFixed(2))
			fmt.Fprintf(tw, "balance\t\t%s\n", resp.Balance.StringFixed(2))
			return tw.Flush()
		},
	}

	cmd.AddCommand(summary)

	return cmd
}

func paymentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Payment operations",
	}

	var accountID, amount, interests, rate, reference, date string
	create := &cobra.Command{
		Use:   "create <transaction-id>",
		Short: "Pay into a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreatePaymentRequest{AccountID: accountID, Reference: reference}

			var err error
			if req.Amount, err = optionalDecimal("amount", amount); err != nil {
				return err
			}
			if req.InterestsPenalties, err = optionalDecimal("interests", interests); err != nil {
				return err
			}
			if req.ExchangeRate, err = optionalDecimal("exchange-rate", rate); err != nil {
				return err
			}
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				req.Date = &dto.Date{Time: t}
			}

			var resp dto.PaymentResponse
			path := "/api/v1/transactions/" + url.PathEscape(args[0]) + "/payments"
			if err := opts.client().do(cmd.Context(), http.MethodPost, path, nil, req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	create.Flags().StringVar(&accountID, "account", "", "Account the payment is posted through")
	create.Flags().StringVar(&amount, "amount", "", "Amount, defaults to the transaction's next due amount")
	create.Flags().StringVar(&interests, "interests", "", "Interests and penalties")
	create.Flags().StringVar(&rate, "exchange-rate", "", "Exchange rate into the transaction currency")
	create.Flags().StringVar(&reference, "reference", "", "Payment reference")
	create.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD)")
	_ = create.MarkFlagRequired("account")
	_ = create.MarkFlagRequired("reference")

	cmd.AddCommand(create)

	return cmd
}

func tokenCmd() *cobra.Command {
	var userID, name, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return config.ErrMissingJWTSecret
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration).Generate(domain.Actor{
				ID:   userID,
				Name: name,
				Role: domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAccountant), "admin, accountant or viewer")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func optionalDecimal(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}

	return &d, nil
}

func printLedgers(w io.Writer, ledgers []*dto.LedgerResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tDATE\tREFERENCE\tDIR\tAMOUNT\tSTATE\n")
	for _, l := range ledgers {
		amount := l.Amount
		if l.SignedAmount != nil {
			amount = *l.SignedAmount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Date.Format("2006-01-02"), truncate(l.Reference, 30), l.Direction, amount.StringFixed(2), l.State)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
