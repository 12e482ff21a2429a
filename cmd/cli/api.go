package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/bankledger/internal/adapter/http/dto"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
	Raw    []byte
}

func (e *apiError) Error() string {
	if e.Body.Kind == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (%s): %s", e.Body.Error, e.Body.Kind, e.Body.Message)
}

type apiClient struct {
	opts *options
	http *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{opts: opts, http: &http.Client{Timeout: opts.timeout}}
}

// do sends body as JSON and decodes a 2xx answer into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.opts.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	}
	if c.opts.idempotencyKey != "" && method == http.MethodPost {
		req.Header.Set("Idempotency-Key", c.opts.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode, Raw: data}
		_ = json.Unmarshal(data, &apiErr.Body)
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// run performs one request and prints the decoded answer.
func run[T any](cmd *cobra.Command, opts *options, method, path string, body any) error {
	var out T
	if err := newAPIClient(opts).do(cmd.Context(), method, path, body, &out); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func addIdempotencyFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency-Key header for safe retries")
}

func registerCmd(opts *options) *cobra.Command {
	var number string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Open an account for the token's subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run[dto.AccountResponse](cmd, opts, http.MethodPost, "/api/v1/accounts", dto.RegisterAccountRequest{Number: number})
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "Account number (generated when empty)")
	addIdempotencyFlag(cmd, opts)

	return cmd
}

func meCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the caller's account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run[dto.AccountResponse](cmd, opts, http.MethodGet, "/api/v1/accounts/me", nil)
		},
	}
}

func depositCmd(opts *options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "deposit AMOUNT",
		Short: "Deposit funds into the caller's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return run[dto.EntryResponse](cmd, opts, http.MethodPost, "/api/v1/deposits", dto.DepositRequest{Amount: amount, Description: description})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Entry description")
	addIdempotencyFlag(cmd, opts)

	return cmd
}

func withdrawCmd(opts *options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "withdraw AMOUNT",
		Short: "Withdraw funds from the caller's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return run[dto.EntryResponse](cmd, opts, http.MethodPost, "/api/v1/withdrawals", dto.WithdrawRequest{Amount: amount, Description: description})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Entry description")
	addIdempotencyFlag(cmd, opts)

	return cmd
}

func transferCmd(opts *options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "transfer RECIPIENT_NUMBER AMOUNT",
		Short: "Transfer funds to another account by number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return run[dto.EntryResponse](cmd, opts, http.MethodPost, "/api/v1/transfers", dto.TransferRequest{
				RecipientAccountNumber: args[0],
				Amount:                 amount,
				Description:            description,
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Entry description")
	addIdempotencyFlag(cmd, opts)

	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var (
		page, size int
		all        bool
		start, end string
		number     string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the caller's entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case number != "":
				return run[[]dto.EntryResponse](cmd, opts, http.MethodGet, "/api/v1/entries/by-number/"+url.PathEscape(number), nil)
			case start != "" || end != "":
				q := url.Values{"start": {start}, "end": {end}}
				return run[[]dto.EntryResponse](cmd, opts, http.MethodGet, "/api/v1/entries/range?"+q.Encode(), nil)
			case all:
				return run[[]dto.EntryResponse](cmd, opts, http.MethodGet, "/api/v1/entries/all", nil)
			default:
				q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
				return run[dto.EntryPageResponse](cmd, opts, http.MethodGet, "/api/v1/entries?"+q.Encode(), nil)
			}
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&size, "size", 10, "Page size")
	cmd.Flags().BoolVar(&all, "all", false, "List every entry")
	cmd.Flags().StringVar(&start, "start", "", "Range start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "Range end (RFC3339)")
	cmd.Flags().StringVar(&number, "number", "", "List transfer entries of the caller's account number")

	return cmd
}

func entryCmd(opts *options) *cobra.Command {
	var transfer bool

	cmd := &cobra.Command{
		Use:   "entry ID",
		Short: "Show one entry, or both legs of a transfer with --transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := url.PathEscape(args[0])
			if transfer {
				return run[[]dto.EntryResponse](cmd, opts, http.MethodGet, "/api/v1/transfers/"+id+"/entries", nil)
			}
			return run[dto.EntryResponse](cmd, opts, http.MethodGet, "/api/v1/entries/"+id, nil)
		},
	}
	cmd.Flags().BoolVar(&transfer, "transfer", false, "Treat ID as a transfer id")

	return cmd
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, &report)

			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
				if json.Unmarshal(apiErr.Raw, &report) == nil {
					_ = printJSON(cmd.OutOrStdout(), report)
				}
				return errors.New("ledger is inconsistent")
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}
