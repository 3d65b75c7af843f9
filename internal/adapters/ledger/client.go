package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
)

const (
	transactionsEndpoint = "/getJsonData.xevent"
	updateEndpoint       = "/updateTransaction.xevent"
	categoriesEndpoint   = "/getCategories.xevent"
)

// Client is the ledger service collaborator: it fetches transactions and
// categories and applies validated results, either as an in-place edit or
// as an N-way split.
type Client interface {
	Transactions(ctx context.Context) ([]*Transaction, error)
	CategoryIDs(ctx context.Context) (map[string]string, error)
	UpdateTransaction(ctx context.Context, res *Result) error
	SplitTransaction(ctx context.Context, res *Result) error
}

// HTTPClient talks to the ledger service over its form-post API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a ledger client. The token must come from an
// already authenticated session; authentication itself is outside this
// package.
func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.Logger = nil
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    rc,
		logger:  logger,
	}
}

// transactionRow is the wire shape of one ledger transaction.
type transactionRow struct {
	ID         json.Number `json:"id"`
	ParentID   json.Number `json:"pid"`
	Date       string      `json:"date"`
	OrderDate  string      `json:"odate"`
	Amount     string      `json:"amount"`
	Merchant   string      `json:"merchant"`
	Category   string      `json:"category"`
	CategoryID json.Number `json:"categoryId"`
	Note       string      `json:"note"`
	IsDebit    bool        `json:"isDebit"`
	IsPending  bool        `json:"isPending"`
	IsChild    bool        `json:"isChild"`
}

type transactionsPage struct {
	Set []struct {
		Data []transactionRow `json:"data"`
	} `json:"set"`
}

// Transactions fetches every ledger transaction, paging until an empty
// page comes back. Amounts are sign-normalized: debits positive, credits
// negative.
func (c *HTTPClient) Transactions(ctx context.Context) ([]*Transaction, error) {
	var result []*Transaction
	offset := 0
	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, rowData := range page {
			t, err := rowToTransaction(rowData)
			if err != nil {
				return nil, err
			}
			result = append(result, t)
		}
		offset += len(page)
	}
	c.logger.Debug("fetched ledger transactions", "count", len(result))
	return result, nil
}

func (c *HTTPClient) fetchPage(ctx context.Context, offset int) ([]transactionRow, error) {
	params := url.Values{
		"offset":     {strconv.Itoa(offset)},
		"task":       {"transactions"},
		"filterType": {"cash"},
		"token":      {c.token},
	}
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+transactionsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction fetch returned status %d", resp.StatusCode)
	}

	var page transactionsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode transactions page: %w", err)
	}
	if len(page.Set) == 0 {
		return nil, nil
	}
	return page.Set[0].Data, nil
}

func rowToTransaction(r transactionRow) (*Transaction, error) {
	date, err := money.ParseLedgerDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("bad transaction date %q: %w", r.Date, err)
	}
	orderDate, err := money.ParseLedgerDate(r.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("bad transaction posted date %q: %w", r.OrderDate, err)
	}

	amount := money.ParseUSD(r.Amount)
	if !r.IsDebit {
		amount = -amount
	}

	return &Transaction{
		ID:          r.ID.String(),
		ParentID:    r.ParentID.String(),
		Date:        date,
		OrderDate:   orderDate,
		Amount:      amount,
		Description: r.Merchant,
		Category:    r.Category,
		CategoryID:  r.CategoryID.String(),
		Note:        r.Note,
		IsDebit:     r.IsDebit,
		IsPending:   r.IsPending,
		IsChild:     r.IsChild,
	}, nil
}

// CategoryIDs returns the ledger's category name to id mapping.
func (c *HTTPClient) CategoryIDs(ctx context.Context) (map[string]string, error) {
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+categoriesEndpoint+"?token="+url.QueryEscape(c.token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("category fetch returned status %d", resp.StatusCode)
	}

	var byID map[string]struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&byID); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	byName := make(map[string]string, len(byID))
	for id, cat := range byID {
		byName[cat.Name] = id
	}
	return byName, nil
}

// UpdateTransaction applies a single-replacement result as an in-place
// edit of the original transaction.
func (c *HTTPClient) UpdateTransaction(ctx context.Context, res *Result) error {
	if len(res.Replacements) != 1 {
		return fmt.Errorf("in-place edit requires exactly one replacement, got %d", len(res.Replacements))
	}
	repl := res.Replacements[0]

	form := url.Values{
		"task":     {"txnedit"},
		"txnId":    {res.Original.ID + ":0"},
		"note":     {repl.Note},
		"merchant": {repl.Description},
		"category": {repl.Category},
		"catId":    {repl.CategoryID},
		"token":    {c.token},
	}
	return c.postForm(ctx, form)
}

// SplitTransaction applies a multi-replacement result as a split of the
// original into N new entries. For an original credit, replacement signs
// flip: the ledger treats positive split amounts as matching the parent's
// direction.
func (c *HTTPClient) SplitTransaction(ctx context.Context, res *Result) error {
	form := url.Values{
		"task":  {"split"},
		"txnId": {res.Original.ID + ":0"},
		"data":  {""},
		"token": {c.token},
	}
	for i, repl := range res.Replacements {
		amount := repl.Amount
		if !res.Original.IsDebit {
			amount = -amount
		}
		n := strconv.Itoa(i)
		value := strconv.FormatFloat(amount.Float64(), 'f', 2, 64)
		form.Set("amount"+n, value)
		form.Set("percentAmount"+n, value)
		form.Set("category"+n, repl.Category)
		form.Set("categoryId"+n, repl.CategoryID)
		form.Set("merchant"+n, repl.Description)
		form.Set("txnId"+n, "0")
	}
	return c.postForm(ctx, form)
}

func (c *HTTPClient) postForm(ctx context.Context, form url.Values) error {
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+updateEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger update failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger update returned status %d", resp.StatusCode)
	}
	return nil
}
