package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// getJSON issues an authenticated GET and decodes the body into T.
func getJSON[T any](ctx context.Context, c *Client, store ports.TokenStore, path string, q url.Values) (T, error) {
	var out T
	resp, err := c.Do(ctx, store, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return out, err
	}
	err = resp.Decode(&out)
	return out, err
}

// getList decodes either a bare JSON array or an envelope with an items/data array.
func getList[T any](ctx context.Context, c *Client, store ports.TokenStore, path string, q url.Values) ([]T, error) {
	resp, err := c.Do(ctx, store, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp.Body)
}

func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var out []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}
	var env struct {
		Items []T `json:"items"`
		Data  []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	if env.Items != nil {
		return env.Items, nil
	}
	return env.Data, nil
}

// exec sends req and discards the response body.
func (c *Client) exec(ctx context.Context, store ports.TokenStore, req Request) error {
	_, err := c.Do(ctx, store, req)
	return err
}

func pageQuery(skip, limit int, accountType model.AccountType) url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(max(skip, 0)))
	q.Set("limit", strconv.Itoa(max(limit, 1)))
	if accountType != "" {
		q.Set("account_type", string(accountType))
	}
	return q
}

func idPath(prefix string, id int64, rest ...string) string {
	p := prefix + "/" + strconv.FormatInt(id, 10)
	for _, seg := range rest {
		p += "/" + url.PathEscape(seg)
	}
	return p
}

// Summary returns the dashboard overview.
func (c *Client) Summary(ctx context.Context, store ports.TokenStore) (model.Summary, error) {
	return getJSON[model.Summary](ctx, c, store, PathSummary, nil)
}

// Traders returns one page of trading accounts.
func (c *Client) Traders(ctx context.Context, store ports.TokenStore, skip, limit int, accountType model.AccountType) (model.TraderPage, error) {
	resp, err := c.Do(ctx, store, Request{Method: http.MethodGet, Path: PathTraders, Query: pageQuery(skip, limit, accountType)})
	if err != nil {
		return model.TraderPage{}, err
	}

	page := model.TraderPage{Skip: skip, Limit: limit}
	if trimmed := bytes.TrimSpace(resp.Body); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return model.TraderPage{}, fmt.Errorf("decode traders: %w", err)
		}
		return page, nil
	}
	items, err := decodeList[model.TraderAccount](resp.Body)
	if err != nil {
		return model.TraderPage{}, err
	}
	page.Items = items
	page.Total = skip + len(items)
	return page, nil
}

// MarginCalls lists accounts currently in margin call.
func (c *Client) MarginCalls(ctx context.Context, store ports.TokenStore) ([]model.MarginCall, error) {
	q := url.Values{"skip": {"0"}, "limit": {"200"}}
	return getList[model.MarginCall](ctx, c, store, PathMarginCalls, q)
}

// OnlineUsers lists up to limit connected traders.
func (c *Client) OnlineUsers(ctx context.Context, store ports.TokenStore, limit int) ([]model.ActiveUser, error) {
	q := url.Values{"limit": {strconv.Itoa(max(limit, 1))}}
	return getList[model.ActiveUser](ctx, c, store, PathActiveUsers, q)
}

// PendingTransactions lists deposits or withdrawals awaiting review.
func (c *Client) PendingTransactions(ctx context.Context, store ports.TokenStore, typ model.TransactionType) ([]model.PendingTransaction, error) {
	q := url.Values{"transaction_type": {string(typ)}}
	return getList[model.PendingTransaction](ctx, c, store, PathPendingTransactions, q)
}

// ApproveTransaction approves a pending deposit or withdrawal.
func (c *Client) ApproveTransaction(ctx context.Context, store ports.TokenStore, id int64) error {
	return c.exec(ctx, store, Request{Method: http.MethodPost, Path: idPath(PathTransactions, id, "approve")})
}

// RejectTransaction rejects a pending deposit or withdrawal with a reason.
func (c *Client) RejectTransaction(ctx context.Context, store ports.TokenStore, id int64, reason string) error {
	return c.exec(ctx, store, Request{
		Method: http.MethodPost,
		Path:   idPath(PathTransactions, id, "reject"),
		Body:   model.Rejection{Reason: reason},
	})
}

// UserVerifications returns one page of KYC records.
func (c *Client) UserVerifications(ctx context.Context, store ports.TokenStore, skip, limit int, accountType model.AccountType) ([]model.UserVerification, error) {
	return getList[model.UserVerification](ctx, c, store, PathUsersVerification, pageQuery(skip, limit, accountType))
}

// TraderPositions lists a trader's positions with the given status.
// accountID zero means all accounts of the trader.
func (c *Client) TraderPositions(ctx context.Context, store ports.TokenStore, userID int64, status model.PositionStatus, accountID int64) ([]model.Position, error) {
	q := url.Values{"status": {string(status)}}
	if accountID > 0 {
		q.Set("account_id", strconv.FormatInt(accountID, 10))
	}
	return getList[model.Position](ctx, c, store, idPath(PathUsers, userID, "positions"), q)
}

// UpdatePosition edits stop loss, take profit and volume of one position.
func (c *Client) UpdatePosition(ctx context.Context, store ports.TokenStore, userID, positionID int64, upd model.PositionUpdate) error {
	return c.exec(ctx, store, Request{
		Method: http.MethodPut,
		Path:   idPath(PathUsers, userID, "positions", strconv.FormatInt(positionID, 10)),
		Body:   upd,
	})
}

// UserTransactions lists a trader's transaction history of one type.
func (c *Client) UserTransactions(ctx context.Context, store ports.TokenStore, userID int64, typ model.TransactionType) ([]model.Transaction, error) {
	q := url.Values{"type": {string(typ)}}
	return getList[model.Transaction](ctx, c, store, idPath(PathUsers, userID, "transactions"), q)
}

// GlobalBank returns the brokerage bank settings.
func (c *Client) GlobalBank(ctx context.Context, store ports.TokenStore) (model.BankSettings, error) {
	return getJSON[model.BankSettings](ctx, c, store, PathPayment+"/bank", nil)
}

// UpdateGlobalBank replaces the brokerage bank settings.
func (c *Client) UpdateGlobalBank(ctx context.Context, store ports.TokenStore, bank model.BankSettings) error {
	return c.exec(ctx, store, Request{Method: http.MethodPut, Path: PathPayment + "/bank", Body: bank})
}

// CryptoWallets lists the deposit wallets.
func (c *Client) CryptoWallets(ctx context.Context, store ports.TokenStore) ([]model.CryptoWallet, error) {
	return getList[model.CryptoWallet](ctx, c, store, PathDeposit+"/crypto-wallets", nil)
}

type newCryptoWallet struct {
	Currency      string `json:"currency"`
	WalletAddress string `json:"wallet_address"`
	Network       string `json:"network"`
}

// AddCryptoWallet registers a new deposit wallet.
func (c *Client) AddCryptoWallet(ctx context.Context, store ports.TokenStore, w model.CryptoWallet) error {
	return c.exec(ctx, store, Request{
		Method: http.MethodPut,
		Path:   PathCryptoDeposit,
		Body:   newCryptoWallet{Currency: w.Symbol, WalletAddress: w.Address, Network: w.Network},
	})
}

// UpdateCryptoWallet replaces an existing deposit wallet.
func (c *Client) UpdateCryptoWallet(ctx context.Context, store ports.TokenStore, w model.CryptoWallet) error {
	id := w.ID
	w.ID = 0
	return c.exec(ctx, store, Request{Method: http.MethodPut, Path: idPath(PathCryptoDeposit, id), Body: w})
}

// DeleteCryptoWallet removes a deposit wallet.
func (c *Client) DeleteCryptoWallet(ctx context.Context, store ports.TokenStore, id int64) error {
	return c.exec(ctx, store, Request{Method: http.MethodDelete, Path: idPath(PathCryptoDeposit, id)})
}

// AdminUsers lists staff operator accounts.
func (c *Client) AdminUsers(ctx context.Context, store ports.TokenStore) ([]model.AdminUser, error) {
	return getList[model.AdminUser](ctx, c, store, PathAdminUsers, nil)
}

// CreateAdminUser adds a staff operator.
func (c *Client) CreateAdminUser(ctx context.Context, store ports.TokenStore, in model.AdminUserInput) error {
	return c.exec(ctx, store, Request{Method: http.MethodPost, Path: PathAdminUsers, Body: in})
}

// UpdateAdminUser replaces an operator's profile and role.
func (c *Client) UpdateAdminUser(ctx context.Context, store ports.TokenStore, id int64, in model.AdminUserInput) error {
	return c.exec(ctx, store, Request{Method: http.MethodPut, Path: idPath(PathAdminUsers, id), Body: in})
}

// DeleteAdminUser removes an operator.
func (c *Client) DeleteAdminUser(ctx context.Context, store ports.TokenStore, id int64) error {
	return c.exec(ctx, store, Request{Method: http.MethodDelete, Path: idPath(PathAdminUsers, id)})
}

type traderAssignment struct {
	TraderIDs []int64 `json:"trader_ids"`
}

// AssignTraders replaces the set of traders an operator looks after.
func (c *Client) AssignTraders(ctx context.Context, store ports.TokenStore, id int64, traderIDs []int64) error {
	if traderIDs == nil {
		traderIDs = []int64{}
	}
	return c.exec(ctx, store, Request{
		Method: http.MethodPut,
		Path:   idPath(PathAdminUsers, id, "traders"),
		Body:   traderAssignment{TraderIDs: traderIDs},
	})
}
