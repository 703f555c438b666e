package httpx

import (
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/siamkarim/2mro-admin/internal/authctx"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	"github.com/siamkarim/2mro-admin/internal/http/validation"
)

var (
	ibanPattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9 ]{10,32}$`)
	swiftPattern = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

type paymentsData struct {
	Deposits    panel[[]model.PendingTransaction]
	Withdrawals panel[[]model.PendingTransaction]
	Bank        panel[model.BankSettings]
	Wallets     panel[[]model.CryptoWallet]
}

// Payments serves GET /payment-management.
func (h *UIHandlers) Payments(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	var out paymentsData
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		items, err := h.API.PendingTransactions(ctx, store, model.TransactionDeposit)
		out.Deposits.Data = items
		return h.panelOutcome(r, err, &out.Deposits.Error)
	})
	g.Go(func() error {
		items, err := h.API.PendingTransactions(ctx, store, model.TransactionWithdrawal)
		out.Withdrawals.Data = items
		return h.panelOutcome(r, err, &out.Withdrawals.Error)
	})
	g.Go(func() error {
		bank, err := h.API.GlobalBank(ctx, store)
		out.Bank.Data = bank
		return h.panelOutcome(r, err, &out.Bank.Error)
	})
	g.Go(func() error {
		wallets, err := h.API.CryptoWallets(ctx, store)
		out.Wallets.Data = wallets
		return h.panelOutcome(r, err, &out.Wallets.Error)
	})
	if err := g.Wait(); err != nil {
		h.pageFailure(w, r, err)
		return
	}

	data := h.pageData(r, PageMeta{Title: "payments.title", CurrentPage: PagePayments}).
		With("Deposits", out.Deposits).
		With("Withdrawals", out.Withdrawals).
		With("Bank", out.Bank).
		With("Wallets", out.Wallets).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// transactionAction is the action needed to decide on a transaction of typ.
func transactionAction(typ model.TransactionType) rbac.Action {
	if typ == model.TransactionWithdrawal {
		return rbac.ActionApproveWithdrawal
	}
	return rbac.ActionApproveDeposit
}

// authorizeTransaction checks the form's transaction type against the active role.
// It returns false when a response was already written.
func (h *UIHandlers) authorizeTransaction(w http.ResponseWriter, r *http.Request) bool {
	typ := model.TransactionType(r.PostFormValue("type"))
	if !typ.Valid() {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errInvalidTransactionType})
		return false
	}
	if !rbac.CanPerform(authctx.RoleFromContext(r.Context()), transactionAction(typ)) {
		deny(w, r, http.HandlerFunc(h.NoAccess))
		return false
	}
	return true
}

// ApproveTransaction serves POST /payment-management/transactions/{id}/approve.
func (h *UIHandlers) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !h.authorizeTransaction(w, r) {
		return
	}
	if err := h.API.ApproveTransaction(r.Context(), h.store(w, r), id); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "transactions-updated")
}

// RejectTransaction serves POST /payment-management/transactions/{id}/reject.
func (h *UIHandlers) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !h.authorizeTransaction(w, r) {
		return
	}

	reason := strings.TrimSpace(r.PostFormValue("reason"))
	fv := validation.New().Validate("reason", reason, validation.Required("Rejection reason", 500))
	if !fv.Valid() {
		data := h.pageData(r, PageMeta{CurrentPage: PagePayments}).
			With("TransactionID", id).
			With("Type", r.PostFormValue("type"))
		RenderError(ErrorOpts{
			W: w, R: r,
			FieldErrors: fv.Errors(),
			Renderer: func(w http.ResponseWriter, _ *http.Request, data map[string]any) {
				h.renderFragment(w, "reject-form", data)
			},
			Data: data,
		})
		return
	}

	if err := h.API.RejectTransaction(r.Context(), h.store(w, r), id, reason); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "transactions-updated")
}

// UpdateBank serves POST /payment-management/bank.
func (h *UIHandlers) UpdateBank(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	field := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	bank := model.BankSettings{
		BankName:          field("bank_name"),
		BankAccountName:   field("bank_account_name"),
		BankAccountNumber: field("bank_account_number"),
		BankIBAN:          strings.ToUpper(field("bank_iban")),
		BankSwiftCode:     strings.ToUpper(field("bank_swift_code")),
	}

	fv := validation.New().
		Validate("bank_name", bank.BankName, validation.Required("Bank name", 120)).
		Validate("bank_account_name", bank.BankAccountName, validation.Required("Account name", 120)).
		Validate("bank_account_number", bank.BankAccountNumber, validation.Optional("Account number", 64)).
		Validate("bank_iban", bank.BankIBAN, validation.Required("IBAN", 40), validation.Pattern("IBAN", ibanPattern)).
		Validate("bank_swift_code", bank.BankSwiftCode, validation.Pattern("SWIFT code", swiftPattern)).
		Validate("bank_deposit_fee", field("bank_deposit_fee"), validation.PositiveNumber("Deposit fee")).
		Validate("bank_withdrawal_fee", field("bank_withdrawal_fee"), validation.PositiveNumber("Withdrawal fee")).
		Validate("bank_commission_per_transaction", field("bank_commission_per_transaction"),
			validation.PositiveNumber("Commission"))
	bank.BankDepositFee = parseAmount(field("bank_deposit_fee"))
	bank.BankWithdrawalFee = parseAmount(field("bank_withdrawal_fee"))
	bank.BankCommissionPerTransaction = parseAmount(field("bank_commission_per_transaction"))

	renderForm := func(w http.ResponseWriter, _ *http.Request, data map[string]any) {
		h.renderFragment(w, "bank-form", data)
	}
	formData := func() *TemplateDataBuilder {
		return h.pageData(r, PageMeta{CurrentPage: PagePayments}).
			With("Bank", panel[model.BankSettings]{Data: bank})
	}
	if !fv.Valid() {
		RenderError(ErrorOpts{W: w, R: r, FieldErrors: fv.Errors(), Renderer: renderForm, Data: formData()})
		return
	}

	if err := h.API.UpdateGlobalBank(r.Context(), h.store(w, r), bank); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "bank-updated")
}

func walletFromForm(r *http.Request) (model.CryptoWallet, *validation.FieldValidator) {
	wallet := model.CryptoWallet{
		Symbol:  strings.ToUpper(strings.TrimSpace(r.PostFormValue("symbol"))),
		Address: strings.TrimSpace(r.PostFormValue("address")),
		Network: strings.TrimSpace(r.PostFormValue("network")),
	}
	fv := validation.New().
		Validate("symbol", wallet.Symbol, validation.Required("Currency", 16)).
		Validate("address", wallet.Address, validation.Required("Address", 128)).
		Validate("network", wallet.Network, validation.Required("Network", 32))
	return wallet, fv
}

func (h *UIHandlers) renderWalletErrors(w http.ResponseWriter, r *http.Request, wallet model.CryptoWallet, fv *validation.FieldValidator) {
	RenderError(ErrorOpts{
		W: w, R: r,
		FieldErrors: fv.Errors(),
		Renderer: func(w http.ResponseWriter, _ *http.Request, data map[string]any) {
			h.renderFragment(w, "wallet-form", data)
		},
		Data: h.pageData(r, PageMeta{CurrentPage: PagePayments}).With("Wallet", wallet),
	})
}

// AddWallet serves POST /payment-management/crypto.
func (h *UIHandlers) AddWallet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	wallet, fv := walletFromForm(r)
	if !fv.Valid() {
		h.renderWalletErrors(w, r, wallet, fv)
		return
	}
	if err := h.API.AddCryptoWallet(r.Context(), h.store(w, r), wallet); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "wallets-updated")
}

// UpdateWallet serves POST /payment-management/crypto/{id}.
func (h *UIHandlers) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	wallet, fv := walletFromForm(r)
	wallet.ID = id
	if !fv.Valid() {
		h.renderWalletErrors(w, r, wallet, fv)
		return
	}
	if err := h.API.UpdateCryptoWallet(r.Context(), h.store(w, r), wallet); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "wallets-updated")
}

// DeleteWallet serves POST /payment-management/crypto/{id}/delete.
func (h *UIHandlers) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := h.API.DeleteCryptoWallet(r.Context(), h.store(w, r), id); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "wallets-updated")
}
