package paystack

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Resolution is the account holder lookup result.
type Resolution struct {
	AccountName string `json:"account_name"`
	// Data is the full provider payload.
	Data any `json:"data"`
}

// Resolver maps an account number and bank code to the holder's name. It
// never caches.
type Resolver struct {
	Client *Client
}

// ResolveAccount looks up the account holder. Input is validated before the
// credential is checked, so bad input never reaches the provider.
func (r *Resolver) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*Resolution, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	bankCode = strings.TrimSpace(bankCode)
	if accountNumber == "" || bankCode == "" {
		return nil, &ProxyError{Kind: KindValidation, Status: http.StatusBadRequest, Message: MsgMissingAccountArgs}
	}

	if r == nil || !r.Client.HasCredential() {
		return nil, configurationError()
	}

	query := url.Values{}
	query.Set("account_number", accountNumber)
	query.Set("bank_code", bankCode)

	resp, err := r.Client.get(ctx, "resolve_account", "/bank/resolve", query)
	if err != nil {
		return nil, serverError(MsgVerifyServer, err)
	}
	if !resp.ok() {
		return nil, &ProxyError{
			Kind:    KindUpstream,
			Status:  resp.Status,
			Message: upstreamMessage(resp.Body, MsgVerifyUpstream),
			Data:    resp.Body,
		}
	}

	return &Resolution{AccountName: accountName(resp.Body), Data: resp.Body}, nil
}

// ResolveByBankName matches bankName in dir and resolves the account against
// the matched bank code.
func (r *Resolver) ResolveByBankName(ctx context.Context, dir *Directory, accountNumber, bankName string) (Bank, *Resolution, error) {
	bank, err := dir.FindBank(ctx, bankName)
	if err != nil {
		return Bank{}, nil, err
	}
	res, err := r.ResolveAccount(ctx, accountNumber, bank.Code)
	if err != nil {
		return bank, nil, err
	}
	return bank, res, nil
}

func accountName(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(data, "account_name")
}
