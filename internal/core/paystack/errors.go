package paystack

import (
	"fmt"
	"net/http"
)

// Kind classifies a proxy failure.
type Kind string

const (
	// KindConfiguration means the server is missing the provider credential.
	KindConfiguration Kind = "configuration"
	// KindUpstream means the provider answered with a non-2xx status.
	KindUpstream Kind = "upstream"
	// KindValidation means the caller supplied unusable input.
	KindValidation Kind = "validation"
	// KindServer covers transport failures and unexpected local errors.
	KindServer Kind = "server"
)

// Messages returned to callers. They are part of the public contract.
const (
	MsgMissingSecretKey   = "Missing Paystack secret key on server"
	MsgBanksUpstream      = "Failed to fetch banks from Paystack"
	MsgBanksServer        = "Server error fetching banks"
	MsgMissingAccountArgs = "Missing account_number or bank_code"
	MsgVerifyUpstream     = "Paystack verify error"
	MsgVerifyServer       = "Server error while verifying account"
	MsgBankNotSupported   = "Bank not supported for automatic verification"
)

// ProxyError is the single failure type of the directory and resolver proxies.
type ProxyError struct {
	Kind    Kind
	Status  int
	Message string
	// Data is the decoded upstream payload, when one was received.
	Data any
	Err  error
}

func (e *ProxyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("paystack %s error (%d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("paystack %s error (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *ProxyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configurationError() *ProxyError {
	return &ProxyError{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: MsgMissingSecretKey}
}

func serverError(message string, err error) *ProxyError {
	return &ProxyError{Kind: KindServer, Status: http.StatusInternalServerError, Message: message, Err: err}
}
