package models

import (
	"fmt"
	"strings"
)

// ServerError is returned when a request fails before the exchange could
// give a semantic answer: connection failure, timeout or a non-2xx status.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Body)
}

// ResponseError is returned when the exchange accepted the HTTP request but
// rejected it at the API level. Messages carries the exchange's error
// strings verbatim; classifying them as retryable or terminal is up to the
// caller.
type ResponseError struct {
	Messages []string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("api error: %s", strings.Join(e.Messages, "; "))
}

// CredentialError is returned for malformed key material. Never retried.
type CredentialError struct {
	Reason string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error: %s", e.Reason)
}

// UnknownSymbolError is returned when a symbol cannot be matched against the
// set of assets the exchange supports.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Symbol)
}

// UnparseablePairError is returned when a concatenated exchange pair string
// cannot be split into two known symbols.
type UnparseablePairError struct {
	Input string
}

func (e *UnparseablePairError) Error() string {
	return fmt.Sprintf("cannot parse pair %q", e.Input)
}

// OrderSizeError is returned by the pre-flight check when an order amount is
// below the exchange's minimum for the asset. It is raised locally, before
// any request is dispatched.
type OrderSizeError struct {
	Symbol  string
	Amount  float64
	Minimum float64
}

func (e *OrderSizeError) Error() string {
	return fmt.Sprintf("order amount %v %s is below the minimum %v", e.Amount, e.Symbol, e.Minimum)
}
