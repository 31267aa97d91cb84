package global

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// FieldErrorer is implemented by errors that carry user-correctable field errors.
type FieldErrorer interface {
	error
	FieldErrors() []ValidationError
}

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
	KindInternal   ErrorKind = "internal"
)

// Classification is how an error is presented to an API caller.
type Classification struct {
	Kind        ErrorKind
	Status      int
	Retryable   bool
	Message     string
	Errors      []ValidationError
	Suggestions []string
}

func (c Classification) Response() APIResponse {
	return APIResponse{
		Success:     false,
		Message:     c.Message,
		Errors:      c.Errors,
		Retryable:   c.Retryable,
		Suggestions: c.Suggestions,
	}
}

// ClassifyError maps err onto the API error taxonomy. Persistence and unknown
// errors get a generic message; the original error must be logged by the caller.
func ClassifyError(err error, locale string) Classification {
	msgs := errorCopy(locale)

	var fe FieldErrorer
	switch {
	case errors.As(err, &fe):
		return Classification{
			Kind:    KindValidation,
			Status:  http.StatusBadRequest,
			Message: msgs.validation,
			Errors:  fe.FieldErrors(),
		}
	case errors.Is(err, ErrNotFound):
		return Classification{Kind: KindNotFound, Status: http.StatusNotFound, Message: msgs.notFound}
	case errors.Is(err, ErrConflict):
		return Classification{Kind: KindConflict, Status: http.StatusConflict, Message: msgs.conflict}
	case isTimeout(err):
		return Classification{
			Kind:        KindTimeout,
			Status:      http.StatusRequestTimeout,
			Retryable:   true,
			Message:     msgs.timeout,
			Suggestions: msgs.timeoutHints,
		}
	case isNetwork(err):
		return Classification{
			Kind:        KindNetwork,
			Status:      http.StatusServiceUnavailable,
			Retryable:   true,
			Message:     msgs.network,
			Suggestions: msgs.networkHints,
		}
	}
	return Classification{Kind: KindInternal, Status: http.StatusInternalServerError, Message: msgs.internal}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isNetwork(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"network", "connection refused", "connection reset", "no such host", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

type errorMessages struct {
	validation   string
	notFound     string
	conflict     string
	timeout      string
	network      string
	internal     string
	timeoutHints []string
	networkHints []string
}

var errorMessagesByLocale = map[string]errorMessages{
	"cs": {
		validation: "Zkontrolujte prosím zadané údaje.",
		notFound:   "Požadovaná položka nebyla nalezena.",
		conflict:   "Požadavek je v konfliktu s aktuálním stavem.",
		timeout:    "Požadavek trval příliš dlouho.",
		network:    "Služba je dočasně nedostupná.",
		internal:   "Došlo k neočekávané chybě. Zkuste to prosím později.",
		timeoutHints: []string{
			"Zkuste akci zopakovat za několik sekund.",
			"Zkontrolujte své internetové připojení.",
		},
		networkHints: []string{
			"Zkuste akci zopakovat za chvíli.",
			"Pokud problém přetrvává, kontaktujte nás telefonicky.",
		},
	},
	"en": {
		validation: "Please check the submitted data.",
		notFound:   "The requested item was not found.",
		conflict:   "The request conflicts with the current state.",
		timeout:    "The request took too long.",
		network:    "The service is temporarily unavailable.",
		internal:   "An unexpected error occurred. Please try again later.",
		timeoutHints: []string{
			"Try again in a few seconds.",
			"Check your internet connection.",
		},
		networkHints: []string{
			"Try again in a moment.",
			"If the problem persists, contact us by phone.",
		},
	},
}

func errorCopy(locale string) errorMessages {
	return errorMessagesByLocale[NormalizeLocale(locale)]
}
