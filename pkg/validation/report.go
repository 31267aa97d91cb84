package validation

import (
	"strings"

	"pohrebni-vence.cz/storefront/pkg/global"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RecoveryStrategy tells a client how an issue can be resolved.
type RecoveryStrategy string

const (
	RecoveryUserInput RecoveryStrategy = "user_input"
	RecoveryFallback  RecoveryStrategy = "fallback"
	RecoveryIgnore    RecoveryStrategy = "ignore"
)

// Issue is a single rule outcome.
type Issue struct {
	Field            string
	Code             string
	Severity         Severity
	Message          string
	Retryable        bool
	Recoverable      bool
	RecoveryStrategy RecoveryStrategy
	FallbackValue    any
}

// Report is the outcome of one Evaluate run. Result, Enhanced and FieldErrors
// are views of the same issue list.
type Report struct {
	Issues            []Issue
	HasRibbonSelected bool
	// RibbonText is the sanitized ribbon text, empty when none was given.
	RibbonText string
}

func (r Report) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

type Result struct {
	IsValid           bool     `json:"isValid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	HasRibbonSelected bool     `json:"hasRibbonSelected"`
}

func (r Report) Result() Result {
	res := Result{
		IsValid:           r.IsValid(),
		Errors:            []string{},
		Warnings:          []string{},
		HasRibbonSelected: r.HasRibbonSelected,
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			res.Errors = append(res.Errors, issue.Message)
		} else {
			res.Warnings = append(res.Warnings, issue.Message)
		}
	}
	return res
}

type EnhancedValidationError struct {
	Field            string           `json:"field"`
	Code             string           `json:"code"`
	Message          string           `json:"message"`
	Severity         Severity         `json:"severity"`
	Retryable        bool             `json:"retryable"`
	Recoverable      bool             `json:"recoverable"`
	RecoveryStrategy RecoveryStrategy `json:"recoveryStrategy"`
	FallbackValue    any              `json:"fallbackValue,omitempty"`
}

type EnhancedResult struct {
	IsValid           bool                      `json:"isValid"`
	Errors            []EnhancedValidationError `json:"errors"`
	Warnings          []EnhancedValidationError `json:"warnings"`
	HasRibbonSelected bool                      `json:"hasRibbonSelected"`
}

func (r Report) Enhanced() EnhancedResult {
	res := EnhancedResult{
		IsValid:           r.IsValid(),
		Errors:            []EnhancedValidationError{},
		Warnings:          []EnhancedValidationError{},
		HasRibbonSelected: r.HasRibbonSelected,
	}
	for _, issue := range r.Issues {
		e := EnhancedValidationError{
			Field:            issue.Field,
			Code:             issue.Code,
			Message:          issue.Message,
			Severity:         issue.Severity,
			Retryable:        issue.Retryable,
			Recoverable:      issue.Recoverable,
			RecoveryStrategy: issue.RecoveryStrategy,
			FallbackValue:    issue.FallbackValue,
		}
		if issue.Severity == SeverityError {
			res.Errors = append(res.Errors, e)
		} else {
			res.Warnings = append(res.Warnings, e)
		}
	}
	return res
}

// FieldErrors returns the blocking issues in the API error shape.
func (r Report) FieldErrors() []global.ValidationError {
	var out []global.ValidationError
	for _, issue := range r.Issues {
		if issue.Severity != SeverityError {
			continue
		}
		out = append(out, global.ValidationError{
			Field:   issue.Field,
			Message: issue.Message,
			Code:    issue.Code,
		})
	}
	return out
}

// Err returns the blocking issues as Errors, or nil when the report is valid.
func (r Report) Err() error {
	if r.IsValid() {
		return nil
	}
	return Errors(r.FieldErrors())
}

// Errors is a list of user-correctable field errors.
type Errors []global.ValidationError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e Errors) FieldErrors() []global.ValidationError {
	return e
}
