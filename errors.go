package gqlwire

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/nats-io/nats.go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/c360/gqlwire/errors"
)

// convertErrors turns engine errors into gqlerror values with an
// extensions.code derived from the underlying cause.
func convertErrors(errs []gqlerrors.FormattedError, operation, requestID string) gqlerror.List {
	if len(errs) == 0 {
		return nil
	}

	list := make(gqlerror.List, 0, len(errs))
	for _, fe := range errs {
		ge := &gqlerror.Error{
			Message:    fe.Message,
			Path:       convertPath(fe.Path),
			Extensions: make(map[string]any, len(fe.Extensions)+3),
		}
		for _, loc := range fe.Locations {
			ge.Locations = append(ge.Locations, gqlerror.Location{Line: loc.Line, Column: loc.Column})
		}
		for k, v := range fe.Extensions {
			ge.Extensions[k] = v
		}

		if cause := originalError(fe); cause != nil {
			mapped := mapError(cause)
			ge.Message = mapped.message
			ge.Extensions["code"] = mapped.code
			if mapped.retryable {
				ge.Extensions["retryable"] = true
			}
		} else if _, ok := ge.Extensions["code"]; !ok {
			ge.Extensions["code"] = "GRAPHQL_VALIDATION_FAILED"
		}
		ge.Extensions["operation"] = operation
		ge.Extensions["request_id"] = requestID
		list = append(list, ge)
	}
	return list
}

// originalError returns the resolver error behind a formatted error, or nil
// for syntax and validation errors.
func originalError(fe gqlerrors.FormattedError) error {
	err := fe.OriginalError()
	var located *gqlerrors.Error
	if stderrors.As(err, &located) {
		err = located.OriginalError
	}
	return err
}

func convertPath(path []any) ast.Path {
	if len(path) == 0 {
		return nil
	}
	out := make(ast.Path, 0, len(path))
	for _, p := range path {
		switch v := p.(type) {
		case int:
			out = append(out, ast.PathIndex(v))
		case string:
			out = append(out, ast.PathName(v))
		default:
			out = append(out, ast.PathName(fmt.Sprint(v)))
		}
	}
	return out
}

type mappedError struct {
	code      string
	message   string
	retryable bool
}

// mapError picks the code for a resolver error: NATS and context errors
// first, then JSON decoding errors, then the error class.
func mapError(err error) mappedError {
	switch {
	case stderrors.Is(err, nats.ErrTimeout):
		return mappedError{code: "TIMEOUT", message: "Query timeout - please try again", retryable: true}
	case stderrors.Is(err, nats.ErrNoResponders):
		return mappedError{code: "SERVICE_UNAVAILABLE", message: "Service unavailable - no responders for query", retryable: true}
	case stderrors.Is(err, nats.ErrConnectionClosed):
		return mappedError{code: "CONNECTION_CLOSED", message: "Connection closed - please retry", retryable: true}
	case stderrors.Is(err, context.DeadlineExceeded):
		return mappedError{code: "DEADLINE_EXCEEDED", message: "Query timeout exceeded"}
	case stderrors.Is(err, context.Canceled):
		return mappedError{code: "CANCELLED", message: "Query cancelled"}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		return mappedError{code: "INVALID_RESPONSE", message: "Invalid response format from service"}
	case stderrors.As(err, &typeErr):
		return mappedError{code: "INVALID_RESPONSE_TYPE",
			message: fmt.Sprintf("Invalid response type: expected %s, got %s", typeErr.Type, typeErr.Value)}
	}

	var classified *errors.ClassifiedError
	if stderrors.As(err, &classified) {
		switch classified.Class {
		case errors.ErrorInvalid:
			return mappedError{code: "INVALID_INPUT", message: fmt.Sprintf("Invalid input: %s", err.Error())}
		case errors.ErrorFatal:
			return mappedError{code: "INTERNAL_ERROR", message: "Internal server error"}
		default:
			return mappedError{code: "TRANSIENT_ERROR", message: fmt.Sprintf("Temporary error: %s", err.Error()), retryable: true}
		}
	}

	switch {
	case errors.IsInvalid(err):
		return mappedError{code: "INVALID_INPUT", message: fmt.Sprintf("Invalid input: %s", err.Error())}
	case errors.IsFatal(err):
		return mappedError{code: "INTERNAL_ERROR", message: "Internal server error"}
	case errors.IsTransient(err):
		return mappedError{code: "TRANSIENT_ERROR", message: fmt.Sprintf("Temporary error: %s", err.Error()), retryable: true}
	}
	return mappedError{code: "QUERY_ERROR", message: fmt.Sprintf("Query failed: %s", err.Error())}
}
