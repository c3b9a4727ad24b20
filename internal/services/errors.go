package services

import (
	dataagg "github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
)

func errValidation(op, msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
}

func errNotFound(op, msg string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, msg, nil)
}

func errForbidden(op, msg string) error {
	return domainagg.NewError(domainagg.CodeForbidden, op, msg, nil)
}

func errAuthentication(op string, cause error) error {
	return domainagg.NewError(domainagg.CodeAuthentication, op, "authentication failed", cause)
}

// errStore classifies a store failure; coded errors pass through.
func errStore(op string, cause error) error {
	return dataagg.MapError(op, cause)
}

func errUpstream(op string, cause error) error {
	return domainagg.NewError(domainagg.CodeRetryable, op, "upstream unavailable", cause)
}

func domainInternal(op string, cause error) error {
	return domainagg.NewError(domainagg.CodeInternal, op, "internal error", cause)
}
