package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
)

// Sentinels for aggregate bodies. Join them with a message through the
// constructors below; MapError turns them into codes.
var (
	ErrValidation = errors.New("aggregate validation")
	ErrInvariant  = errors.New("aggregate invariant violation")
	ErrConflict   = errors.New("aggregate conflict")
	ErrRetryable  = errors.New("aggregate retryable")
)

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }
func RetryableError(msg string) error  { return tagged(ErrRetryable, msg) }

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

var sentinelCodes = []struct {
	target error
	code   domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

// Postgres SQLSTATEs with a fixed meaning here. Class 08 (connection) is
// handled separately.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
	"57014": domainagg.CodeRetryable,          // query_canceled
}

// Driver messages for when the error is not a *pgconn.PgError (sqlite in
// tests, wrapped driver errors).
var messageCodes = []struct {
	fragments []string
	code      domainagg.ErrorCode
}{
	{[]string{"duplicate key", "unique constraint failed", "already exists"}, domainagg.CodeConflict},
	{[]string{"deadlock", "serialization", "database is locked", "connection refused", "bad connection", "timeout", "temporar"}, domainagg.CodeRetryable},
}

// MapError gives err a code. Errors that already carry one pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *domainagg.Error
	if errors.As(err, &coded) {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.target) {
			return sc.code
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return domainagg.CodeRetryable
		}
	}
	msg := strings.ToLower(err.Error())
	for _, mc := range messageCodes {
		for _, frag := range mc.fragments {
			if strings.Contains(msg, frag) {
				return mc.code
			}
		}
	}
	return domainagg.CodeInternal
}
