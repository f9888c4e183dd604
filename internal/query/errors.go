package query

import (
	"errors"
	"fmt"
)

var (
	// ErrNonUniqueResult is returned by FetchOne when more than one row matches.
	ErrNonUniqueResult = errors.New("query: non-unique result")
	// ErrInvalidPredicate marks predicates rejected at construction time.
	ErrInvalidPredicate = errors.New("query: invalid predicate")
	// ErrTemplateArity is returned when template placeholders and arguments disagree.
	ErrTemplateArity = errors.New("query: template placeholder count mismatch")
	// ErrNoTransaction is returned by write clauses executed outside a transaction.
	ErrNoTransaction = errors.New("query: write requires an active transaction")
	// ErrNoSource is returned when a query has no FROM entity.
	ErrNoSource = errors.New("query: no source entity")
	// ErrStorage marks failures reported by the underlying store.
	ErrStorage = errors.New("query: storage failure")
)

// PredicateError describes why a predicate or clause was rejected.
type PredicateError struct {
	Expr   string
	Reason string
}

func (e *PredicateError) Error() string {
	if e.Expr == "" {
		return "invalid predicate: " + e.Reason
	}
	return fmt.Sprintf("invalid predicate %s: %s", e.Expr, e.Reason)
}

func (e *PredicateError) Is(target error) bool { return target == ErrInvalidPredicate }

func invalid(expr, format string, args ...any) error {
	return &PredicateError{Expr: expr, Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps an error returned by the database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError wraps err as a storage failure of op. A nil err stays nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
