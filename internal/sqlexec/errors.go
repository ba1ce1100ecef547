package sqlexec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	// KindSyntax covers statements the model got wrong: malformed SQL,
	// unknown columns or tables, grouping and DISTINCT/ORDER BY mismatches,
	// and statements rejected before execution. A simpler query may succeed.
	KindSyntax Kind = "syntax"
	// KindExecution is everything else. Retrying will not help.
	KindExecution Kind = "execution"
)

// CodeStatementRejected marks statements refused by CheckStatement.
const CodeStatementRejected = "statement_rejected"

// SQLSTATE codes classified as KindSyntax.
var syntaxCodes = map[string]bool{
	"42601": true, // syntax_error
	"42703": true, // undefined_column
	"42P01": true, // undefined_table
	"42P10": true, // invalid_column_reference
	"42803": true, // grouping_error
}

// Used only when the driver gives no SQLSTATE.
var syntaxFragments = []string{
	"syntax error",
	"does not exist",
	"order by expressions must appear",
	"invalidcolumnreference",
	"must appear in the group by clause",
}

// Error is a classified statement failure.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sql %s error (%s): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("sql %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a driver error onto the taxonomy. It returns nil for nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := KindExecution
		if syntaxCodes[pgErr.Code] {
			kind = KindSyntax
		}
		return &Error{Kind: kind, Code: pgErr.Code, Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, frag := range syntaxFragments {
		if strings.Contains(msg, frag) {
			return &Error{Kind: KindSyntax, Err: err}
		}
	}
	return &Error{Kind: KindExecution, Err: err}
}

func IsSyntax(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindSyntax
}

func IsExecution(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindExecution
}
