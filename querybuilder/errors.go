package querybuilder

import (
	stderrors "errors"

	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrTableNotFound is returned when the request's from is not a registered table
	ErrTableNotFound = tables.ErrTableNotFound

	// ErrColumnNotFound is returned when a filter, group by, select or order by
	// names a column the table does not declare
	ErrColumnNotFound = tables.ErrColumnNotFound

	// ErrUnsupportedQuery is returned for query shapes the builder cannot express
	ErrUnsupportedQuery = errors.NewKind("unsupported query: %s")

	// ErrMismatchedRange is returned when the date range bounds and the datetime
	// group by do not all name the same column
	ErrMismatchedRange = errors.NewKind("date range filters on %q and %q must be on the group by column %q")

	// ErrTooManyBuckets is returned when a date series would be too long
	ErrTooManyBuckets = errors.NewKind("date series would produce %d buckets (max %d); use a larger temporal unit or a smaller range")

	// ErrMissingTenant is returned when no project id is supplied
	ErrMissingTenant = errors.NewKind("a project id is required to scope the query")

	// ErrDuplicateTenantFilter is returned when the request filters on the project column itself
	ErrDuplicateTenantFilter = errors.NewKind("filtering on %s is not allowed; the project is set by the caller")
)

var clientErrors = []*errors.Kind{
	structs.ErrInvalidRequest,
	ErrTableNotFound,
	ErrColumnNotFound,
	ErrUnsupportedQuery,
	ErrMismatchedRange,
	ErrTooManyBuckets,
	ErrMissingTenant,
	ErrDuplicateTenantFilter,
}

// IsClientError reports whether err was caused by the request rather than the store
func IsClientError(err error) bool {
	for ; err != nil; err = stderrors.Unwrap(err) {
		for _, k := range clientErrors {
			if k.Is(err) {
				return true
			}
		}
	}
	return false
}
