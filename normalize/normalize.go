// Package normalize converts driver-native row values into the uniform
// representation the API returns: string, float64, time.Time or nil.
package normalize

import (
	"math/big"
	"reflect"
	"time"

	"github.com/aidenappl/tracequery/structs"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnknownValueType is returned for a value the normalizer cannot convert
	ErrUnknownValueType = errors.NewKind("unknown value type %T in field %q")

	// ErrNonFiniteNumeric is returned for a NaN or infinite numeric, which the
	// JSON response cannot carry
	ErrNonFiniteNumeric = errors.NewKind("non-finite numeric %s in field %q")
)

// Rows normalizes every field of every row
func Rows(rows []map[string]any) ([]structs.DatabaseRow, error) {
	out := make([]structs.DatabaseRow, 0, len(rows))
	for _, row := range rows {
		normalized, err := Row(row)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

// Row normalizes one row
func Row(row map[string]any) (structs.DatabaseRow, error) {
	out := make(structs.DatabaseRow, len(row))
	for field, v := range row {
		nv, err := value(field, v)
		if err != nil {
			return nil, err
		}
		out[field] = nv
	}
	return out, nil
}

// value converts a single field. 64-bit integers above 2^53 lose precision.
func value(field string, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case time.Time:
		return x, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case *big.Int:
		if x == nil {
			return nil, nil
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, nil
	case big.Int:
		f, _ := new(big.Float).SetInt(&x).Float64()
		return f, nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case decimal.NullDecimal:
		if !x.Valid {
			return nil, nil
		}
		return x.Decimal.InexactFloat64(), nil
	case pgtype.Numeric:
		return numeric(field, x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		return value(field, rv.Elem().Interface())
	}

	return nil, ErrUnknownValueType.New(v, field)
}

// numeric converts a Postgres numeric through an exact decimal
func numeric(field string, n pgtype.Numeric) (any, error) {
	switch {
	case !n.Valid:
		return nil, nil
	case n.NaN:
		return nil, ErrNonFiniteNumeric.New("NaN", field)
	case n.InfinityModifier == pgtype.Infinity:
		return nil, ErrNonFiniteNumeric.New("Infinity", field)
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return nil, ErrNonFiniteNumeric.New("-Infinity", field)
	case n.Int == nil:
		return float64(0), nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).InexactFloat64(), nil
}
