package value

import (
	"strconv"
	"strings"
)

// DataType is a declared column type:
// INTEGER | FLOAT | VARCHAR(n) | TEXT | BOOLEAN | DATE | TIMESTAMP.
type DataType uint8

const (
	TypeInteger DataType = iota
	TypeFloat
	TypeVarchar
	TypeText
	TypeBoolean
	TypeDate
	TypeTimestamp
)

func (d DataType) String() string {
	switch d {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeVarchar:
		return "VARCHAR"
	case TypeText:
		return "TEXT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// ColumnType pairs a DataType with VARCHAR's optional length bound.
type ColumnType struct {
	DataType DataType
	Size     int // VARCHAR(n); zero means unbounded/not applicable
}

func (c ColumnType) String() string {
	if c.DataType == TypeVarchar {
		return "VARCHAR(" + strconv.Itoa(c.Size) + ")"
	}
	return c.DataType.String()
}

// ParseDataType maps a lexed type-name token (and optional size, already
// parsed by the caller for VARCHAR) to a DataType.
func ParseDataType(name string) (DataType, bool) {
	switch strings.ToUpper(name) {
	case "INTEGER", "INT":
		return TypeInteger, true
	case "FLOAT", "REAL", "DOUBLE":
		return TypeFloat, true
	case "VARCHAR":
		return TypeVarchar, true
	case "TEXT", "STRING":
		return TypeText, true
	case "BOOLEAN", "BOOL":
		return TypeBoolean, true
	case "DATE":
		return TypeDate, true
	case "TIMESTAMP", "DATETIME":
		return TypeTimestamp, true
	default:
		return 0, false
	}
}

// Coerce converts a source Value to the declared ColumnType on write: an
// integer literal into FLOAT becomes float; a string literal into
// DATE/TIMESTAMP is parsed against the fixed layouts; a DATE value into
// TIMESTAMP becomes a timestamp at midnight; any other mismatch is a
// TypeError. VARCHAR(n) length is not checked here (the catalog reports
// an overlong string as a ConstraintError). Null coerces to null unconditionally (NOT NULL
// enforcement happens in the catalog, not here).
func Coerce(v Value, ct ColumnType) (Value, error) {
	if v.IsNull() {
		return NewNull(), nil
	}

	switch ct.DataType {
	case TypeInteger:
		switch v.Kind() {
		case Integer:
			return v, nil
		default:
			return Value{}, typeErrorf("cannot coerce %s to INTEGER", v.Kind())
		}

	case TypeFloat:
		switch v.Kind() {
		case Float:
			return v, nil
		case Integer:
			return NewFloat(float64(v.AsInt())), nil
		default:
			return Value{}, typeErrorf("cannot coerce %s to FLOAT", v.Kind())
		}

	case TypeVarchar:
		if v.Kind() != String {
			return Value{}, typeErrorf("cannot coerce %s to VARCHAR", v.Kind())
		}
		return v, nil

	case TypeText:
		if v.Kind() != String {
			return Value{}, typeErrorf("cannot coerce %s to TEXT", v.Kind())
		}
		return v, nil

	case TypeBoolean:
		if v.Kind() != Boolean {
			return Value{}, typeErrorf("cannot coerce %s to BOOLEAN", v.Kind())
		}
		return v, nil

	case TypeDate:
		switch v.Kind() {
		case Date:
			return v, nil
		case String:
			return ParseDate(v.AsString())
		default:
			return Value{}, typeErrorf("cannot coerce %s to DATE", v.Kind())
		}

	case TypeTimestamp:
		switch v.Kind() {
		case Timestamp:
			return v, nil
		case Date:
			return NewTimestamp(v.AsTime()), nil
		case String:
			return ParseTimestamp(v.AsString())
		default:
			return Value{}, typeErrorf("cannot coerce %s to TIMESTAMP", v.Kind())
		}
	}

	return Value{}, typeErrorf("unknown declared type")
}
