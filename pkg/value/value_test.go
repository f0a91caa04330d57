package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareCrossNumeric(t *testing.T) {
	cmp, err := Compare(NewInteger(3), NewFloat(3.5))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestCompareIncompatibleKinds(t *testing.T) {
	_, err := Compare(NewString("a"), NewInteger(1))
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestEqualThreeValued(t *testing.T) {
	_, known := Equal(NewNull(), NewInteger(1))
	require.False(t, known, "NULL = x must be unknown")

	eq, known := Equal(NewInteger(1), NewInteger(1))
	require.True(t, known)
	require.True(t, eq)
}

func TestEqualForGroupingNullEqualsNull(t *testing.T) {
	require.True(t, EqualForGrouping(NewNull(), NewNull()))
	require.False(t, EqualForGrouping(NewNull(), NewInteger(0)))
}

func TestLikePattern(t *testing.T) {
	require.True(t, Like("hello world", "hel%"))
	require.True(t, Like("hello", "h_llo"))
	require.False(t, Like("Hello", "hello"), "LIKE is case-sensitive")
	require.True(t, Like("", "%"))
}

func TestCoerceIntegerToFloat(t *testing.T) {
	v, err := Coerce(NewInteger(5), ColumnType{DataType: TypeFloat})
	require.NoError(t, err)
	require.Equal(t, Float, v.Kind())
	require.Equal(t, 5.0, v.AsFloat())
}

func TestCoerceStringToInteger(t *testing.T) {
	_, err := Coerce(NewString("5"), ColumnType{DataType: TypeInteger})
	require.Error(t, err)
}

func TestCoerceVarcharLength(t *testing.T) {
	_, err := Coerce(NewString("hello"), ColumnType{DataType: TypeVarchar, Size: 5})
	require.NoError(t, err)

	// Coerce checks kind only; the catalog enforces the length bound and
	// reports an overlong string as a ConstraintError.
	_, err = Coerce(NewString("hello!"), ColumnType{DataType: TypeVarchar, Size: 5})
	require.NoError(t, err)
}

func TestCheckedIntegerOverflow(t *testing.T) {
	_, err := CheckedAdd(1<<62, 1<<62)
	require.Error(t, err)

	r, err := CheckedAdd(2, 3)
	require.NoError(t, err)
	require.Equal(t, int64(5), r)
}

func TestValueMsgpackRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)

	data, err := d.MarshalMsgpack()
	require.NoError(t, err)

	var out Value
	require.NoError(t, out.UnmarshalMsgpack(data))
	require.Equal(t, Date, out.Kind())
	require.Equal(t, d.String(), out.String())
}
