package value

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func timeFromUnixNano(ns int64) time.Time { return time.Unix(0, ns).UTC() }

// wireValue is the on-the-wire msgpack shape for a Value: a kind tag plus
// whichever single field is populated for that kind. Keeping this explicit
// (rather than relying on msgpack's interface{} guessing) means the seven
// value kinds round-trip exactly, including the Date/Timestamp distinction
// that a generic decoder would otherwise collapse to a single time type.
type wireValue struct {
	K Kind   `msgpack:"k"`
	I int64  `msgpack:"i,omitempty"`
	F float64 `msgpack:"f,omitempty"`
	S string `msgpack:"s,omitempty"`
	B bool   `msgpack:"b,omitempty"`
	T int64  `msgpack:"t,omitempty"` // unix nanos, for Date/Timestamp
}

func (v Value) MarshalMsgpack() ([]byte, error) {
	w := wireValue{K: v.kind}
	switch v.kind {
	case Integer:
		w.I = v.i
	case Float:
		w.F = v.f
	case String:
		w.S = v.s
	case Boolean:
		w.B = v.b
	case Date, Timestamp:
		w.T = v.t.UnixNano()
	}
	return msgpack.Marshal(w)
}

func (v *Value) UnmarshalMsgpack(data []byte) error {
	var w wireValue
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.K {
	case Null:
		*v = NewNull()
	case Integer:
		*v = NewInteger(w.I)
	case Float:
		*v = NewFloat(w.F)
	case String:
		*v = NewString(w.S)
	case Boolean:
		*v = NewBoolean(w.B)
	case Date:
		*v = NewDate(timeFromUnixNano(w.T))
	case Timestamp:
		*v = NewTimestamp(timeFromUnixNano(w.T))
	default:
		*v = NewNull()
	}
	return nil
}
