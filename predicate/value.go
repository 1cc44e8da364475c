package predicate

import (
	"encoding/binary"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Ordering of scalar values.
//
// A value is numeric when it is a number or a string holding a finite
// decimal. Two numeric values compare as exact decimals, so "07" == 7,
// "10" > "9" and 9007199254740993 != 9007199254740992. In every other case
// both sides are compared as strings, booleans rendering as "true" /
// "false". Zero padded numeric strings therefore keep their lexicographic
// meaning while unpadded ones still order correctly.

// IsScalar reports whether v can take part in comparisons.
func IsScalar(v any) bool {
	_, ok := text(v)
	return ok
}

// Compare orders a against b. ok is false when either side is not a scalar.
func Compare(a, b any) (c int, ok bool) {
	if da, aok := numeric(a); aok {
		if db, bok := numeric(b); bok {
			return da.Cmp(db), true
		}
	}
	sa, aok := text(a)
	sb, bok := text(b)
	if !aok || !bok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

// numeric parses v as an exact decimal. Native floats go through their
// shortest decimal rendering.
func numeric(v any) (*apd.Decimal, bool) {
	switch v.(type) {
	case bool, nil:
		return nil, false
	}
	s, ok := text(v)
	if !ok || s == "" {
		return nil, false
	}
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return nil, false
	}
	return d, true
}

func text(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return string(v), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(v), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(v), 10), true
	}
	return "", false
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func toUint64(v any) uint64 {
	switch v := v.(type) {
	case uint:
		return uint64(v)
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	}
	return 0
}

// Lookup resolves a dotted path such as "category.name" inside doc. A key
// that literally contains the dots is accepted when no nested path exists.
func Lookup(doc map[string]any, path string) (any, bool) {
	if doc == nil || path == "" {
		return nil, false
	}
	var cur any = doc
	found := true
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			found = false
			break
		}
		cur, ok = m[part]
		if !ok {
			found = false
			break
		}
	}
	if !found {
		cur, found = doc[path]
	}
	if !found || cur == nil {
		return nil, false
	}
	return cur, true
}

const (
	tagMissing = '-'
	tagNumber  = 'n'
	tagString  = 's'
)

// EncodeMissing is the segment for an absent value. It sorts before every
// value EncodeKey produces.
func EncodeMissing() []byte {
	return terminate(tagMissing, nil)
}

// EncodeKey renders a scalar as a self-terminating key segment whose byte
// order follows Compare for values of the same kind: numbers sort numerically
// and before strings, strings sort lexicographically. Segments can be
// concatenated and a segment is never a prefix of a different one, so
// equality prefixes scan exactly.
func EncodeKey(v any) ([]byte, bool) {
	if d, ok := numeric(v); ok {
		return terminate(tagNumber, encodeDecimal(d)), true
	}
	s, ok := text(v)
	if !ok {
		return nil, false
	}
	return terminate(tagString, []byte(s)), true
}

const (
	signNegative = 0x01
	signZero     = 0x02
	signPositive = 0x03
)

// encodeDecimal writes d as sign, then the magnitude 0.DDD x 10^E as E in
// eight sign-flipped big endian bytes followed by the significant digits with
// trailing zeros removed. Negative magnitudes are written complemented and
// closed with 0xff so that larger magnitudes sort first.
func encodeDecimal(d *apd.Decimal) []byte {
	var r apd.Decimal
	r.Reduce(d)
	if r.IsZero() {
		return []byte{signZero}
	}

	digits := r.Coeff.String()
	exp := int64(r.Exponent) + int64(len(digits))

	out := make([]byte, 0, 10+len(digits))
	if r.Negative {
		out = append(out, signNegative)
	} else {
		out = append(out, signPositive)
	}
	out = binary.BigEndian.AppendUint64(out, uint64(exp)^(1<<63))
	out = append(out, digits...)
	if r.Negative {
		for i := 1; i < len(out); i++ {
			out[i] = ^out[i]
		}
		out = append(out, 0xff)
	}
	return out
}

// terminate escapes 0x00 as 0x00 0xff and closes the segment with 0x00 0x00.
func terminate(tag byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, tag)
	for _, c := range payload {
		out = append(out, c)
		if c == 0x00 {
			out = append(out, 0xff)
		}
	}
	return append(out, 0x00, 0x00)
}
