package evaluator

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// foldCase lowercases a string for case-insensitive comparison using
// language-neutral Unicode case mapping.
func foldCase(s string) string {
	return lowerCaser.String(s)
}

func isNumeric(obj Object) bool {
	switch obj.(type) {
	case *Integer, *Float:
		return true
	}
	return false
}

func numericValue(obj Object) float64 {
	switch v := obj.(type) {
	case *Integer:
		return float64(v.Value)
	case *Float:
		return v.Value
	}
	return 0
}

// baseObject unwraps host-supplied custom objects to their base value
func baseObject(obj Object) Object {
	if custom, ok := obj.(CustomObject); ok {
		return custom.BaseObject()
	}
	return obj
}

// typeOrder ranks types for cross-type comparison: numbers sort before
// strings, strings before booleans, booleans before everything else.
func typeOrder(obj Object) int {
	switch obj.(type) {
	case *Integer, *Float:
		return 0
	case *String:
		return 1
	case *Boolean:
		return 2
	case *Null:
		return 3
	case *Binary:
		return 4
	case *Array:
		return 5
	case *Record:
		return 6
	default:
		return 7
	}
}

// compareObjects imposes a total order on objects: -1 if a < b, 0 if equal,
// 1 if a > b. Values of different types order by type rank.
func compareObjects(a, b Object) int {
	a = baseObject(a)
	b = baseObject(b)

	if isNumeric(a) && isNumeric(b) {
		av, bv := numericValue(a), numericValue(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}

	ta, tb := typeOrder(a), typeOrder(b)
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}

	switch a := a.(type) {
	case *String:
		return strings.Compare(a.Value, b.(*String).Value)
	case *Boolean:
		bb := b.(*Boolean)
		switch {
		case !a.Value && bb.Value:
			return -1
		case a.Value && !bb.Value:
			return 1
		default:
			return 0
		}
	case *Null:
		return 0
	case *Array:
		return compareArrays(a, b.(*Array))
	default:
		return strings.Compare(a.Inspect(), b.Inspect())
	}
}

func compareArrays(a, b *Array) int {
	n := len(a.Elements)
	if len(b.Elements) < n {
		n = len(b.Elements)
	}
	for i := 0; i < n; i++ {
		if c := compareObjects(a.Elements[i], b.Elements[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.Elements) < len(b.Elements):
		return -1
	case len(a.Elements) > len(b.Elements):
		return 1
	default:
		return 0
	}
}

// objectsEqual reports deep equality between two objects
func objectsEqual(a, b Object) bool {
	a = baseObject(a)
	b = baseObject(b)

	if isNumeric(a) && isNumeric(b) {
		return numericValue(a) == numericValue(b)
	}

	switch a := a.(type) {
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value == bs.Value
	case *Binary:
		bb, ok := b.(*Binary)
		return ok && string(a.Value) == string(bb.Value)
	case *Array:
		ba, ok := b.(*Array)
		if !ok || len(a.Elements) != len(ba.Elements) {
			return false
		}
		for i := range a.Elements {
			if !objectsEqual(a.Elements[i], ba.Elements[i]) {
				return false
			}
		}
		return true
	case *Record:
		br, ok := b.(*Record)
		if !ok || a.Len() != br.Len() {
			return false
		}
		for _, key := range a.Keys() {
			av, _ := a.Get(key)
			bv, ok := br.Get(key)
			if !ok || !objectsEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// sortableString returns the string representation used by natural-order
// comparison. The second return is false for values that have none, which
// makes such pairs compare as ties.
func sortableString(obj Object) (string, bool) {
	switch v := baseObject(obj).(type) {
	case *String:
		return v.Value, true
	case *Integer:
		return strconv.FormatInt(v.Value, 10), true
	case *Float:
		return strconv.FormatFloat(v.Value, 'g', -1, 64), true
	case *Boolean:
		return strconv.FormatBool(v.Value), true
	default:
		return "", false
	}
}

// NaturalCompare orders strings so that embedded numbers compare by value:
// "file2" sorts before "file10". Digit runs compare by their value (longer
// run of significant digits wins, then digit-by-digit); non-digit runes
// compare by code point. Returns -1, 0, or 1.
func NaturalCompare(a, b string) int {
	if a == b {
		return 0
	}
	// ASCII inputs take the byte-wise path
	if isASCII(a) && isASCII(b) {
		return naturalCompareASCII(a, b)
	}
	return naturalCompareRunes(a, b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func naturalCompareASCII(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]

		if isASCIIDigit(ca) && isASCIIDigit(cb) {
			// Compare whole digit runs by numeric value
			si, sj := i, j
			for i < len(a) && isASCIIDigit(a[i]) {
				i++
			}
			for j < len(b) && isASCIIDigit(b[j]) {
				j++
			}
			if c := compareDigitRuns(a[si:i], b[sj:j]); c != 0 {
				return c
			}
			continue
		}

		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	default:
		return 0
	}
}

func naturalCompareRunes(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]

		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			si, sj := i, j
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigitRuns(string(ra[si:i]), string(rb[sj:j])); c != 0 {
				return c
			}
			continue
		}

		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	default:
		return 0
	}
}

// compareDigitRuns compares two runs of decimal digits by numeric value.
// Leading zeros are skipped for magnitude, then used as a tiebreak so that
// "01" and "1" do not collapse into one key.
func compareDigitRuns(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")

	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	// Equal value: fewer leading zeros sorts first
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// copyObject makes a deep copy of containers so that pipeline stages can
// mutate an element without aliasing the caller's value. Scalars are
// immutable and shared.
func copyObject(obj Object) Object {
	switch v := obj.(type) {
	case *Array:
		elements := make([]Object, len(v.Elements))
		for i, e := range v.Elements {
			elements[i] = copyObject(e)
		}
		return &Array{Elements: elements}
	case *Record:
		out := NewRecord()
		for _, key := range v.Keys() {
			val, _ := v.Get(key)
			out.Set(key, copyObject(val))
		}
		return out
	case *Binary:
		data := make([]byte, len(v.Value))
		copy(data, v.Value)
		return &Binary{Value: data}
	default:
		return obj
	}
}
