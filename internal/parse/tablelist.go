package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/antonholmquist/jason"
)

// ErrDecode marks every failure of DecodeTableList.
var ErrDecode = errors.New("decode error")

// DecodeError reports a table list cell that could not be decoded.
type DecodeError struct {
	Cell string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode table list %q: %v", truncate(e.Cell, 64), e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// TableSpec is one entry of a map row's embedded table list.
type TableSpec struct {
	ID     int
	Max    int
	Min    int  // equals Max when the export has no usable min
	MinSet bool // the export gave a positive min
}

// literal tokens of the export dialect and their strict spelling
var dialectTokens = map[string]string{
	"None":  "null",
	"True":  "true",
	"False": "false",
}

// DecodeTableList decodes a cell such as
//
//	[{'id_table': '5', 'max': '4', 'min': None}, {'id_table': 6, 'max': 2}]
//
// into table specs. The export writes single-quoted strings and None/True/False,
// so the cell is rewritten to strict JSON before parsing.
//
// A cell that is not a list of objects fails with a *DecodeError. Entries
// that lack a usable id or capacity are left out and reported in skipped,
// one *DecodeError per entry.
func DecodeTableList(cell string) (specs []TableSpec, skipped []error, err error) {
	strict, err := rewriteDialect(cell)
	if err != nil {
		return nil, nil, &DecodeError{Cell: cell, Err: err}
	}

	value, err := jason.NewValueFromBytes([]byte(strict))
	if err != nil {
		return nil, nil, &DecodeError{Cell: cell, Err: err}
	}
	values, err := value.Array()
	if err != nil {
		return nil, nil, &DecodeError{Cell: cell, Err: err}
	}

	specs = make([]TableSpec, 0, len(values))
	for i, v := range values {
		entry, err := v.Object()
		if err != nil {
			return nil, nil, &DecodeError{Cell: cell, Err: fmt.Errorf("entry %d is not an object: %w", i, err)}
		}
		spec, err := decodeEntry(entry)
		if err != nil {
			skipped = append(skipped, &DecodeError{Cell: cell, Err: fmt.Errorf("entry %d: %w", i, err)})
			continue
		}
		specs = append(specs, spec)
	}
	return specs, skipped, nil
}

func decodeEntry(entry *jason.Object) (TableSpec, error) {
	id, err := intField(entry, "id_table")
	if err != nil {
		return TableSpec{}, err
	}
	maxCap, err := intField(entry, "max")
	if err != nil {
		return TableSpec{}, err
	}
	if maxCap < 0 {
		return TableSpec{}, fmt.Errorf("max must not be negative, got %d", maxCap)
	}

	spec := TableSpec{ID: id, Max: maxCap, Min: maxCap}
	if v, err := intField(entry, "min"); err == nil && v > 0 {
		spec.Min = v
		spec.MinSet = true
	}
	return spec, nil
}

// intField reads an integer that the export may write as a number or a
// numeric string. Integral decimals such as "5.0" are accepted.
func intField(obj *jason.Object, key string) (int, error) {
	v, err := obj.GetValue(key)
	if err != nil {
		return 0, fmt.Errorf("missing %q", key)
	}
	n, err := v.Float64()
	if err != nil {
		s, serr := v.String()
		if serr != nil {
			return 0, fmt.Errorf("%q is neither a number nor a string", key)
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%q is not numeric: %q", key, s)
		}
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("%q is not an integer: %v", key, n)
	}
	return int(n), nil
}

// rewriteDialect converts single-quoted strings to double-quoted ones and
// replaces None/True/False outside string literals.
func rewriteDialect(cell string) (string, error) {
	src := []rune(strings.TrimSpace(cell))
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			end, err := writeString(&b, src, i)
			if err != nil {
				return "", err
			}
			i = end
		case unicode.IsLetter(c):
			j := i
			for j < len(src) && (unicode.IsLetter(src[j]) || unicode.IsDigit(src[j]) || src[j] == '_') {
				j++
			}
			word := string(src[i:j])
			if strict, ok := dialectTokens[word]; ok {
				word = strict
			}
			b.WriteString(word)
			i = j
		default:
			b.WriteRune(c)
			i++
		}
	}
	return b.String(), nil
}

// writeString copies the string literal starting at src[start] as a
// double-quoted literal and returns the index just past its closing quote.
func writeString(b *strings.Builder, src []rune, start int) (int, error) {
	quote := src[start]
	b.WriteRune('"')
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			next := src[i+1]
			if next == '\'' {
				b.WriteRune('\'')
			} else {
				b.WriteRune(c)
				b.WriteRune(next)
			}
			i++
		case c == quote:
			b.WriteRune('"')
			return i + 1, nil
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(c)
		}
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
