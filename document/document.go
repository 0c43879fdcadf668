// Package document defines the normalized output unit produced by document sources.
package document

import (
	"bytes"
	"encoding/json"
	"unicode/utf16"
)

// Metadata is attached to every document produced by a single load call.
type Metadata struct {
	User   string  `json:"user"`
	DBName string  `json:"db_name"`
	Query  *string `json:"query"` // nil for a full scan
}

// Map returns metadata as a generic map, with a nil query kept as an untyped nil.
func (m Metadata) Map() map[string]interface{} {
	var q interface{}
	if m.Query != nil {
		q = *m.Query
	}
	return map[string]interface{}{
		"user":    m.User,
		"db_name": m.DBName,
		"query":   q,
	}
}

// Document is a record serialized to text together with call-level metadata.
type Document struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	ExtraInfo Metadata `json:"extra_info"`
}

// New renders a raw JSON record into a document.
func New(id string, raw json.RawMessage, meta Metadata) (Document, error) {
	text, err := Text(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Text: text, ExtraInfo: meta}, nil
}

// Text renders a raw JSON value with ", " and ": " separators.
// Key order and number literals are kept as is. Strings are re-quoted with
// every character outside printable ASCII escaped as \uXXXX, using surrogate
// pairs above U+FFFF. Empty input renders as null.
func Text(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	src := buf.Bytes()
	out := make([]byte, 0, len(src)+len(src)/4)
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '"':
			end := stringEnd(src, i)
			var s string
			if err := json.Unmarshal(src[i:end], &s); err != nil {
				return "", err
			}
			out = appendQuoted(out, s)
			i = end - 1
		case ',', ':':
			out = append(out, c, ' ')
		default:
			out = append(out, c)
		}
	}
	return string(out), nil
}

// stringEnd returns the index just past the string literal starting at src[i].
func stringEnd(src []byte, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(src)
}

const hexDigits = "0123456789abcdef"

func appendQuoted(out []byte, s string) []byte {
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				out = append(out, byte(r))
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				out = appendEscape(appendEscape(out, r1), r2)
			default:
				out = appendEscape(out, r)
			}
		}
	}
	return append(out, '"')
}

func appendEscape(out []byte, r rune) []byte {
	return append(out, '\\', 'u',
		hexDigits[r>>12&0xf], hexDigits[r>>8&0xf],
		hexDigits[r>>4&0xf], hexDigits[r&0xf])
}
