package asc

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/wippyai/subgraph-runtime/asc/internal/layout"
	"github.com/wippyai/subgraph-runtime/errors"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// NewString writes s as a UTF-16 String object.
func NewString(h Heap, s string) (Ptr[String], error) {
	if !utf8.ValidString(s) {
		return 0, errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}
	units, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindInvalidUTF8, err, "transcode to UTF-16")
	}
	length := uint32(len(units) / 2)
	if length > MaxStringLength {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			AscType("String").
			Detail("string length %d exceeds maximum %d", length, MaxStringLength).
			Build()
	}

	buf := make([]byte, layout.StringHeader+len(units))
	le.PutUint32(buf[0:4], length)
	copy(buf[layout.StringHeader:], units)

	offset, err := h.RawNew(buf)
	if err != nil {
		return 0, err
	}
	return Ptr[String](offset), nil
}

// GetString reads a String object. Unpaired surrogates are rejected.
func GetString(h Heap, p Ptr[String]) (string, error) {
	if p.IsNull() {
		return "", errors.NullPointer(errors.PhaseDecode, nil, "String")
	}
	length, err := readU32(h, p.Offset())
	if err != nil {
		return "", err
	}
	if length > MaxStringLength {
		return "", errors.New(errors.PhaseDecode, errors.KindOverflow).
			AscType("String").
			Value(length).
			Detail("string length %d exceeds maximum %d", length, MaxStringLength).
			Build()
	}
	if length == 0 {
		return "", nil
	}

	start, ok := layout.SafeAddU32(p.Offset(), layout.StringHeader)
	if !ok {
		return "", errors.OutOfBounds(errors.PhaseDecode, nil, p.Offset(), layout.StringHeader, 0)
	}
	data, err := h.Get(start, length*2)
	if err != nil {
		return "", err
	}
	if err := checkSurrogates(data); err != nil {
		return "", err
	}
	out, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrap(errors.PhaseDecode, errors.KindMalformedString, err, "transcode from UTF-16")
	}
	return string(out), nil
}

// checkSurrogates fails on a high surrogate not followed by a low one, or a
// low surrogate with no high one before it.
func checkSurrogates(data []byte) error {
	n := len(data) / 2
	for i := 0; i < n; i++ {
		u := le.Uint16(data[2*i:])
		if !utf16.IsSurrogate(rune(u)) {
			continue
		}
		if u >= 0xDC00 {
			return errors.MalformedString(nil, i, u)
		}
		if i+1 >= n {
			return errors.MalformedString(nil, i, u)
		}
		next := le.Uint16(data[2*(i+1):])
		if next < 0xDC00 || next > 0xDFFF {
			return errors.MalformedString(nil, i, u)
		}
		i++
	}
	return nil
}
