package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

var pdfSignature = []byte("%PDF")

// DecodeError means a service PDF payload was not valid base64.
type DecodeError struct {
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding pdf payload (%d chars): %v", e.Length, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodePDF decodes a base64 payload as sent by the transaction service. It
// tolerates a data: URI prefix, embedded whitespace, the URL-safe alphabet
// and missing padding. The result is not checked for a PDF signature.
func DecodePDF(payload string) ([]byte, error) {
	cleaned := cleanBase64(payload)
	if cleaned == "" {
		return nil, &DecodeError{Length: len(payload), Err: fmt.Errorf("empty payload")}
	}
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, &DecodeError{Length: len(payload), Err: err}
	}
	return data, nil
}

// IsPDF reports whether data starts with the %PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfSignature)
}

func cleanBase64(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		case '-':
			return '+'
		case '_':
			return '/'
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	if s == "" {
		return ""
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}
