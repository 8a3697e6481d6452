// SPDX-License-Identifier: GPL-3.0-only

// Package sample turns captured images into the small RGBA8 sample grid the
// luminance and dark-mode estimators operate on.
package sample

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrDecode matches every error produced while acquiring a sample.
var ErrDecode = errors.New("sample decode failed")

// DecodeError reports which acquisition step failed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Op, e.Err)
}

// Unwrap exposes both ErrDecode and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

const dataScheme = "data:"

// ParseDataURI splits an RFC 2397 data URI into its media type and decoded payload.
// The media type defaults to "text/plain" when omitted.
func ParseDataURI(uri string) (string, []byte, error) {
	if len(uri) < len(dataScheme) || !strings.EqualFold(uri[:len(dataScheme)], dataScheme) {
		return "", nil, &DecodeError{Op: "parse data uri", Err: errors.New("missing data: scheme")}
	}

	header, payload, ok := strings.Cut(uri[len(dataScheme):], ",")
	if !ok {
		return "", nil, &DecodeError{Op: "parse data uri", Err: errors.New("missing ',' separator")}
	}

	isBase64 := false
	params := strings.Split(header, ";")
	mediaType := strings.TrimSpace(params[0])
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err := decodeBase64(payload)
		if err != nil {
			return "", nil, &DecodeError{Op: "decode base64", Err: err}
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, &DecodeError{Op: "unescape payload", Err: err}
	}
	return mediaType, []byte(unescaped), nil
}

// decodeBase64 accepts padded and unpadded payloads, ignoring whitespace.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)

	if strings.HasSuffix(payload, "=") || len(payload)%4 == 0 {
		return base64.StdEncoding.DecodeString(payload)
	}
	return base64.RawStdEncoding.DecodeString(payload)
}
