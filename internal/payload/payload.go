// Package payload decodes the gzip+base64 encoded metadata and userdata
// blobs handed to guestctl by its caller.
//
// The encoding matches what cloud-init's VMware guestinfo datasource
// produces and consumes: raw bytes are gzip compressed, then base64
// encoded so they survive command lines and template rendering. Decode
// reverses that pipeline.
package payload

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vmforge/guestctl/internal/errdefs"
)

// Decode reverses the gzip+base64 pipeline and returns the original bytes.
//
// An empty (or all-whitespace) input decodes to nil with no error;
// callers treat that as "no payload supplied". Malformed base64 and
// corrupt or truncated gzip streams are reported as decode errors.
func Decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindDecode, "payload is not valid base64: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindDecode, "payload is not a gzip stream: %w", err)
	}
	defer zr.Close() //nolint:errcheck // close error surfaces through ReadAll

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindDecode, "payload gzip stream is corrupt or truncated: %w", err)
	}

	return raw, nil
}

// DecodeFile reads the file at path and decodes its contents.
//
// A missing or unreadable file is a distinct failure class from a
// malformed payload, so callers can tell a bad path apart from bad data.
func DecodeFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindSourceUnavailable, "reading payload file %s: %w", path, err)
	}

	raw, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("decoding payload file %s: %w", path, err)
	}

	return raw, nil
}

// Encode is the inverse of Decode: gzip compress, then base64 encode.
// guestctl itself only decodes; Encode exists for the passthrough mode
// sanity check and for tests that need well-formed inputs.
func Encode(raw []byte) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compressing payload: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ReadEncodedFile returns the still-encoded contents of the file at
// path, trimmed of surrounding whitespace. Passthrough mode writes this
// string to the VM verbatim.
func ReadEncodedFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errdefs.Errorf(errdefs.KindSourceUnavailable, "reading payload file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ValidateEncoded checks that encoded decodes cleanly without keeping
// the decoded bytes. Passthrough mode writes the encoded string as-is,
// but still refuses inputs the in-guest agent would choke on.
func ValidateEncoded(encoded string) error {
	_, err := Decode(encoded)
	return err
}
