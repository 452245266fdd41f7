package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

var (
	errInvalidUTF8      = errors.New("document is not valid UTF-8")
	errInvalidVersion   = errors.New("unsupported glTF version: must be 2.x")
	errTrailingData     = errors.New("unexpected data after top-level value")
	errRequiredExtUnmet = errors.New("required extensions are not supported")
)

// Parse decodes glTF JSON into a Document.
// Duplicate object keys resolve to the last occurrence; unknown fields are ignored.
//
// Parameters:
//   - data: UTF-8 encoded JSON
//
// Returns:
//   - *Document: the decoded records, indices unresolved
//   - error: ErrJSON for malformed input, ErrSchema for ill-typed fields
func Parse(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, &common.Error{Kind: common.ErrJSON, Index: -1, Err: errInvalidUTF8}
	}
	if !json.Valid(data) {
		// Re-run the decoder only to get a positioned syntax error.
		var v any
		err := json.Unmarshal(data, &v)
		if err == nil {
			err = errTrailingData
		}
		return nil, &common.Error{Kind: common.ErrJSON, Index: -1, Err: err}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &common.Error{Kind: common.ErrSchema, Index: -1, Err: err}
		}
		return nil, &common.Error{Kind: common.ErrJSON, Index: -1, Err: err}
	}

	if err := doc.check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Decode reads r to the end and parses it as glTF JSON.
//
// Parameters:
//   - r: reader providing the document
//
// Returns:
//   - *Document: the decoded records
//   - error: ErrIO if reading fails, otherwise as Parse
func Decode(r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, &common.Error{Kind: common.ErrIO, Index: -1, Err: fmt.Errorf("failed to read document: %w", err)}
	}
	return Parse(buf.Bytes())
}

// check rejects documents whose top-level metadata cannot be honored.
func (d *Document) check() error {
	if v := d.Asset.Version; v != "" && !strings.HasPrefix(v, "2.") {
		return &common.Error{Kind: common.ErrSchema, Entity: "asset", Index: -1, Name: v, Err: errInvalidVersion}
	}
	if len(d.ExtensionsRequired) > 0 {
		return &common.Error{
			Kind:   common.ErrSchema,
			Entity: "extensionsRequired",
			Index:  -1,
			Name:   strings.Join(d.ExtensionsRequired, ","),
			Err:    errRequiredExtUnmet,
		}
	}
	return nil
}
