// Package buffer loads and owns the raw bytes of glTF buffers.
package buffer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

var (
	errDataURIDisabled  = errors.New("data URIs are disabled")
	errMissingComma     = errors.New("data URI has no ',' separator")
	errUnsupportedCodec = errors.New("data URI is not base64 encoded")
	errShortRead        = errors.New("short read")
)

// Handle identifies a buffer inside a Store. Handles are dense and follow
// load order, which matches the declaration order of glTF buffers.
type Handle int

// storeImpl is the implementation of the Store interface.
type storeImpl struct {
	allowDataURI bool
	buffers      [][]byte
}

// Store is an owning collection of buffer bytes indexed by Handle.
type Store interface {
	// Load reads the buffer referenced by uri and appends it to the store.
	//
	// Parameters:
	//   - baseDir: directory of the glTF file, used for relative URIs
	//   - uri: relative path or data URI
	//   - byteLength: the declared buffer length
	//
	// Returns:
	//   - Handle: the handle of the new buffer
	//   - error: ErrIO or ErrDecode classified error if loading fails
	Load(baseDir, uri string, byteLength int) (Handle, error)

	// Bytes returns the bytes owned under h, or nil if h is unknown.
	//
	// Parameters:
	//   - h: the buffer handle
	//
	// Returns:
	//   - []byte: the buffer bytes, exactly byteLength long
	Bytes(h Handle) []byte

	// Len returns the number of loaded buffers.
	//
	// Returns:
	//   - int: the buffer count
	Len() int
}

var _ Store = &storeImpl{}

// StoreOption is a functional option for configuring a Store via NewStore.
type StoreOption func(*storeImpl)

// WithDataURIs is an option builder that enables or disables data URI buffers.
//
// Parameters:
//   - allow: true to decode data URIs, false to reject them
//
// Returns:
//   - StoreOption: a function that applies the option to a store
func WithDataURIs(allow bool) StoreOption {
	return func(s *storeImpl) {
		s.allowDataURI = allow
	}
}

// NewStore creates an empty Store. Data URIs are accepted unless disabled.
//
// Parameters:
//   - options: a variadic list of StoreOption functions
//
// Returns:
//   - Store: the new store
func NewStore(options ...StoreOption) Store {
	s := &storeImpl{allowDataURI: true}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *storeImpl) Load(baseDir, uri string, byteLength int) (Handle, error) {
	if IsDataURI(uri) && !s.allowDataURI {
		return -1, common.NewError(common.ErrDecode, "buffer", len(s.buffers), errDataURIDisabled)
	}
	data, err := Load(baseDir, uri, byteLength)
	if err != nil {
		var ce *common.Error
		if errors.As(err, &ce) && ce.Entity == "" {
			ce.Entity, ce.Index = "buffer", len(s.buffers)
		}
		return -1, err
	}
	s.buffers = append(s.buffers, data)
	return Handle(len(s.buffers) - 1), nil
}

func (s *storeImpl) Bytes(h Handle) []byte {
	if h < 0 || int(h) >= len(s.buffers) {
		return nil
	}
	return s.buffers[h]
}

func (s *storeImpl) Len() int {
	return len(s.buffers)
}

// IsDataURI reports whether uri embeds its payload.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}

// Load reads byteLength bytes of buffer data from uri.
// Relative URIs are percent-decoded and resolved against baseDir.
// Longer payloads are truncated to byteLength; shorter ones fail.
//
// Parameters:
//   - baseDir: directory of the glTF file
//   - uri: relative path or data URI
//   - byteLength: the declared buffer length
//
// Returns:
//   - []byte: exactly byteLength bytes
//   - error: ErrIO or ErrDecode classified error
func Load(baseDir, uri string, byteLength int) ([]byte, error) {
	if IsDataURI(uri) {
		data, err := decodeDataURI(uri)
		if err != nil {
			return nil, &common.Error{Kind: common.ErrDecode, Index: -1, Err: err}
		}
		if len(data) < byteLength {
			return nil, &common.Error{Kind: common.ErrIO, Index: -1, Err: fmt.Errorf("data URI: %w: have %d bytes, want %d", errShortRead, len(data), byteLength)}
		}
		return data[:byteLength], nil
	}

	path, err := ResolvePath(baseDir, uri)
	if err != nil {
		return nil, &common.Error{Kind: common.ErrIO, Index: -1, Name: uri, Err: err}
	}
	data, err := readFile(path, byteLength)
	if err != nil {
		return nil, &common.Error{Kind: common.ErrIO, Index: -1, Name: uri, Err: err}
	}
	return data, nil
}

// ResolvePath maps a relative buffer URI to a file path under baseDir.
//
// Parameters:
//   - baseDir: directory of the glTF file
//   - uri: relative URI reference, possibly percent-encoded
//
// Returns:
//   - string: the file path
//   - error: error if uri carries a scheme other than data
func ResolvePath(baseDir, uri string) (string, error) {
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	p, err := url.PathUnescape(uri)
	if err != nil {
		p = uri
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(baseDir, p), nil
}

func readFile(path string, byteLength int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Check the size before allocating the declared length.
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < int64(byteLength) {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", errShortRead, info.Size(), byteLength)
	}

	data := make([]byte, byteLength)
	n, err := io.ReadFull(f, data)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: have %d bytes, want %d", errShortRead, n, byteLength)
		}
		return nil, err
	}
	return data, nil
}

// decodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, errMissingComma
	}

	header := uri[len("data:"):commaIdx]
	payload := uri[commaIdx+1:]

	if !strings.HasSuffix(header, ";base64") && header != "base64" {
		return nil, fmt.Errorf("%w: %q", errUnsupportedCodec, header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some exporters drop the padding.
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}
