package buffer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	writeFile(t, dir, "data.bin", want)

	have, err := Load(dir, "data.bin", len(want))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(have, want) {
		t.Fatalf("Load:\nwant %v\nhave %v", want, have)
	}
}

func TestLoadTruncates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.bin", []byte{1, 2, 3, 4, 5, 6, 7, 8})

	have, err := Load(dir, "data.bin", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != 4 {
		t.Fatalf("len(Load):\nwant 4\nhave %d", len(have))
	}
}

func TestLoadPercentEncoded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "my data.bin", []byte{9, 9})

	have, err := Load(dir, "my%20data.bin", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(have, []byte{9, 9}) {
		t.Fatalf("Load:\nwant [9 9]\nhave %v", have)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.bin", 4)
	if !errors.Is(err, common.ErrIO) {
		t.Fatalf("Load: want ErrIO, have %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load: want fs.ErrNotExist in chain, have %v", err)
	}
}

func TestLoadShort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "short.bin", []byte{1, 2})

	_, err := Load(dir, "short.bin", 8)
	if !errors.Is(err, common.ErrIO) {
		t.Fatalf("Load: want ErrIO, have %v", err)
	}
}

func TestLoadShortHugeLength(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.bin", make([]byte, 16))

	_, err := Load(dir, "b.bin", 1<<62)
	if !errors.Is(err, common.ErrIO) || !errors.Is(err, errShortRead) {
		t.Fatalf("Load:\nwant %v wrapping %v\nhave %v", common.ErrIO, errShortRead, err)
	}
}

func TestLoadScheme(t *testing.T) {
	_, err := Load(t.TempDir(), "https://example.com/a.bin", 4)
	if !errors.Is(err, common.ErrIO) {
		t.Fatalf("Load: want ErrIO, have %v", err)
	}
}

func TestLoadDataURI(t *testing.T) {
	want := []byte{0, 0, 128, 63, 0, 0, 0, 64}
	cases := []struct {
		name string
		uri  string
	}{
		{"octet-stream", "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(want)},
		{"gltf-buffer", "data:application/gltf-buffer;base64," + base64.StdEncoding.EncodeToString(want)},
		{"unpadded", "data:application/octet-stream;base64," + base64.RawStdEncoding.EncodeToString(want[:7])},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := len(want)
			if c.name == "unpadded" {
				n = 7
			}
			have, err := Load("", c.uri, n)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(have, want[:n]) {
				t.Fatalf("Load:\nwant %v\nhave %v", want[:n], have)
			}
		})
	}
}

func TestLoadDataURIMalformed(t *testing.T) {
	for _, uri := range []string{
		"data:application/octet-stream;base64",
		"data:text/plain,hello",
		"data:application/octet-stream;base64,!!!!",
	} {
		_, err := Load("", uri, 1)
		if !errors.Is(err, common.ErrDecode) {
			t.Errorf("Load(%q): want ErrDecode, have %v", uri, err)
		}
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.bin", []byte{1, 2, 3, 4})
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte{5, 6})

	s := NewStore()
	h0, err := s.Load(dir, "a.bin", 4)
	if err != nil {
		t.Fatal(err)
	}
	h1, err := s.Load(dir, uri, 2)
	if err != nil {
		t.Fatal(err)
	}
	if h0 != 0 || h1 != 1 {
		t.Fatalf("handles:\nwant 0, 1\nhave %d, %d", h0, h1)
	}
	if s.Len() != 2 {
		t.Fatalf("Len:\nwant 2\nhave %d", s.Len())
	}
	if !bytes.Equal(s.Bytes(h1), []byte{5, 6}) {
		t.Fatalf("Bytes(h1):\nwant [5 6]\nhave %v", s.Bytes(h1))
	}
	if s.Bytes(7) != nil {
		t.Fatal("Bytes(7): want nil")
	}
}

func TestStoreDataURIDisabled(t *testing.T) {
	s := NewStore(WithDataURIs(false))
	uri := "data:application/octet-stream;base64,AAAA"
	_, err := s.Load("", uri, 3)
	if !errors.Is(err, common.ErrDecode) {
		t.Fatalf("Load: want ErrDecode, have %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len:\nwant 0\nhave %d", s.Len())
	}
}

func TestStoreErrorNamesBuffer(t *testing.T) {
	s := NewStore()
	_, err := s.Load(t.TempDir(), "missing.bin", 1)
	var ce *common.Error
	if !errors.As(err, &ce) {
		t.Fatalf("Load: want *common.Error, have %T", err)
	}
	if ce.Entity != "buffer" || ce.Index != 0 {
		t.Fatalf("Load error entity:\nwant buffer 0\nhave %s %d", ce.Entity, ce.Index)
	}
}
