// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"testing"
)

// ZipEntry describes one member of a fixture archive. Zero Mode means 0o644
// and zero Method means deflate.
type ZipEntry struct {
	Name   string
	Body   string
	Mode   fs.FileMode
	Method uint16
}

// ZipBytes builds an in-memory zip archive holding entries in order.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		h := &zip.FileHeader{Name: e.Name, Method: e.Method}
		if h.Method == 0 {
			h.Method = zip.Deflate
		}
		mode := e.Mode
		if mode == 0 {
			mode = 0o644
		}
		h.SetMode(mode)

		w, err := zw.CreateHeader(h)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("writing zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// DuckDBZip is a release archive holding an executable stub called name
// that prints version.
func DuckDBZip(t testing.TB, name, version string) []byte {
	t.Helper()
	return ZipBytes(t, ZipEntry{Name: name, Body: "#!/bin/sh\necho " + version + "\n", Mode: 0o755})
}
