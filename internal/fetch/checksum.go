// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrChecksumMismatch is wrapped by every *ChecksumError.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrNotListed means a checksums file has no entry for the file.
	ErrNotListed = errors.New("file not listed in checksums")

	errNoEntries = errors.New("no valid checksum entries found")
)

// checksumAssetNames are the release assets recognised as SHA-256 listings.
var checksumAssetNames = []string{"checksums.txt", "SHA256SUMS", "SHA256SUMS.txt"}

type (
	// ChecksumEntry is one line of a sha256sum listing.
	ChecksumEntry struct {
		Hash     string // lowercase hex
		Filename string
	}

	// ChecksumError reports a digest that does not match its listing.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}
)

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s: expected %s, got %s", e.Filename, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseChecksums reads sha256sum output: "<hex>  <name>" in text mode or
// "<hex> *<name>" in binary mode. Unrecognised lines are skipped.
func ParseChecksums(r io.Reader) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		hash, rest, ok := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if !ok || !isSHA256Hex(hash) {
			continue
		}
		name := strings.TrimPrefix(strings.TrimLeft(rest, " "), "*")
		if name == "" {
			continue
		}
		entries = append(entries, ChecksumEntry{Hash: strings.ToLower(hash), Filename: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, errNoEntries
	}
	return entries, nil
}

// FindChecksum returns the hash listed for filename.
func FindChecksum(entries []ChecksumEntry, filename string) (string, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotListed, filename)
}

// VerifyFile compares the SHA-256 digest of path with expected
// (case-insensitive) and returns a *ChecksumError on mismatch.
func VerifyFile(path, expected string) error {
	got, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expected) {
		return &ChecksumError{Filename: path, Expected: strings.ToLower(expected), Got: got}
	}
	return nil
}

// FileSHA256 streams path through SHA-256 and returns the hex digest.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
