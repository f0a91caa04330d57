package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

// checksumSize is the length of the blake2b-256 checksum prefixed to every
// persisted document, when checksumming is enabled.
const checksumSize = 32

// ErrChecksumMismatch reports that a document's stored checksum does not
// match its payload: the signature of a torn or corrupted write.
var ErrChecksumMismatch = errors.New("storage: checksum mismatch")

func encodeDocument(v interface{}, checksum bool) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	if !checksum {
		return payload, nil
	}
	sum := blake2b.Sum256(payload)
	buf := make([]byte, 0, checksumSize+len(payload))
	buf = append(buf, sum[:]...)
	buf = append(buf, payload...)
	return buf, nil
}

func decodeDocument(data []byte, v interface{}, checksum bool) error {
	payload := data
	if checksum {
		if len(data) < checksumSize {
			return ErrChecksumMismatch
		}
		want := data[:checksumSize]
		payload = data[checksumSize:]
		got := blake2b.Sum256(payload)
		if string(got[:]) != string(want) {
			return ErrChecksumMismatch
		}
	}
	return msgpack.Unmarshal(payload, v)
}

// SaveDocument msgpack-encodes v, prefixes a blake2b-256 checksum over the
// payload, and durably replaces path.
func SaveDocument(path string, v interface{}) error {
	return SaveDocumentChecksum(path, v, true)
}

// SaveDocumentChecksum is SaveDocument with checksumming made optional, for
// callers (e.g. a Store opened with Options.ChecksumEnabled false) that
// trade torn-write detection for a smaller payload. A catalog is always
// written whole, never in pages, so the write path is a single buffer
// written to a sibling temp file, synced, and renamed into place. A crash
// midway leaves path untouched, never half-written.
func SaveDocumentChecksum(path string, v interface{}, checksum bool) error {
	buf, err := encodeDocument(v, checksum)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: path, Err: err}
	}

	tmpPath := path + ".tmp-" + strconv.Itoa(os.Getpid())
	if err := writeFileSynced(tmpPath, buf); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "write-temp", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "rename", Path: path, Err: err}
	}

	return nil
}

// writeFileSynced writes buf to a fresh file at path and fsyncs it before
// returning, so the caller's rename-into-place only ever points at durable
// bytes.
func writeFileSynced(path string, buf []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadDocument reads and verifies a document written by SaveDocument,
// decoding its payload into v.
func LoadDocument(path string, v interface{}) error {
	return LoadDocumentChecksum(path, v, true)
}

// LoadDocumentChecksum is LoadDocument with checksum verification made
// optional, matching SaveDocumentChecksum.
func LoadDocumentChecksum(path string, v interface{}, checksum bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}

	if err := decodeDocument(data, v, checksum); err != nil {
		if errors.Is(err, ErrChecksumMismatch) {
			return err
		}
		return &IOError{Op: "decode", Path: path, Err: err}
	}

	return nil
}

// DocumentExists reports whether a document file is present at path.
func DocumentExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
