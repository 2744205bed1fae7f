// Package sshbuf implements the binary framing shared by SSH public key
// blobs and related wire structures: fields carried as 4-byte big-endian
// length prefixes followed by the payload (the RFC 4251 "string" encoding),
// plus raw 32-bit integers.
//
// The package has no opinion about what the framed fields mean; that is the
// caller's business.
package sshbuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated reports input that ends before a complete field, including a
// length prefix promising more bytes than remain.
var ErrTruncated = errors.New("sshbuf: truncated input")

// Writer accumulates wire-format fields in memory. The zero value is ready
// to use. Writes into memory cannot fail, so the write methods return
// nothing.
type Writer struct {
	buf bytes.Buffer
}

// WriteUint32 appends v as 4 big-endian bytes.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteString appends s as a length-prefixed field.
func (w *Writer) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

// WriteBytes appends p as a length-prefixed field.
func (w *Writer) WriteBytes(p []byte) {
	w.WriteUint32(uint32(len(p)))
	w.buf.Write(p)
}

// Bytes returns the accumulated wire bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes accumulated so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reader consumes wire-format fields from a byte slice. The slice is not
// copied; callers must not modify it while reading.
type Reader struct {
	rest []byte
}

// NewReader returns a Reader over p.
func NewReader(p []byte) *Reader {
	return &Reader{rest: p}
}

// ReadUint32 consumes 4 big-endian bytes.
func (r *Reader) ReadUint32() (uint32, error) {
	if len(r.rest) < 4 {
		return 0, fmt.Errorf("reading uint32: %w", ErrTruncated)
	}
	v := binary.BigEndian.Uint32(r.rest[:4])
	r.rest = r.rest[4:]
	return v, nil
}

// ReadBytes consumes one length-prefixed field and returns its payload.
// The returned slice aliases the reader's input.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint32(len(r.rest)) < n {
		return nil, fmt.Errorf("field of %d bytes, %d remain: %w", n, len(r.rest), ErrTruncated)
	}
	p := r.rest[:n]
	r.rest = r.rest[n:]
	return p, nil
}

// ReadString consumes one length-prefixed field and returns it as a string.
func (r *Reader) ReadString() (string, error) {
	p, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// Len returns the number of unconsumed bytes.
func (r *Reader) Len() int {
	return len(r.rest)
}
