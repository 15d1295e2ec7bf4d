package core

// input.go turns an uploaded body into engine input text.
//
// Bodies are read up to a size limit, a leading UTF-8 byte order mark is
// dropped, and bytes that are not valid UTF-8 are replaced with '?' so every
// engine parser sees well-formed text.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInputTooLarge is returned when a body exceeds the configured maximum.
var ErrInputTooLarge = errors.New("input too large")

// DefaultMaxInputSize applies when no positive limit is configured.
const DefaultMaxInputSize int64 = 32 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Input is a decoded request body.
type Input struct {
	Text string
	// Size is the number of bytes read, BOM included.
	Size int
	// Replaced counts invalid UTF-8 bytes that were replaced.
	Replaced int
}

// ReadInput reads r completely. It fails with ErrInputTooLarge once more than
// maxBytes have been read.
func ReadInput(r io.Reader, maxBytes int64) (*Input, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxInputSize
	}

	br := bufio.NewReader(io.LimitReader(r, maxBytes+1))
	raw, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, maxBytes)
	}

	in := &Input{Size: len(raw)}
	body := bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(body) {
		in.Text = string(body)
		return in, nil
	}

	clean, replaced := sanitizeUTF8(body)
	in.Text = string(clean)
	in.Replaced = replaced
	return in, nil
}

// sanitizeUTF8 replaces every byte that does not start a valid rune with '?'.
// The result is never longer than the input, so it is built in place.
func sanitizeUTF8(data []byte) ([]byte, int) {
	write, replaced := 0, 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			replaced++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return data[:write], replaced
}
