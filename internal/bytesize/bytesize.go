// Package bytesize is a byte count that decodes from human-readable strings.
package bytesize

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ByteSize is a size in bytes. Config files may use "8KiB", "64k", "1MB" or
// a plain number.
type ByteSize uint64

const (
	B   ByteSize = 1
	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

// ParseByteSize parses a human-readable size. Binary (Ki, Mi) and decimal
// (K, M) suffixes are both accepted.
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// String renders the size with binary units, e.g. "8.0 KiB".
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Int returns the size as an int for buffer allocation.
func (b ByteSize) Int() int {
	return int(b)
}

// MarshalYAML writes the size in a form ParseByteSize accepts.
func (b ByteSize) MarshalYAML() (any, error) {
	return strings.ReplaceAll(b.String(), " ", ""), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
