package contact

import (
	"fmt"
	"strings"
)

// Flag is one named capability bit of the contact header.
type Flag uint8

const (
	// FlagCanTLS advertises that the node is able to use TLS.
	FlagCanTLS Flag = 0x01
)

const knownFlags = uint8(FlagCanTLS)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagCanTLS, "can_tls"},
}

func (f Flag) String() string {
	for _, n := range flagNames {
		if n.flag == f {
			return n.name
		}
	}
	return fmt.Sprintf("flag(0x%02x)", uint8(f))
}

// Flags is the set of capability bits carried by a header. It can only hold
// known bits.
type Flags struct {
	bits uint8
}

// NewFlags returns a set holding the given flags. Unknown bits are ignored.
func NewFlags(flags ...Flag) Flags {
	var set Flags
	for _, f := range flags {
		set = set.With(f)
	}
	return set
}

// ParseFlags parses a wire flags octet, rejecting bits outside the known set.
func ParseFlags(b byte) (Flags, error) {
	if b&^knownFlags != 0 {
		return Flags{}, fmt.Errorf("%w: 0x%02x", ErrUnknownFlagBits, b&^knownFlags)
	}
	return Flags{bits: b}, nil
}

// Has reports whether f is set.
func (s Flags) Has(f Flag) bool {
	return uint8(f) != 0 && s.bits&uint8(f) == uint8(f)
}

// With returns the set with f added.
func (s Flags) With(f Flag) Flags {
	s.bits |= uint8(f) & knownFlags
	return s
}

// Without returns the set with f removed.
func (s Flags) Without(f Flag) Flags {
	s.bits &^= uint8(f)
	return s
}

// Empty reports whether no flag is set.
func (s Flags) Empty() bool {
	return s.bits == 0
}

func (s Flags) octet() byte {
	return s.bits
}

func (s Flags) String() string {
	if s.bits == 0 {
		return "none"
	}
	names := make([]string, 0, len(flagNames))
	for _, n := range flagNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
