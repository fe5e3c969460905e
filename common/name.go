package common

import (
	"encoding/binary"
	"regexp"

	"github.com/pkg/errors"
)

const (
	NameLength    = 8
	maxNameChars  = 13
	nameCharmap   = ".12345abcdefghijklmnopqrstuvwxyz"
	firstCharBits = 0x0F
	charBits      = 0x1F
)

var (
	nameRegexp = regexp.MustCompile(`^[.1-5a-z]{0,12}[.1-5a-j]?$`)

	ErrInvalidName = errors.New("invalid account name")
)

// Name is a 64-bit account name: up to 12 characters of [.1-5a-z] encoded in 5 bits
// each, plus an optional 13th character of [.1-5a-j] in the lowest 4 bits.
type Name uint64

func charToSymbol(c byte) uint64 {
	if c >= 'a' && c <= 'z' {
		return uint64(c-'a') + 6
	}
	if c >= '1' && c <= '5' {
		return uint64(c-'1') + 1
	}
	return 0
}

func NewName(s string) (Name, error) {
	if !nameRegexp.MatchString(s) {
		return 0, errors.Wrapf(ErrInvalidName, "%q", s)
	}
	var value uint64
	for i := 0; i < len(s) && i < maxNameChars; i++ {
		c := charToSymbol(s[i])
		if i < 12 {
			c &= charBits
			c <<= 64 - 5*uint(i+1)
		} else {
			c &= firstCharBits
		}
		value |= c
	}
	n := Name(value)
	if n.String() != s {
		// trailing dots are not representable
		return 0, errors.Wrapf(ErrInvalidName, "%q", s)
	}
	return n, nil
}

// StringToName panics on malformed input; meant for constants and tests.
func StringToName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func BytesToName(b []byte) Name {
	if len(b) < NameLength {
		return 0
	}
	return Name(binary.BigEndian.Uint64(b))
}

func (n Name) String() string {
	str := make([]byte, maxNameChars)
	tmp := uint64(n)
	for i := 0; i < maxNameChars; i++ {
		var c byte
		if i == 0 {
			c = nameCharmap[tmp&firstCharBits]
			tmp >>= 4
		} else {
			c = nameCharmap[tmp&charBits]
			tmp >>= 5
		}
		str[12-i] = c
	}
	end := len(str)
	for end > 0 && str[end-1] == '.' {
		end--
	}
	return string(str[:end])
}

// Bytes returns the big-endian encoding, so byte order matches numeric order.
func (n Name) Bytes() []byte {
	b := make([]byte, NameLength)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func (n Name) IsEmpty() bool {
	return n == 0
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	v, err := NewName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Suffix returns the part of the name after the last dot that is followed by
// another character. Names without such a dot are their own suffix.
func (n Name) Suffix() Name {
	value := uint64(n)
	var remainingBitsAfterLastDot, tmp uint32
	for remainingBits := int32(59); remainingBits >= 4; remainingBits -= 5 {
		c := (value >> uint(remainingBits)) & charBits
		if c == 0 {
			tmp = uint32(remainingBits)
		} else {
			remainingBitsAfterLastDot = tmp
		}
	}
	thirteenth := value & firstCharBits
	if thirteenth != 0 {
		remainingBitsAfterLastDot = tmp
	}
	if remainingBitsAfterLastDot == 0 {
		return n
	}
	mask := (uint64(1) << remainingBitsAfterLastDot) - 16
	shift := 64 - remainingBitsAfterLastDot
	return Name(((value & mask) << shift) + (thirteenth << (shift - 1)))
}

// HasThirteenthChar reports whether the name uses the 4-bit 13th character.
func (n Name) HasThirteenthChar() bool {
	return uint64(n)&firstCharBits != 0
}

// IsFullLength reports whether the 12th character is set.
func (n Name) IsFullLength() bool {
	return uint64(n)&0x1F0 != 0
}

// HasDot reports whether any of the first 12 characters is a dot, which includes
// names shorter than 12 characters.
func (n Name) HasDot() bool {
	tmp := uint64(n) >> 4
	for i := 0; i < 12; i++ {
		if tmp&charBits == 0 {
			return true
		}
		tmp >>= 5
	}
	return false
}

// IsPremium reports whether creating the account requires winning a name auction.
func (n Name) IsPremium() bool {
	return n.HasDot() && n.Suffix() == n
}
