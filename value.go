// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import "strings"

// Bits is the value carried by a port: one bool per bit, least significant
// bit first. A single bit signal is a Bits of length 1.
//
type Bits []bool

// MakeBits returns the width bits wide representation of v. Bits of v above
// width are dropped.
//
func MakeBits(v uint64, width int) Bits {
	b := make(Bits, width)
	for i := 0; i < width && i < 64; i++ {
		b[i] = v&(1<<uint(i)) != 0
	}
	return b
}

// Uint returns b as an unsigned integer. Only the 64 least significant bits
// are taken into account.
//
func (b Bits) Uint() uint64 {
	var v uint64
	for i := 0; i < len(b) && i < 64; i++ {
		if b[i] {
			v |= 1 << uint(i)
		}
	}
	return v
}

// Bool returns the least significant bit of b, or false if b is empty.
//
func (b Bits) Bool() bool {
	return len(b) > 0 && b[0]
}

// Resize returns a copy of b resized to width bits. Narrower values are
// zero-extended, wider ones are truncated to their least significant bits.
// This is the only width conversion policy used when values travel along
// wires.
//
func (b Bits) Resize(width int) Bits {
	r := make(Bits, width)
	b.copyTo(r)
	return r
}

// copyTo copies b into dst using the Resize policy without allocating.
func (b Bits) copyTo(dst Bits) {
	n := copy(dst, b)
	for i := n; i < len(dst); i++ {
		dst[i] = false
	}
}

// Equal reports whether a and b hold the same bits.
//
func (b Bits) Equal(o Bits) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// String returns b as a binary string, most significant bit first.
//
func (b Bits) String() string {
	var sb strings.Builder
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b Bits) set(v uint64) {
	for i := range b {
		b[i] = i < 64 && v&(1<<uint(i)) != 0
	}
}

func (b Bits) fill(v bool) {
	for i := range b {
		b[i] = v
	}
}
