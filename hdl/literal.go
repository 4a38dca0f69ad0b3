// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	reSized   = regexp.MustCompile(`^(\d*)'[sS]?([bBoOdDhH])([0-9a-fA-F_xXzZ?]+)$`)
	reDecimal = regexp.MustCompile(`^\d+$`)
)

// IsLiteral returns true if s is a number literal: bare decimal digits or a
// Verilog style based literal such as 4'b1010, 8'hFF or 'd3.
func IsLiteral(s string) bool {
	return reDecimal.MatchString(s) || reSized.MatchString(s)
}

// ParseLiteral parses a number literal. width is the declared width of a
// sized literal, or the minimum number of bits needed to hold value for
// unsized and decimal literals. x and z digits read as 0.
func ParseLiteral(s string) (value uint64, width int, err error) {
	if reDecimal.MatchString(s) {
		value, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "literal %q", s)
		}
		return value, minWidth(value), nil
	}
	m := reSized.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, errors.Errorf("invalid literal %q", s)
	}
	base := 10
	switch strings.ToLower(m[2]) {
	case "b":
		base = 2
	case "o":
		base = 8
	case "h":
		base = 16
	}
	digits := strings.Map(func(r rune) rune {
		switch r {
		case '_':
			return -1
		case 'x', 'X', 'z', 'Z', '?':
			return '0'
		}
		return r
	}, m[3])
	value, err = strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "literal %q", s)
	}
	if m[1] == "" {
		return value, minWidth(value), nil
	}
	width, err = strconv.Atoi(m[1])
	if err != nil || width == 0 {
		return 0, 0, errors.Errorf("invalid literal width in %q", s)
	}
	if width < 64 {
		value &= 1<<uint(width) - 1
	}
	return value, width, nil
}

// LiteralBit returns bit i of literal s. Out of range bits are 0.
func LiteralBit(s string, i int) (bool, error) {
	v, _, err := ParseLiteral(s)
	if err != nil {
		return false, err
	}
	return i < 64 && v&(1<<uint(i)) != 0, nil
}

func minWidth(v uint64) int {
	w := 1
	for v > 1 {
		v >>= 1
		w++
	}
	return w
}

// bitLiteral returns the one bit literal for v.
func bitLiteral(v bool) string {
	if v {
		return "1'b1"
	}
	return "1'b0"
}
