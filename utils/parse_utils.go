package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAddr accepts 0x-prefixed hex or decimal.
func ParseAddr(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// ParseSize accepts the same forms as ParseAddr and rejects sizes that do
// not fit an int.
func ParseSize(s string) (int, error) {
	v, err := ParseAddr(s)
	if err != nil {
		return 0, err
	}
	if v > uint64(maxInt) {
		return 0, fmt.Errorf("size %s is too large", s)
	}
	return int(v), nil
}

const maxInt = int(^uint(0) >> 1)
