package contract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCodePrefix is the prefix of generated contract codes
const DefaultCodePrefix = "C"

// GenerateNextCode returns prefix + (max numeric suffix among existing + 1), zero-padded to at
// least three digits. Codes with another prefix, a suffix that is not plain digits, or a suffix
// with no int64 successor are ignored.
// The result is only safe to use when existing was read under the same lock as the insert.
func GenerateNextCode(prefix string, existing []string) string {
	if prefix == "" {
		prefix = DefaultCodePrefix
	}
	var max int64
	for _, code := range existing {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		suffix := code[len(prefix):]
		if !isDigits(suffix) {
			continue
		}
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil || n == math.MaxInt64 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
