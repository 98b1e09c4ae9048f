// Package steamid converts between the 64-bit Steam community id and the
// 32-bit account id that the OpenDota API keys players by.
package steamid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Offset is the distance between a Steam64 id and its 32-bit account id.
const Offset int64 = 76561197960265728

const steam64Prefix = "7656119"

var (
	steam32Pattern = regexp.MustCompile(`^\d{7,10}$`)
	steam64Pattern = regexp.MustCompile(`^7656119\d{10}$`)
)

var ErrInvalid = errors.New("invalid steam id")

// Normalize returns the 32-bit account id for either form of id.
func Normalize(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalid, raw)
	}
	if IsSteam64(s) {
		return n - Offset, nil
	}
	return n, nil
}

func IsSteam64(s string) bool {
	return len(s) == 17 && strings.HasPrefix(s, steam64Prefix)
}

func To32(id64 int64) int64 {
	return id64 - Offset
}

func To64(id32 int64) int64 {
	return id32 + Offset
}

// Valid reports whether raw looks like an account id or a community id.
func Valid(raw string) bool {
	s := strings.TrimSpace(raw)
	if steam64Pattern.MatchString(s) {
		return true
	}
	if !steam32Pattern.MatchString(s) {
		return false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n > 0
}
