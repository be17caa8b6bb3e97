package bip32

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a sequence of non-hardened child indices.
type Path []uint32

// ParsePath parses a derivation path such as "m/0/1" or "0/1".
// Hardened components ("1'" or "1h") are rejected since a threshold key never
// exists in one place.
func ParsePath(text string) (Path, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "m"), "/")
	if text == "" {
		return Path{}, nil
	}
	parts := strings.Split(text, "/")
	path := make(Path, 0, len(parts))
	for _, s := range parts {
		if strings.HasSuffix(s, "'") || strings.HasSuffix(s, "h") {
			return nil, fmt.Errorf("bip32: component %q: %w", s, ErrHardened)
		}
		index, err := strconv.ParseUint(s, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("bip32: component %q: %w", s, err)
		}
		path = append(path, uint32(index))
	}
	return path, nil
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, i := range p {
		b.WriteString("/")
		b.WriteString(strconv.FormatUint(uint64(i), 10))
	}
	return b.String()
}
