package i18n

import (
	"bufio"
	"fmt"
	"strings"
)

// parseProperties parses flat `key=value` properties text into a dictionary.
// Blank lines and lines starting with '#' or '!' are ignored. Keys and values
// are trimmed; values support the \n, \t, and \\ escapes. A non-comment line
// without a separator is a parse error so that malformed tenant overrides are
// detected and skipped rather than half-applied.
func parseProperties(text string) (map[string]string, error) {
	dict := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 1 {
			return nil, fmt.Errorf("properties: line %d has no key separator", lineNo)
		}

		key := strings.TrimSpace(line[:sep])
		value := unescape(strings.TrimSpace(line[sep+1:]))
		dict[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}

	return dict, nil
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
