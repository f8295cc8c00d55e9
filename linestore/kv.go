package linestore

import (
	"fmt"
	"strconv"
	"strings"
)

// keys can't be empty or contain space, tab, newline, ':' or '"'
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	if strings.ContainsAny(key, " \t\r\n:\"") {
		return fmt.Errorf("invalid key '%s'", key)
	}
	return nil
}

func valueNeedsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b < 32 || b == 127 || b == ' ' || b == '"' {
			return true
		}
	}
	return false
}

// KeyValueMarshal serializes key/value pairs into a single line:
// `k1:v1 k2:v2`. Values with spaces, quotes or control characters
// are quoted with strconv.Quote, so the result never contains a newline.
func KeyValueMarshal(kv ...string) (string, error) {
	n := len(kv)
	if n%2 != 0 {
		return "", fmt.Errorf("odd number of arguments: %d", n)
	}
	var sb strings.Builder
	for i := 0; i < n; i += 2 {
		key := kv[i]
		if err := validateKey(key); err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(key)
		sb.WriteByte(':')
		val := kv[i+1]
		if valueNeedsQuoting(val) {
			val = strconv.Quote(val)
		}
		sb.WriteString(val)
	}
	return sb.String(), nil
}

// KeyValueUnmarshal parses a line created with KeyValueMarshal
// and returns key/value pairs in order
func KeyValueUnmarshal(s string) ([]string, error) {
	var res []string
	line := s
	for len(s) > 0 {
		idx := strings.IndexByte(s, ':')
		if idx < 0 {
			return nil, fmt.Errorf("missing ':' after key in '%s'", line)
		}
		key := s[:idx]
		if err := validateKey(key); err != nil {
			return nil, fmt.Errorf("%s in '%s'", err, line)
		}
		s = s[idx+1:]

		var val string
		if strings.HasPrefix(s, `"`) {
			quoted, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("invalid quoted value for key '%s' in '%s'", key, line)
			}
			val, err = strconv.Unquote(quoted)
			if err != nil {
				return nil, fmt.Errorf("invalid quoted value for key '%s' in '%s'", key, line)
			}
			s = s[len(quoted):]
		} else {
			idx = strings.IndexByte(s, ' ')
			if idx < 0 {
				val = s
				s = ""
			} else {
				val = s[:idx]
				s = s[idx:]
			}
		}
		res = append(res, key, val)

		if s == "" {
			break
		}
		if s[0] != ' ' {
			return nil, fmt.Errorf("expected space after value of key '%s' in '%s'", key, line)
		}
		s = s[1:]
		if s == "" {
			return nil, fmt.Errorf("trailing space in '%s'", line)
		}
	}
	return res, nil
}
