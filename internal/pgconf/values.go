package pgconf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// PreloadParameter is the one list setting rendered as a bare comma list.
const PreloadParameter = "shared_preload_libraries"

// FormatValue renders a profile value for postgresql.conf. The boolean
// result is false when the line must be left out: an empty preload list is
// omitted so the server falls back to its own default.
func FormatValue(name string, value any) (string, bool, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return "on", true, nil
		}
		return "off", true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case uint64:
		return strconv.FormatUint(v, 10), true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case string:
		if name == PreloadParameter {
			return formatList(name, splitList(v))
		}
		return quote(v), true, nil
	case []string:
		return formatList(name, v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := scalarString(item)
			if !ok {
				return "", false, fmt.Errorf("%w: %s: list items must be scalars, got %T", pgbundle.ErrInvalidSetting, name, item)
			}
			items = append(items, s)
		}
		return formatList(name, items)
	case nil:
		return "", false, fmt.Errorf("%w: %s: value is empty", pgbundle.ErrInvalidSetting, name)
	default:
		return "", false, fmt.Errorf("%w: %s: unsupported value type %T", pgbundle.ErrInvalidSetting, name, value)
	}
}

func formatList(name string, items []string) (string, bool, error) {
	if name == PreloadParameter && len(items) == 0 {
		return "", false, nil
	}
	return quote(strings.Join(items, ",")), true, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// quote wraps s in single quotes, doubling embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
