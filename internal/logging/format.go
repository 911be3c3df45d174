package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type kv struct {
	key   string
	value slog.Value
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string{}, prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string{}, prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

// withAttrs returns a copy of pre extended with attrs flattened under groups.
func withAttrs(pre []kv, groups []string, attrs []slog.Attr) []kv {
	out := append([]kv(nil), pre...)
	flattenAttrs(&out, groups, attrs)
	return out
}

// collectAttrs merges handler and record attributes and pulls out the
// component, which renders as a message prefix rather than a field.
func collectAttrs(pre []kv, groups []string, record slog.Record) (string, []kv) {
	kvs := make([]kv, 0, record.NumAttrs()+len(pre))
	kvs = append(kvs, pre...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, groups, attr)
		return true
	})

	var component string
	filtered := kvs[:0]
	for _, field := range kvs {
		if field.key == FieldComponent {
			if component == "" {
				component = attrString(field.value)
			}
			continue
		}
		filtered = append(filtered, field)
	}
	return component, filtered
}

// writeLine renders "component: message key=value ..." without a trailing
// newline.
func writeLine(b *strings.Builder, component, message string, kvs []kv) {
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	if msg := strings.TrimSpace(message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	for _, field := range kvs {
		if field.key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(field.key)
		b.WriteByte('=')
		b.WriteString(formatValue(field.value))
	}
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	default:
		return quoteIfNeeded(attrString(v))
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return strconv.Quote(s)
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
