package models

import "strings"

// NormalizeType brings a column type to canonical form: lower-case,
// surrounding whitespace stripped, internal whitespace collapsed to a
// single space, and no spaces inside or around a parameter list, so
// that VARCHAR (128) and varchar(128) compare equal. Display widths
// are preserved: int(11) is not the same type as int.
func NormalizeType(typ string) string {
	typ = strings.ToLower(strings.TrimSpace(typ))
	typ = strings.Join(strings.Fields(typ), " ")

	open := strings.Index(typ, "(")
	if open < 0 {
		return typ
	}
	end := strings.LastIndex(typ, ")")
	if end < open {
		return typ
	}

	base := strings.TrimSpace(typ[:open])
	rest := strings.TrimSpace(typ[end+1:])

	params := strings.Split(typ[open+1:end], ",")
	for i, p := range params {
		params[i] = strings.TrimSpace(p)
	}

	out := base + "(" + strings.Join(params, ",") + ")"
	if rest != "" {
		out += " " + rest
	}
	return out
}

// NormalizeDefault brings a column default to canonical form. The
// literal NULL, in any case, means no default and maps to nil. A value
// wrapped in matching single or double quotes has the quotes stripped
// and backslash escapes for that quote resolved. The empty string ''
// stays the empty string, which is distinct from no default. Numeric
// literals pass through as-is.
func NormalizeDefault(def *string) *string {
	if def == nil {
		return nil
	}
	v := strings.TrimSpace(*def)
	if strings.EqualFold(v, "null") {
		return nil
	}
	if len(v) >= 2 {
		q := v[0]
		if (q == '\'' || q == '"') && v[len(v)-1] == q {
			unquoted := UnescapeString(v[1:len(v)-1], q)
			return &unquoted
		}
	}
	return &v
}

// UnescapeString resolves backslash escapes in a string literal body.
// Both \<quote> and the doubled quote form are recognized for the
// given quote character.
func UnescapeString(s string, quote byte) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			switch next {
			case '\\', quote:
				b.WriteByte(next)
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			}
		}
		if c == quote && i+1 < len(s) && s[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// EscapeString escapes a value for embedding in a single-quoted SQL
// string literal
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			b.WriteString("\\'")
		case '\\':
			b.WriteString("\\\\")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
