package parser

import "strings"

// Preprocess blanks out the parts of a dump file that carry no
// structural information: line comments, block comments including the
// /*! ... */ conditional-execution form, top-level SET directives and
// DROP TABLE IF EXISTS statements. Removed spans are overwritten with
// spaces rather than deleted so byte offsets into the result still
// point at the same place in the original input.
func Preprocess(input string) string {
	buf := []byte(input)
	blankComments(buf)
	blankDirectives(buf)
	return string(buf)
}

// blankComments overwrites -- line comments and /* */ block comments
// with spaces, leaving quoted strings untouched
func blankComments(buf []byte) {
	n := len(buf)
	for i := 0; i < n; i++ {
		switch buf[i] {
		case '\'', '"', '`':
			i = skipQuoted(buf, i)
		case '-':
			if i+1 < n && buf[i+1] == '-' {
				for i < n && buf[i] != '\n' {
					buf[i] = ' '
					i++
				}
			}
		case '/':
			if i+1 < n && buf[i+1] == '*' {
				for i < n {
					if buf[i] == '*' && i+1 < n && buf[i+1] == '/' {
						buf[i] = ' '
						buf[i+1] = ' '
						i++
						break
					}
					buf[i] = ' '
					i++
				}
			}
		}
	}
}

// blankDirectives overwrites SET and DROP TABLE statements that start
// at the beginning of the input or right after a semicolon. A SET that
// is part of a column definition or a CHARACTER SET clause never sits
// at a statement start, so it survives.
func blankDirectives(buf []byte) {
	n := len(buf)
	stmtStart := true
	for i := 0; i < n; i++ {
		c := buf[i]
		switch {
		case c == ';':
			stmtStart = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			// whitespace does not end a statement start
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(buf, i)
			stmtStart = false
		default:
			if stmtStart && (hasKeyword(buf, i, "SET") || hasDropTable(buf, i)) {
				i = blankStatement(buf, i)
				stmtStart = true
			} else {
				stmtStart = false
			}
		}
	}
}

// blankStatement overwrites from position i through the statement's
// terminating semicolon (or end of input) and returns the index of
// that semicolon
func blankStatement(buf []byte, i int) int {
	n := len(buf)
	for i < n {
		switch buf[i] {
		case ';':
			buf[i] = ' '
			return i
		case '\'', '"', '`':
			end := skipQuoted(buf, i)
			for ; i <= end && i < n; i++ {
				buf[i] = ' '
			}
			i--
		default:
			buf[i] = ' '
		}
		i++
	}
	return n - 1
}

// skipQuoted returns the index of the closing quote matching the one
// at position i, honoring backslash escapes. If the string is
// unterminated, the end of the buffer is returned.
func skipQuoted(buf []byte, i int) int {
	quote := buf[i]
	n := len(buf)
	for i++; i < n; i++ {
		if buf[i] == '\\' && quote != '`' {
			i++
			continue
		}
		if buf[i] == quote {
			return i
		}
	}
	return n - 1
}

// hasKeyword reports whether the given keyword starts at position i as
// a full word, case-insensitively
func hasKeyword(buf []byte, i int, keyword string) bool {
	if i+len(keyword) > len(buf) {
		return false
	}
	if !strings.EqualFold(string(buf[i:i+len(keyword)]), keyword) {
		return false
	}
	end := i + len(keyword)
	return end == len(buf) || !isWordByte(buf[end])
}

// hasDropTable reports whether a DROP TABLE statement starts at
// position i
func hasDropTable(buf []byte, i int) bool {
	if !hasKeyword(buf, i, "DROP") {
		return false
	}
	j := i + len("DROP")
	for j < len(buf) && (buf[j] == ' ' || buf[j] == '\t' || buf[j] == '\n' || buf[j] == '\r') {
		j++
	}
	return hasKeyword(buf, j, "TABLE")
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
