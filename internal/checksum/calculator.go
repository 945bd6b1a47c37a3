package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode"
)

// CommentStyle selects the comment syntax stripped from content digests.
type CommentStyle int

const (
	CommentsNone CommentStyle = iota
	CommentsSQL
	CommentsHash
)

// StyleFor picks the comment style from an artifact's file name.
func StyleFor(name string) CommentStyle {
	switch filepath.Ext(name) {
	case ".sql":
		return CommentsSQL
	case ".conf", ".sh", ".txt":
		return CommentsHash
	}
	return CommentsNone
}

// SHA256 is a zero-size digest calculator.
type SHA256 struct{}

// New creates a SHA-256 calculator.
func New() SHA256 {
	return SHA256{}
}

// Raw returns the hex SHA-256 of content.
func (c SHA256) Raw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// Content returns the hex SHA-256 of content with comments removed and
// whitespace collapsed.
func (c SHA256) Content(style CommentStyle, content []byte) string {
	text := string(content)
	switch style {
	case CommentsSQL:
		text = stripSQLComments(text)
	case CommentsHash:
		text = stripHashComments(text)
	}
	hash := sha256.Sum256([]byte(collapseSpace(text)))
	return hex.EncodeToString(hash[:])
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripHashComments drops everything from an unquoted # that starts a word
// to the end of the line. The #! line of a script is kept.
func stripHashComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 && strings.HasPrefix(line, "#!") {
			continue
		}
		var quote rune
		for j, r := range line {
			if quote != 0 {
				if r == quote {
					quote = 0
				}
				continue
			}
			if r == '\'' || r == '"' {
				quote = r
				continue
			}
			if r == '#' && (j == 0 || line[j-1] == ' ' || line[j-1] == '\t') {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

type sqlState int

const (
	sqlCode sqlState = iota
	sqlLineComment
	sqlBlockComment
	sqlLiteral
	sqlDollarBody
)

// stripSQLComments removes -- and /* */ comments, leaving quoted literals and
// dollar-quoted bodies intact. Block comments nest.
func stripSQLComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	state := sqlCode
	depth := 0
	tag := ""

	for i := 0; i < len(s); {
		ch := s[i]
		var next byte
		if i+1 < len(s) {
			next = s[i+1]
		}

		switch state {
		case sqlCode:
			switch {
			case ch == '-' && next == '-':
				state = sqlLineComment
				b.WriteByte(' ')
				i += 2
			case ch == '/' && next == '*':
				state = sqlBlockComment
				depth = 1
				b.WriteByte(' ')
				i += 2
			case ch == '\'':
				state = sqlLiteral
				b.WriteByte(ch)
				i++
			case ch == '$':
				if t := dollarTag(s, i); t != "" {
					state = sqlDollarBody
					tag = t
					b.WriteString(t)
					i += len(t)
				} else {
					b.WriteByte(ch)
					i++
				}
			default:
				b.WriteByte(ch)
				i++
			}

		case sqlLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = sqlCode
			}
			i++

		case sqlBlockComment:
			switch {
			case ch == '/' && next == '*':
				depth++
				i += 2
			case ch == '*' && next == '/':
				depth--
				i += 2
				if depth == 0 {
					state = sqlCode
				}
			default:
				i++
			}

		case sqlLiteral:
			b.WriteByte(ch)
			i++
			if ch == '\'' {
				if next == '\'' {
					b.WriteByte(next)
					i++
				} else {
					state = sqlCode
				}
			}

		case sqlDollarBody:
			if strings.HasPrefix(s[i:], tag) {
				b.WriteString(tag)
				i += len(tag)
				state = sqlCode
				tag = ""
			} else {
				b.WriteByte(ch)
				i++
			}
		}
	}

	return b.String()
}

// dollarTag returns the $tag$ opener starting at i, or "".
func dollarTag(s string, i int) string {
	for j := i + 1; j < len(s); j++ {
		ch := s[j]
		if ch == '$' {
			return s[i : j+1]
		}
		letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		digit := ch >= '0' && ch <= '9'
		if !letter && (j == i+1 || !digit) {
			return ""
		}
	}
	return ""
}
