package manifest

import (
	"regexp"
	"strings"
)

// SourceType discriminates the Source union.
type SourceType string

const (
	SourceBuiltin SourceType = "builtin"
	SourceGit     SourceType = "git"
	SourceGitRef  SourceType = "git-ref"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceBuiltin, SourceGit, SourceGitRef:
		return true
	}
	return false
}

// IsGit reports whether t is fetched with git.
func (t SourceType) IsGit() bool {
	return t == SourceGit || t == SourceGitRef
}

// Source says where an entry's code comes from.
//
//	{"type": "builtin"}
//	{"type": "git", "repository": "...", "commit": "<sha>"}
//	{"type": "git", "repository": "...", "tag": "v1.2.3"}
//	{"type": "git-ref", "repository": "...", "ref": "<sha or tag>"}
type Source struct {
	Type       SourceType `json:"type" yaml:"type"`
	Repository string     `json:"repository,omitempty" yaml:"repository,omitempty"`
	Commit     string     `json:"commit,omitempty" yaml:"commit,omitempty"`
	Tag        string     `json:"tag,omitempty" yaml:"tag,omitempty"`
	Ref        string     `json:"ref,omitempty" yaml:"ref,omitempty"`
}

var commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// IsCommitHash reports whether s looks like an (abbreviated) commit hash.
func IsCommitHash(s string) bool {
	return commitPattern.MatchString(s)
}

// PinKind says how a git source is pinned.
type PinKind int

const (
	PinNone PinKind = iota
	PinCommit
	PinTag
)

// Pin returns how the source is pinned and the pinned value.
// A git-ref whose ref is a hex hash is a commit pin; any other ref is a tag.
// Branches are never resolved.
func (s Source) Pin() (PinKind, string) {
	switch s.Type {
	case SourceGit:
		if s.Commit != "" {
			return PinCommit, s.Commit
		}
		if s.Tag != "" {
			return PinTag, s.Tag
		}
	case SourceGitRef:
		if s.Ref == "" {
			return PinNone, ""
		}
		if IsCommitHash(s.Ref) {
			return PinCommit, s.Ref
		}
		return PinTag, s.Ref
	}
	return PinNone, ""
}

// TagVersion extracts the release version from a tag. It drops a leading
// name prefix ("v", "REL_", "ver_", "hypopg-", "pg_cron-") and, when the
// remainder has no dots, reads underscores as dots: REL_17_0 -> 17.0.
// A tag without digits is returned unchanged.
func TagVersion(tag string) string {
	start := versionStart(tag)
	if start < 0 {
		return tag
	}
	v := tag[start:]
	if !strings.Contains(v, ".") {
		v = strings.ReplaceAll(v, "_", ".")
	}
	return v
}

// versionStart returns the index of the first digit that begins the version:
// either everything before it is letters, or it directly follows a separator.
func versionStart(tag string) int {
	for i := 0; i < len(tag); i++ {
		if !isDigit(tag[i]) {
			continue
		}
		if i == 0 || isLetters(tag[:i]) || strings.IndexByte("-_/", tag[i-1]) >= 0 {
			return i
		}
	}
	return -1
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
