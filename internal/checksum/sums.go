package checksum

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// FileSum holds both digests of one artifact.
type FileSum struct {
	Name    string
	Raw     string
	Content string
}

// Sums is a set of artifact digests ordered by name.
type Sums []FileSum

// Compute digests every file in files.
func (c SHA256) Compute(files map[string][]byte) Sums {
	sums := make(Sums, 0, len(files))
	for name, content := range files {
		sums = append(sums, FileSum{
			Name:    name,
			Raw:     c.Raw(content),
			Content: c.Content(StyleFor(name), content),
		})
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i].Name < sums[j].Name })
	return sums
}

// Render returns the raw digests in sha256sum format.
func (s Sums) Render() string {
	var b strings.Builder
	for _, f := range s {
		fmt.Fprintf(&b, "%s  %s\n", f.Raw, f.Name)
	}
	return b.String()
}

// ParseSums reads a sha256sum-format file into name -> raw digest.
func ParseSums(data string) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		digest, name, ok := strings.Cut(text, "  ")
		if !ok || len(digest) != 64 {
			return nil, fmt.Errorf("line %d: malformed checksum line", line)
		}
		out[strings.TrimPrefix(name, "*")] = digest
	}
	return out, scanner.Err()
}
