// Package scaffold writes a starter profile and manifest from embedded templates.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

//go:embed all:templates
var templatesFS embed.FS

// DefaultTemplate is used when init is given no --template.
const DefaultTemplate = "minimal"

// ErrTargetNotEmpty is returned when init would overwrite an existing file.
var ErrTargetNotEmpty = errors.New("target already contains pgbundle files")

// Scaffolder creates starter projects.
type Scaffolder struct {
	logger pgbundle.Logger
}

// NewScaffolder creates a new Scaffolder.
func NewScaffolder(logger pgbundle.Logger) *Scaffolder {
	return &Scaffolder{logger: logger}
}

// CreateProject copies the named template into targetPath, replacing
// {{PROJECT_NAME}}. It returns the written paths relative to targetPath.
// Existing directories are fine; existing files are never overwritten.
func (s *Scaffolder) CreateProject(projectName, templateName, targetPath string) ([]string, error) {
	root := path.Join("templates", templateName)
	if _, err := templatesFS.ReadDir(root); err != nil {
		names, _ := ListTemplates()
		return nil, fmt.Errorf("template %q not found (available: %s)", templateName, strings.Join(names, ", "))
	}

	files, err := templateFiles(root)
	if err != nil {
		return nil, err
	}

	var clashes []string
	for _, rel := range files {
		if _, err := os.Stat(filepath.Join(targetPath, filepath.FromSlash(rel))); err == nil {
			clashes = append(clashes, rel)
		}
	}
	if len(clashes) > 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrTargetNotEmpty, strings.Join(clashes, ", "), targetPath)
	}

	s.logger.Verbose("Creating project %q at %s from template %q", projectName, targetPath, templateName)
	for _, rel := range files {
		content, err := templatesFS.ReadFile(path.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", rel, err)
		}
		target := filepath.Join(targetPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(processTemplate(string(content), projectName)), 0644); err != nil {
			return nil, fmt.Errorf("failed to write file %s: %w", target, err)
		}
		s.logger.Verbose("Created %s", rel)
	}
	return files, nil
}

func templateFiles(root string) ([]string, error) {
	var files []string
	err := fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, strings.TrimPrefix(p, root+"/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list template %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func processTemplate(content, projectName string) string {
	return strings.ReplaceAll(content, "{{PROJECT_NAME}}", projectName)
}

// ListTemplates returns the available template names.
func ListTemplates() ([]string, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			templates = append(templates, entry.Name())
		}
	}
	return templates, nil
}
