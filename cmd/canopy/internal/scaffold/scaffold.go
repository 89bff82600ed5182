// Package scaffold provides the embedded starter files written by
// canopy init.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"golang.org/x/mod/modfile"
)

//go:embed templates
var FS embed.FS

// goDirective is the Go version written into generated go.mod files.
const goDirective = "1.24.0"

// Data contains the values substituted into the starter templates.
type Data struct {
	ModulePath string
	AppName    string
}

// Render reads the named template from the embedded filesystem and
// substitutes data into it.
func Render(name string, data Data) (string, error) {
	content, err := FS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// GoMod synthesizes go.mod contents for a fresh project. The canopy
// requirement is added by go get after scaffolding, not here, so a failed
// fetch leaves a still-valid module behind.
func GoMod(modulePath string) ([]byte, error) {
	f := new(modfile.File)
	if err := f.AddModuleStmt(modulePath); err != nil {
		return nil, fmt.Errorf("failed to set module path: %w", err)
	}
	if err := f.AddGoStmt(goDirective); err != nil {
		return nil, fmt.Errorf("failed to set go directive: %w", err)
	}
	return f.Format()
}

// ListTemplates returns the names of all embedded starter templates.
func ListTemplates() ([]string, error) {
	var names []string
	err := fs.WalkDir(FS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, strings.TrimPrefix(p, "templates/"))
		}
		return nil
	})
	return names, err
}
