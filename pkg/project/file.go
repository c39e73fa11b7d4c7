package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/openltablets/dtinfer/api"
	"github.com/openltablets/dtinfer/api/v1beta1/projects"
	"github.com/openltablets/dtinfer/pkg/config"
)

// Resolve returns the project file for path. A directory is searched for
// one of [projects.FileNames], walking up to the filesystem root.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat project: %w", err)
	}

	if !info.IsDir() {
		return path, nil
	}

	file, err := api.FindFile(path, projects.FileNames...)
	if err != nil {
		return "", fmt.Errorf("find project file: %w", err)
	}

	if file == "" {
		return "", fmt.Errorf("%w: no %v in %s or its parents", os.ErrNotExist, projects.FileNames, path)
	}

	return file, nil
}

// LoadFile reads, validates and loads the project at path. Workbook
// paths resolve against the directory of the project file.
func LoadFile(path string, opts ...Opt) (*Project, error) {
	file, err := Resolve(path)
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	l, err := config.NewLoaderFromFile(file, projects.New, projects.DefaultValidator, o.loader...)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	doc, err := l.ValidateAndLoad()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return Load(doc, append([]Opt{WithDir(filepath.Dir(file))}, opts...)...)
}
