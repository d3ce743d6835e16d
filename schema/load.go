package schema

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/gqlwire/errors"
)

// DefaultExtension is the schema file extension used when none is configured
const DefaultExtension = "graphqls"

// LoadDir reads every file below dir whose name ends in "."+ext.
func LoadDir(dir, ext string) ([]*ast.Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapFatal(errors.ErrSchemaNotFound, "schema", "LoadDir", "stat "+dir)
	}
	if !info.IsDir() {
		return nil, errors.WrapFatal(errors.ErrSchemaNotFound, "schema", "LoadDir", dir+" is not a directory")
	}

	sources, err := LoadFS(os.DirFS(dir), ext)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		src.Name = path.Join(dir, src.Name)
	}
	return sources, nil
}

// LoadFS reads every file in fsys whose name ends in "."+ext, sorted by
// path. Finding no file is fatal.
func LoadFS(fsys fs.FS, ext string) ([]*ast.Source, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	suffix := "." + strings.TrimPrefix(ext, ".")

	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapFatal(err, "schema", "LoadFS", "walk schema files")
	}
	if len(names) == 0 {
		return nil, errors.WrapFatal(errors.ErrSchemaNotFound, "schema", "LoadFS", "find *"+suffix+" files")
	}
	sort.Strings(names)

	sources := make([]*ast.Source, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.WrapFatal(err, "schema", "LoadFS", "read "+name)
		}
		sources = append(sources, &ast.Source{Name: name, Input: string(data)})
	}
	return sources, nil
}
