package prompts

import (
	"embed"
	"io/fs"
)

// Names of the built-in prompts.
const (
	Report   = "report"
	Chat     = "chat"
	Extended = "extended"
)

//go:embed templates/*.tmpl templates/prompts.yaml
var builtin embed.FS

// Builtin returns the embedded prompt filesystem.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Default builds and loads a registry over the embedded prompts.
func Default(opts ...RegistryOption) (*Registry, error) {
	reg := NewRegistry(Builtin(), opts...)
	if err := reg.Reload(); err != nil {
		return nil, err
	}
	return reg, nil
}
