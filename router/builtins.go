// file: jsbridge/router/builtins.go
package router

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rskv-p/jsbridge/codec"
	"github.com/rskv-p/jsbridge/constant"
)

// Env is what the built-in commands expose to the script.
type Env struct {
	Cwd      string
	Argv     []string
	Version  string
	ReadFile func(string) ([]byte, error) // defaults to os.ReadFile
}

// Builtins returns the start and codeFetch routes.
func Builtins(env Env) []*Node {
	if env.ReadFile == nil {
		env.ReadFile = os.ReadFile
	}
	if env.Version == "" {
		env.Version = constant.Version
	}
	if env.Cwd == "" {
		env.Cwd, _ = os.Getwd()
	}
	return []*Node{
		{ID: constant.MessageTypeStart, Handler: env.start},
		{
			ID:      constant.MessageTypeCodeFetch,
			Handler: env.codeFetch,
			ValidationRules: map[string][]string{
				constant.BodyKeyModuleSpecifier: {"required"},
			},
			ValidationMessages: map[string]string{
				constant.BodyKeyModuleSpecifier + ".required": "moduleSpecifier is required",
			},
		},
	}
}

func (env Env) start(_ context.Context, _ *codec.Message, res *codec.Message) *Error {
	argv := env.Argv
	if argv == nil {
		argv = []string{}
	}
	res.Set(constant.BodyKeyCwd, env.Cwd)
	res.Set(constant.BodyKeyArgv, argv)
	res.Set(constant.BodyKeyVersion, env.Version)
	return nil
}

func (env Env) codeFetch(_ context.Context, req *codec.Message, res *codec.Message) *Error {
	specifier := req.GetString(constant.BodyKeyModuleSpecifier)
	containing := req.GetString(constant.BodyKeyContainingFile)
	exts := req.GetStrings(constant.BodyKeyExtensions)
	if len(exts) == 0 {
		exts = []string{".js"}
	}

	if strings.Contains(specifier, "://") && !strings.HasPrefix(specifier, "file://") {
		return Errorf(constant.StatusBadRequest, "remote module %q is not supported", specifier)
	}

	name, filename, src, err := env.resolve(specifier, containing, exts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Errorf(constant.StatusNotFound, "cannot resolve module %q from %q", specifier, containing)
		}
		return Errorf(constant.StatusInternalError, "read %s: %v", filename, err)
	}

	res.Set(constant.BodyKeyModuleName, name)
	res.Set(constant.BodyKeyFilename, filename)
	res.Set(constant.BodyKeySourceCode, string(src))
	return nil
}

// resolve maps a specifier onto a file. Relative specifiers are resolved
// against the containing file, bare ones against the working directory.
// Extensionless names are retried with each of exts in order.
func (env Env) resolve(specifier, containing string, exts []string) (name, filename string, src []byte, err error) {
	specifier = strings.TrimPrefix(specifier, "file://")

	switch {
	case filepath.IsAbs(specifier):
		name = filepath.Clean(specifier)
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		base := env.Cwd
		if containing != "" {
			base = filepath.Dir(strings.TrimPrefix(containing, "file://"))
			if !filepath.IsAbs(base) {
				base = filepath.Join(env.Cwd, base)
			}
		}
		name = filepath.Join(base, specifier)
	default:
		name = filepath.Join(env.Cwd, specifier)
	}

	filename = name
	src, err = env.ReadFile(filename)
	if filepath.Ext(name) != "" {
		return name, filename, src, err
	}
	for _, ext := range exts {
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			break
		}
		filename = name + ext
		src, err = env.ReadFile(filename)
	}
	return name, filename, src, err
}
