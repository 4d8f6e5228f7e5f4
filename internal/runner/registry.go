package runner

import "sort"

// Language identifies a supported interpreter.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
)

// FileToken is the placeholder in an argument template that expands to the
// materialized snippet path.
const FileToken = "{file}"

// Spec fully determines how a snippet file becomes a child-process
// invocation for one language.
type Spec struct {
	Language  Language
	Command   string   // interpreter binary
	Extension string   // snippet file extension, including the dot
	Args      []string // argument template; FileToken expands to the snippet path
}

// CommandLine expands the argument template against a snippet path.
func (s Spec) CommandLine(snippetPath string) (string, []string) {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		if a == FileToken {
			a = snippetPath
		}
		args[i] = a
	}
	return s.Command, args
}

// Registry maps language identifiers to interpreter invocation recipes. It
// is populated once at construction and read-only after that, so concurrent
// resolves need no locking.
type Registry struct {
	specs map[Language]Spec
}

// NewRegistry builds the language table. overrides replaces the default
// interpreter binary for a language; unknown keys are ignored.
func NewRegistry(overrides map[Language]string) *Registry {
	specs := map[Language]Spec{
		LangPython: {
			Language:  LangPython,
			Command:   "python3",
			Extension: ".py",
			Args:      []string{FileToken},
		},
		LangJavaScript: {
			Language:  LangJavaScript,
			Command:   "node",
			Extension: ".js",
			Args:      []string{FileToken},
		},
	}
	for lang, bin := range overrides {
		if spec, ok := specs[lang]; ok && bin != "" {
			spec.Command = bin
			specs[lang] = spec
		}
	}
	return &Registry{specs: specs}
}

// Resolve returns the invocation recipe for a language.
func (r *Registry) Resolve(lang Language) (Spec, error) {
	spec, ok := r.specs[lang]
	if !ok {
		return Spec{}, &UnsupportedLanguageError{Language: string(lang)}
	}
	return spec, nil
}

// Languages returns the registered identifiers in stable order.
func (r *Registry) Languages() []Language {
	langs := make([]Language, 0, len(r.specs))
	for lang := range r.specs {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
