package runner

import (
	"errors"
	"testing"
)

func TestResolveKnownLanguages(t *testing.T) {
	r := NewRegistry(nil)

	for lang, wantExt := range map[Language]string{
		LangPython:     ".py",
		LangJavaScript: ".js",
	} {
		spec, err := r.Resolve(lang)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", lang, err)
		}
		if spec.Extension != wantExt {
			t.Errorf("extension for %s = %q, want %q", lang, spec.Extension, wantExt)
		}
		if spec.Command == "" {
			t.Errorf("%s has no interpreter command", lang)
		}
	}
}

func TestResolveUnsupported(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Resolve("cobol")
	if err == nil {
		t.Fatal("Resolve(cobol) should fail")
	}
	var unsupported *UnsupportedLanguageError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %T, want *UnsupportedLanguageError", err)
	}
	if unsupported.Language != "cobol" {
		t.Errorf("Language = %q, want %q", unsupported.Language, "cobol")
	}
}

func TestRegistryInterpreterOverride(t *testing.T) {
	r := NewRegistry(map[Language]string{
		LangPython: "/opt/python/bin/python3.12",
		"cobol":    "/usr/bin/cobc", // unknown languages are ignored
	})

	spec, err := r.Resolve(LangPython)
	if err != nil {
		t.Fatalf("Resolve(python): %v", err)
	}
	if spec.Command != "/opt/python/bin/python3.12" {
		t.Errorf("Command = %q, want override", spec.Command)
	}

	if _, err := r.Resolve("cobol"); err == nil {
		t.Error("override must not register a new language")
	}
}

func TestCommandLineExpandsFileToken(t *testing.T) {
	spec := Spec{
		Command: "python3",
		Args:    []string{"-I", FileToken},
	}

	bin, args := spec.CommandLine("/tmp/ws/snippet.py")
	if bin != "python3" {
		t.Errorf("bin = %q", bin)
	}
	if len(args) != 2 || args[0] != "-I" || args[1] != "/tmp/ws/snippet.py" {
		t.Errorf("args = %v", args)
	}

	// The template itself must not be mutated.
	if spec.Args[1] != FileToken {
		t.Errorf("template mutated: %v", spec.Args)
	}
}

func TestLanguagesStableOrder(t *testing.T) {
	r := NewRegistry(nil)

	langs := r.Languages()
	if len(langs) != 2 {
		t.Fatalf("Languages() = %v, want 2 entries", langs)
	}
	if langs[0] != LangJavaScript || langs[1] != LangPython {
		t.Errorf("Languages() = %v, want sorted [javascript python]", langs)
	}
}
