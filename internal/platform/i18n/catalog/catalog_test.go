package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, locale := range []string{BaseLocale, "pt-BR"} {
		if !bundle.HasLocale(locale) {
			t.Fatalf("expected locale %s", locale)
		}
		if got := len(bundle.NamespaceMessages(locale, "roll")); got == 0 {
			t.Fatalf("expected %s roll messages", locale)
		}
	}
}

func TestEmbeddedLocalesDefineTheSameKeys(t *testing.T) {
	bundle := Default()
	base := bundle.locales[BaseLocale].messages
	for _, locale := range bundle.Locales() {
		messages := bundle.locales[locale].messages
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Errorf("%s is missing %q", locale, key)
			}
		}
		for key := range messages {
			if _, ok := base[key]; !ok {
				t.Errorf("%s defines %q, absent from %s", locale, key, BaseLocale)
			}
		}
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	value, ok := Default().Message("fr-FR", "roll.total")
	if !ok || value != "Total: %v" {
		t.Fatalf("Message = %q, %v", value, ok)
	}
	if _, ok := Default().Message("en-US", "roll.missing"); ok {
		t.Fatal("expected missing key")
	}
}

func TestPrinterUsesRegisteredMessages(t *testing.T) {
	got := Default().Printer("pt-BR").Sprintf("roll.passed", 2)
	if got != "Sucesso por 2" {
		t.Fatalf("pt-BR = %q", got)
	}
	got = Default().Printer("xx-not-a-locale").Sprintf("roll.passed", 2)
	if got != "Passed by 2" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestLoadFromFSRejectsKeyOutsideNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/roll.yaml"), `locale: "en-US"
namespace: "roll"
messages:
  "errors.bad": "nope"
`)
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil || !strings.Contains(err.Error(), "must start with") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/roll.yaml"), `locale: "pt-BR"
namespace: "roll"
messages:
  "roll.a": "a"
`)
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/pt-BR/roll.yaml"), `locale: "pt-BR"
namespace: "roll"
messages:
  "roll.a": "a"
`)
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestLoadFromFSRejectsInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/roll.yaml"), "messages: [\n")
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected parse error")
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
