package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCatalogMissingFileFallsBackToDefault(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(cat.LeadIns) != 2 || len(cat.Programs) != 4 {
		t.Fatalf("ожидали встроенный каталог, получили %+v", cat)
	}
}

func TestLoadCatalogOverridesLeadIns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := "lead_ins:\n  - \"Mandar WhatsApp al\"\ncancelled_prefix: \"Anulado\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(cat.LeadIns) != 1 || cat.LeadIns[0] != "Mandar WhatsApp al" {
		t.Fatalf("лид-ины не переопределены: %v", cat.LeadIns)
	}
	if cat.CancelledPrefix != "Anulado" {
		t.Fatalf("ожидали Anulado, получили %q", cat.CancelledPrefix)
	}
	if len(cat.Programs) != 4 || cat.Messages.Closing == "" {
		t.Fatalf("незаполненные поля должны браться из встроенного каталога")
	}
}

func TestLoadCatalogInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("lead_ins: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestDefaultGreetingsHaveNoTrailingSpace(t *testing.T) {
	for _, p := range DefaultCatalog().Programs {
		if p.Greeting != strings.TrimSpace(p.Greeting) {
			t.Fatalf("приветствие %q содержит лишние пробелы", p.Category)
		}
		if !strings.HasSuffix(p.Greeting, greetingTail) {
			t.Fatalf("приветствие %q должно заканчиваться общей фразой", p.Category)
		}
	}
}
