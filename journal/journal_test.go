package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDir(dir)
	t.Cleanup(func() { SetConfigDir("") })
	return dir
}

func TestSaveLoadDelete(t *testing.T) {
	dir := useTempDir(t)

	strip := true
	j := &Journal{
		Name:         "TvG Main",
		Description:  "Tijdschrift voor Geneeskunde",
		Path:         "tvg",
		Abbreviation: "Tijdschr Geneeskd",
		StripHTML:    &strip,
	}
	if err := j.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "journals", "tvg-main.yaml")); err != nil {
		t.Fatalf("profile file not written: %v", err)
	}
	if !Exists("tvg main") {
		t.Error("Exists should match the sanitized name")
	}

	loaded, err := Load("TvG Main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Path != "tvg" || loaded.Abbreviation != "Tijdschr Geneeskd" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.StripHTML == nil || !*loaded.StripHTML {
		t.Error("StripHTML not preserved")
	}

	names, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if strings.Join(names, ",") != "tvg-main" {
		t.Errorf("List = %v", names)
	}

	if err := Delete("tvg-main"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if Exists("tvg-main") {
		t.Error("profile still exists after Delete")
	}
	if err := Delete("tvg-main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}

func TestLoadMissing(t *testing.T) {
	useTempDir(t)

	if _, err := Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	names, err := List()
	if err != nil || len(names) != 0 {
		t.Errorf("List on empty dir = %v, %v", names, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		journal Journal
		wantErr string
	}{
		{"valid", Journal{Name: "a", Path: "tvg", Abbreviation: "TvG"}, ""},
		{"missing path", Journal{Name: "a", Abbreviation: "TvG"}, "path"},
		{"missing abbreviation", Journal{Name: "a", Path: "tvg"}, "abbreviation"},
		{"slash in path", Journal{Name: "a", Path: "tvg/x", Abbreviation: "TvG"}, "path"},
		{"bad url", Journal{Name: "a", Path: "tvg", Abbreviation: "TvG", BaseURL: "not a url"}, "baseurl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.journal.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	useTempDir(t)

	if err := (&Journal{Name: "x"}).Save(); err == nil {
		t.Error("expected validation error")
	}
	if Exists("x") {
		t.Error("invalid profile should not be written")
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	useTempDir(t)

	for _, name := range []string{"", "../etc", "a/b", ".."} {
		if _, err := Path(name); err == nil {
			t.Errorf("Path(%q) should fail", name)
		}
	}
}

func TestSettings(t *testing.T) {
	j := &Journal{Name: "a", Path: "tvg", Abbreviation: "TvG", BaseURL: "https://ojs.example.org"}
	s := j.Settings()

	if s["journal_path"] != "tvg" || s["journal_abbreviation"] != "TvG" || s["base_url"] != "https://ojs.example.org" {
		t.Errorf("Settings = %v", s)
	}
	if _, ok := s["strip_html"]; ok {
		t.Error("unset StripHTML should be omitted")
	}
}
