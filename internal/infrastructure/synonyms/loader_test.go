package synonyms

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesYAMLGroups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	content := "Kubernetes:\n  - K8s\nReact:\n  - ReactJS\n  - React.js\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	forms := table.Expand("reactjs")
	if len(forms) != 3 {
		t.Fatalf("expected 3 variant forms, got %v", forms)
	}
}

func TestLoadFallsBackWithoutFile(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if forms := table.Expand("k8s"); len(forms) < 2 {
		t.Fatalf("expected built-in kubernetes group, got %v", forms)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
