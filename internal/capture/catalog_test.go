package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}

func TestCatalog_Scan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, serverToClient, "HTTP/1.1 200 OK\r\n")
	writeFile(t, dir, clientToServer, "GET / HTTP/1.1\r\n")
	writeFile(t, dir, "010.000.000.001.00080-010.000.000.002.40000", "x")
	writeFile(t, dir, "192.168.001.132.0080-192.168.001.104.12345", "missing digit")
	writeFile(t, dir, "notes.txt", "hello")
	if err := os.Mkdir(filepath.Join(dir, "192.168.001.132.00080-192.168.001.104.00001"), 0o755); err != nil {
		t.Fatal(err)
	}

	listen, _ := ParseEndpoint("192.168.1.132:80", 80)
	scan, err := NewCatalog(dir, listen).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(scan.Valid) != 2 {
		t.Fatalf("Valid = %d files, want 2", len(scan.Valid))
	}
	if scan.Valid[0].Base() != clientToServer || scan.Valid[1].Base() != serverToClient {
		t.Errorf("Valid not sorted by name: %s, %s", scan.Valid[0].Base(), scan.Valid[1].Base())
	}
	if scan.Valid[0].Size != int64(len("GET / HTTP/1.1\r\n")) {
		t.Errorf("Size = %d", scan.Valid[0].Size)
	}
	if len(scan.Foreign) != 1 || scan.Foreign[0].Base() != "010.000.000.001.00080-010.000.000.002.40000" {
		t.Errorf("Foreign = %+v", scan.Foreign)
	}
	if scan.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", scan.Skipped)
	}
}

func TestCatalog_MissingDir(t *testing.T) {
	listen, _ := ParseEndpoint("192.168.1.132:80", 80)
	if _, err := NewCatalog(filepath.Join(t.TempDir(), "gone"), listen).Scan(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
