package framing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/flow"
)

const (
	respName = "192.168.001.132.00080-192.168.001.104.12345"
	reqName  = "192.168.001.104.12345-192.168.001.132.00080"
)

func pairOf(t *testing.T, aBody, bBody string) flow.Pair {
	t.Helper()
	dir := t.TempDir()
	mk := func(name, body string) capture.File {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		n, err := capture.ParseName(name)
		if err != nil {
			t.Fatal(err)
		}
		return capture.File{Name: n, Path: path, Size: int64(len(body))}
	}
	return flow.Pair{A: mk(reqName, aBody), B: mk(respName, bBody)}
}

func TestClassify_Orderings(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    Verdict
		request string
	}{
		{"request first", "GET /api/x HTTP/1.1\r\n", "HTTP/1.1 200 OK\r\n", Accept, reqName},
		{"response first", "HTTP/1.1 200 OK\r\n", "POST /api/x HTTP/1.1\r\n", Accept, respName},
		{"neither", "hello\r\n", "world\r\n", RejectFraming, ""},
		{"both requests", "GET / HTTP/1.1\r\n", "GET / HTTP/1.1\r\n", RejectFraming, ""},
		{"both responses", "HTTP/1.1 200 OK\r\n", "HTTP/1.1 200 OK\r\n", RejectFraming, ""},
		{"empty a", "", "HTTP/1.1 200 OK\r\n", RejectEmpty, ""},
		{"empty b", "GET / HTTP/1.1\r\n", "", RejectEmpty, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Classifier{}.Classify(pairOf(t, tt.a, tt.b))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if res.Verdict != tt.want {
				t.Fatalf("Verdict = %v, want %v", res.Verdict, tt.want)
			}
			if tt.request != "" && res.Request.Name.String() != tt.request {
				t.Errorf("Request = %s, want %s", res.Request.Name, tt.request)
			}
		})
	}
}

func TestClassify_PrefixFilter(t *testing.T) {
	c := Classifier{Filter: PrefixFilter{Prefix: "/api/"}}

	res, err := c.Classify(pairOf(t, "GET /health HTTP/1.1\r\n", "HTTP/1.1 200 OK\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != RejectURL {
		t.Errorf("Verdict = %v, want url", res.Verdict)
	}

	res, err = c.Classify(pairOf(t, "GET /api/users HTTP/1.1\r\n", "HTTP/1.1 200 OK\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Accept {
		t.Errorf("Verdict = %v, want accept", res.Verdict)
	}
	if res.Line.Target != "/api/users" || res.Line.Method != "GET" {
		t.Errorf("Line = %+v", res.Line)
	}
}

func TestClassify_MissingFileIsTransient(t *testing.T) {
	p := pairOf(t, "GET / HTTP/1.1\r\n", "HTTP/1.1 200 OK\r\n")
	if err := os.Remove(p.B.Path); err != nil {
		t.Fatal(err)
	}
	if _, err := (Classifier{}).Classify(p); err == nil {
		t.Fatal("expected error for vanished file")
	}
}
