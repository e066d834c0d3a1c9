package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred Predicate
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "fieldbook/internal/records", true},
		{"internal root", InternalImportForbidden, "internal/x", true},
		{"not internal", InternalImportForbidden, "fieldbook/pkg/domain", false},
		{"adapter kv", AdapterImportForbidden, "fieldbook/internal/kv", true},
		{"adapter infra", AdapterImportForbidden, "fieldbook/internal/infra/kv/s3", true},
		{"adapter prefix only", AdapterImportForbidden, "fieldbook/internal/kvx", false},
		{"pure layer", AdapterImportForbidden, "fieldbook/internal/normalize", false},
		{"io os", IOImportForbidden, "os", true},
		{"io http", IOImportForbidden, "net/http", true},
		{"not io", IOImportForbidden, "encoding/json", false},
		{"any of", AnyOf(IOImportForbidden, AdapterImportForbidden), "fieldbook/internal/remote", true},
		{"any of none", AnyOf(), "os", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s: predicate(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"net/http\"\n)\nvar _ = fmt.Sprint\nvar _ = http.MethodGet\n")
	writeSource(t, dir, "a_test.go", "package tmp\nimport \"os\"\nvar _ = os.Args\n")
	writeSource(t, dir, "notes.txt", "import \"os\"")
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	viols, err := directImportViolations(dir, IOImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "net/http (in a.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}

	rec := &recordingFatal{}
	failIfViolations(rec, "direct imports", "pure layer", viols)
	if !strings.Contains(rec.msg, "pure layer") || !strings.Contains(rec.msg, "net/http") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
}

func TestDirectImportViolationsReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "broken.go", "package tmp\nimport (")
	if _, err := directImportViolations(dir, IOImportForbidden); err == nil {
		t.Fatal("expected a parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), IOImportForbidden); err == nil {
		t.Fatal("expected a missing directory error")
	}
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n")
	AssertNoDirectImports(t, dir, IOImportForbidden, "fmt only")
}

func TestFailIfViolationsIsQuietWhenClean(t *testing.T) {
	rec := &recordingFatal{}
	failIfViolations(rec, "direct imports", "clean", nil)
	if rec.msg != "" {
		t.Fatalf("unexpected failure %q", rec.msg)
	}
}

func TestAssertNoTransitiveDependency(t *testing.T) {
	AssertNoTransitiveDependency(t, "fieldbook/pkg/domain", AdapterImportForbidden, "domain stays pure")
}
