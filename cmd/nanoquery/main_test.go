package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/nanoquery/testutil"
)

// execute runs the CLI in a scratch directory against a copy of the
// fixture and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("NANOQUERY_CONFIG", "")

	s, _ := testutil.LoadUniverse(t)
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	docs := filepath.Join(dir, "docs.yaml")
	if err := os.WriteFile(docs, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NANOQUERY_DOCS", docs)
	return dir
}

func writeQuery(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const unreadQuery = `path: rooms
where:
  - {field: unread, op: ">", value: 0}
order_by:
  - {field: unread, direction: desc}
limit: 2
`

func TestRun(t *testing.T) {
	dir := setup(t)
	q := writeQuery(t, dir, "unread.yaml", unreadQuery)

	out, err := execute(t, "run", q)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	want := "rooms/hermes\n"
	if !strings.HasPrefix(out, want) || !strings.Contains(out, "\nrooms/hestia\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "rooms/eros") {
		t.Errorf("limit not applied:\n%s", out)
	}
}

func TestRunFormatFlag(t *testing.T) {
	dir := setup(t)
	q := writeQuery(t, dir, "unread.yaml", unreadQuery)

	out, err := execute(t, "run", "--format", "markdown", q)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.HasPrefix(out, "| path |") {
		t.Errorf("expected a markdown table:\n%s", out)
	}

	if _, err := execute(t, "run", "--format", "xml", q); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestRunInvalidQuery(t *testing.T) {
	dir := setup(t)
	q := writeQuery(t, dir, "bad.yaml", "path: rooms\nwhere:\n  - {field: a, op: \">\", value: 1}\n  - {field: b, op: \">\", value: 1}\n")

	_, err := execute(t, "run", q)
	if err == nil || !strings.Contains(err.Error(), "one inequality field") {
		t.Errorf("run error = %v", err)
	}
}

func TestExplain(t *testing.T) {
	dir := setup(t)
	q := writeQuery(t, dir, "unread.yaml", unreadQuery+"limit_to_last: true\n")

	out, err := execute(t, "explain", q)
	if err != nil {
		t.Fatalf("explain error = %v", err)
	}
	for _, want := range []string{
		"rooms|f:unread>0|ob:unreadasc,__name__asc|l:2|lt:l",
		"unread desc, __name__ desc",
		"inequality field:",
		"2 (last)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("explain output missing %q:\n%s", want, out)
		}
	}
}

func TestAdd(t *testing.T) {
	dir := setup(t)

	out, err := execute(t, "add", "rooms", "--id", "apollo", "--set", "unread=9", "--set", "tags=[new]")
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	if strings.TrimSpace(out) != "rooms/apollo" {
		t.Errorf("add output = %q", out)
	}

	q := writeQuery(t, dir, "unread.yaml", unreadQuery)
	out, err = execute(t, "run", q)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "rooms/apollo\n") {
		t.Errorf("added document not first:\n%s", out)
	}

	if _, err := execute(t, "add", "rooms", "--set", "novalue"); err == nil {
		t.Error("expected an error for a malformed --set")
	}
}

func TestViews(t *testing.T) {
	dir := setup(t)
	a := writeQuery(t, dir, "a.yaml", "path: rooms\nlimit: 2\n")
	b := writeQuery(t, dir, "b.json", `{"limit": 2, "path": "rooms"}`)
	c := writeQuery(t, dir, "c.yaml", unreadQuery)

	out, err := execute(t, "views", "--metrics", a, b, c)
	if err != nil {
		t.Fatalf("views error = %v", err)
	}
	for _, want := range []string{
		b + ": shares view rooms|f:|ob:__name__asc|l:2|lt:f",
		"2 distinct views",
		a + ": 5 matching, 2 returned",
		c + ": 3 matching, 2 returned",
		"nanoquery_active_views 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("views output missing %q:\n%s", want, out)
		}
	}
}
