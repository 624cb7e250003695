package querydef

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/nanoquery/nanoquery/query"
)

func build(t *testing.T, src string) (query.Query, error) {
	t.Helper()
	def, err := Decode([]byte(src), false)
	if err != nil {
		return query.Query{}, err
	}
	return def.Build()
}

func TestBuildCanonicalID(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "collection scan",
			src:  "path: rooms\n",
			want: "rooms|f:|ob:__name__asc",
		},
		{
			name: "inequality with limit",
			src: `path: rooms
where:
  - {field: unread, op: ">", value: 0}
limit: 5
`,
			want: "rooms|f:unread>0|ob:unreadasc,__name__asc|l:5|lt:f",
		},
		{
			name: "limit to last flips the target",
			src: `path: rooms
order_by:
  - {field: unread, direction: desc}
limit: 2
limit_to_last: true
`,
			want: "rooms|f:|ob:unreadasc,__name__asc|l:2|lt:l",
		},
		{
			name: "collection group",
			src:  "path: \"\"\ncollection_group: messages\n",
			want: "|cg:messages|f:|ob:__name__asc",
		},
		{
			name: "key cursor resolves bare ids",
			src: `path: rooms
start_after: [eros]
`,
			want: "rooms|f:|ob:__name__asc|lb:a:ref(rooms/eros)",
		},
		{
			name: "two part cursor",
			src: `path: rooms
order_by: [{field: unread}]
start_at: [3, rooms/eros]
end_before: [9]
`,
			want: "rooms|f:|ob:unreadasc,__name__asc|lb:b:3,ref(rooms/eros)|ub:b:9",
		},
		{
			name: "key filter in list",
			src: `path: rooms
where:
  - {field: __name__, op: in, value: [eros, rooms/ares]}
`,
			want: "rooms|f:__name__in[ref(rooms/eros),ref(rooms/ares)]|ob:__name__asc",
		},
		{
			name: "or group",
			src: `path: rooms
where:
  - or:
      - {field: a, op: "==", value: 1}
      - {field: b, op: "==", value: 2}
`,
			want: "rooms|f:or(a==1,b==2)|ob:__name__asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := build(t, tt.src)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := q.CanonicalID(); got != tt.want {
				t.Errorf("CanonicalID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		violation bool
	}{
		{name: "unknown key", src: "path: rooms\nwhere_clause: []\n"},
		{name: "unknown operator", src: "path: rooms\nwhere: [{field: a, op: \"~\", value: 1}]\n"},
		{name: "mixed condition", src: "path: rooms\nwhere: [{field: a, op: \"==\", value: 1, or: []}]\n"},
		{name: "empty condition", src: "path: rooms\nwhere: [{}]\n"},
		{name: "bad direction", src: "path: rooms\norder_by: [{field: a, direction: up}]\n"},
		{name: "limit to last without limit", src: "path: rooms\nlimit_to_last: true\n"},
		{name: "negative limit", src: "path: rooms\nlimit: -1\n"},
		{name: "both start cursors", src: "path: rooms\nstart_at: [a]\nstart_after: [b]\n"},
		{name: "cursor too long", src: "path: rooms\nstart_at: [a, b]\n"},
		{name: "key cursor not a document", src: "path: rooms\nstart_at: [rooms/eros/messages]\n"},
		{name: "bad path", src: "path: rooms//x\n"},
		{
			name:      "two inequality fields",
			src:       "path: rooms\nwhere:\n  - {field: a, op: \">\", value: 1}\n  - {field: b, op: \"<\", value: 1}\n",
			violation: true,
		},
		{
			name:      "order by mismatching inequality",
			src:       "path: rooms\nwhere: [{field: a, op: \">\", value: 1}]\norder_by: [{field: b}]\n",
			violation: true,
		},
		{
			name:      "in without array",
			src:       "path: rooms\nwhere: [{field: a, op: in, value: 1}]\n",
			violation: true,
		},
		{
			name:      "filter on document query",
			src:       "path: rooms/eros\nwhere: [{field: a, op: \"==\", value: 1}]\n",
			violation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.src)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("error = %v, want ErrInvalidDefinition", err)
			}
			if got := errors.Is(err, query.ErrContractViolation); got != tt.violation {
				t.Errorf("contract violation = %v, want %v (%v)", got, tt.violation, err)
			}
		})
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.json")
	src := `{"path": "rooms", "where": [{"field": "unread", "op": ">=", "value": 2.5}], "limit": 3}`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	q, def, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if def.Path != "rooms" || *def.Limit != 3 {
		t.Errorf("unexpected definition %+v", def)
	}
	if want := "rooms|f:unread>=2.5|ob:unreadasc,__name__asc|l:3|lt:f"; q.CanonicalID() != want {
		t.Errorf("CanonicalID() = %q, want %q", q.CanonicalID(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v", err)
	}
}
