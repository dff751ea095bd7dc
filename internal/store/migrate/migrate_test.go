package migrate

import (
	"testing"
	"testing/fstest"
)

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"002_index.up.sql":     {Data: []byte("CREATE INDEX x ON t (a);")},
		"001_initial.up.sql":   {Data: []byte("CREATE TABLE t (a INT);")},
		"001_initial.down.sql": {Data: []byte("DROP TABLE t;")},
		"embed.go":             {Data: []byte("package migrations")},
		"notes_up.up.sql":      {Data: []byte("-- not versioned")},
	}

	got, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d migrations, want 2", len(got))
	}
	if got[0].Version != 1 || got[1].Version != 2 {
		t.Errorf("versions = %d, %d, want 1, 2", got[0].Version, got[1].Version)
	}
	if got[0].SQL != "CREATE TABLE t (a INT);" {
		t.Errorf("SQL = %q", got[0].SQL)
	}
}

func TestLoad_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.up.sql": {Data: []byte("SELECT 1;")},
		"001_b.up.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := Load(fsys); err == nil {
		t.Error("Load() should reject two files with the same version")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	tests := []struct {
		current int
		want    int
	}{
		{0, 3},
		{1, 2},
		{3, 0},
		{7, 0},
	}
	for _, tt := range tests {
		if got := Pending(all, tt.current); len(got) != tt.want {
			t.Errorf("Pending(current=%d) = %d migrations, want %d", tt.current, len(got), tt.want)
		}
	}
}
