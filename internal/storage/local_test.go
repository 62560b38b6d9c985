package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocal_PutWritesUnderKey(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)

	body := []byte(`{"id":"evt_1"}`)
	if err := l.Put(context.Background(), Key("stripe", "evt_1"), body); err != nil {
		t.Fatalf("put payload: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "stripe", "evt_1.json"))
	if err != nil {
		t.Fatalf("read archived payload: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("expected payload stored verbatim, got %s", got)
	}
}

func TestKey_SquashesSeparators(t *testing.T) {
	if got := Key("stripe", "../../etc/passwd"); got != "stripe/.._.._etc_passwd.json" {
		t.Fatalf("unexpected key %q", got)
	}
}
