package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Task    string `json:"task"`
	Elapsed int64  `json:"elapsed"`
}

// testStore creates a temporary JSON store for testing.
func testStore(t *testing.T) (*JSONStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s, path
}

// exercise runs the shared KV contract against any implementation.
func exercise(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	var got record
	if err := kv.Get(ctx, "missing", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	want := record{Task: "Study", Elapsed: 120000}
	if err := kv.Put(ctx, "timer_state", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Get(ctx, "timer_state", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	// overwrite
	want.Elapsed = 123000
	if err := kv.Put(ctx, "timer_state", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	kv.Get(ctx, "timer_state", &got)
	if got.Elapsed != 123000 {
		t.Errorf("Elapsed after overwrite = %d", got.Elapsed)
	}

	times := map[string]int64{"Study": 1, "Write": 2}
	if err := kv.Put(ctx, "task_times", times); err != nil {
		t.Fatalf("Put map: %v", err)
	}
	var gotTimes map[string]int64
	if err := kv.Get(ctx, "task_times", &gotTimes); err != nil {
		t.Fatalf("Get map: %v", err)
	}
	if len(gotTimes) != 2 || gotTimes["Write"] != 2 {
		t.Errorf("task_times = %v", gotTimes)
	}
}

func TestJSONStore_Contract(t *testing.T) {
	s, _ := testStore(t)
	exercise(t, s)
}

func TestMemory_Contract(t *testing.T) {
	exercise(t, NewMemory())
}

func TestJSONStore_Reopen(t *testing.T) {
	s, path := testStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, "task_times", map[string]int64{"Study": 5000}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var times map[string]int64
	if err := reopened.Get(ctx, "task_times", &times); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if times["Study"] != 5000 {
		t.Errorf("Study = %d, want 5000", times["Study"])
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(path, []byte("{broken"), 0644)

	if _, err := NewJSONStore(path); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestJSONStore_FailedWriteKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s.Put(ctx, "k", record{Task: "a"})

	// a directory where the temp file should go makes the write fail
	if err := os.Mkdir(path+".tmp", 0755); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "k", record{Task: "b"}); err == nil {
		t.Fatal("expected write failure")
	}

	var got record
	s.Get(ctx, "k", &got)
	if got.Task != "a" {
		t.Errorf("in-memory value = %q, want previous %q", got.Task, "a")
	}
}

func TestMemory_PutErr(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.SetPutErr(boom)
	if err := m.Put(context.Background(), "k", 1); !errors.Is(err, boom) {
		t.Errorf("Put = %v, want %v", err, boom)
	}
	if m.Puts() != 1 {
		t.Errorf("Puts = %d, want 1", m.Puts())
	}
}

func TestPostgres_Contract(t *testing.T) {
	dsn := os.Getenv("FOCUS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FOCUS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pg, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer pg.Close()

	pg.conn.Exec(ctx, `DELETE FROM focus_state WHERE key IN ('timer_state', 'task_times', 'missing')`)
	exercise(t, pg)
}
