package diaglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpen_WritesDebugRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cleanup.log")
	sink, err := Open(Options{Path: path, MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sink.Logger.Debug("duplicates removed", "nid", 7, "morph", "taberu")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "level=DEBUG") || !strings.Contains(s, "morph=taberu") {
		t.Errorf("log content = %q", s)
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	sink, err := Open(Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sink.Logger.Debug("dropped")
	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNew_Writer(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf, nil)
	sink.Logger.Debug("flagged", "count", 2)
	if !strings.Contains(buf.String(), "count=2") {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestSink_Writer(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf, nil)
	if _, err := sink.Writer().Write([]byte("recalc output\n")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "recalc output\n" {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestOpen_RotatesAndKeepsBackups(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink, err := Open(Options{Path: filepath.Join(dir, "cleanup.log"), MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	line := append(bytes.Repeat([]byte("x"), 64*1024-1), '\n')
	for range 56 {
		if _, err := sink.Writer().Write(line); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Old backups are pruned in the background.
	var files []string
	deadline := time.Now().Add(2 * time.Second)
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read dir: %v", err)
		}
		files = files[:0]
		for _, e := range entries {
			files = append(files, e.Name())
		}
		if len(files) <= 3 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(files) < 2 || len(files) > 3 {
		t.Errorf("log dir holds %v, want the active file plus 1-2 backups", files)
	}
}
