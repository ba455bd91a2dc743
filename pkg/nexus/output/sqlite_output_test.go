package output

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.db")
	out := NewSQLiteOutput(path)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- out.Start(ctx)
	}()

	first := testFrame(6, 3)
	second := testFrame(4, 3)
	second.Number = 8
	out.Receive() <- first
	out.Receive() <- second

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	count := 0
	deadline := time.Now().Add(5 * time.Second)
	for count < 2 && time.Now().Before(deadline) {
		if err := db.QueryRow(`SELECT COUNT(*) FROM frames`).Scan(&count); err != nil {
			count = 0
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-errChan; err != context.Canceled {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
	if count != 2 {
		t.Fatalf("stored %d frames, want 2", count)
	}

	var columns, units, mode string
	var rate int
	if err := db.QueryRow(`SELECT columns, units, search_mode, rate FROM sessions`).Scan(&columns, &units, &mode, &rate); err != nil {
		t.Fatal(err)
	}
	if columns != "A,B,C" || units != "uV,uV,uV" || mode != "bluetooth" || rate != 512 {
		t.Errorf("session = %s %s %s %d", columns, units, mode, rate)
	}

	var rows, channels int
	var blob []byte
	if err := db.QueryRow(`SELECT rows, channels, data FROM frames WHERE number = 7`).Scan(&rows, &channels, &blob); err != nil {
		t.Fatal(err)
	}
	if rows != 6 || channels != 3 || len(blob) != 6*3*4 {
		t.Fatalf("frame rows=%d channels=%d blob=%d", rows, channels, len(blob))
	}
	for i := 0; i < rows*channels; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
		if float64(got) != first.Data.At(i/channels, i%channels) {
			t.Errorf("sample %d = %f", i, got)
		}
	}
}
