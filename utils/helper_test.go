package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestChunkSlice(t *testing.T) {
	items := make([]int, 120)
	for i := range items {
		items[i] = i
	}
	chunks := ChunkSlice(items, 50)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 50 || len(chunks[1]) != 50 || len(chunks[2]) != 20 {
		t.Fatalf("unexpected chunk sizes %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[2][0] != 100 {
		t.Fatalf("expected last chunk to start at 100, got %d", chunks[2][0])
	}
	if got := ChunkSlice([]int{}, 50); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
}

func TestNormalizeLocation(t *testing.T) {
	if got := NormalizeLocation("  a-01-02 "); got != "A-01-02" {
		t.Fatalf("expected A-01-02, got %q", got)
	}
	if got := NormalizeLocation("depósito"); got != "DEPÓSITO" {
		t.Fatalf("expected DEPÓSITO, got %q", got)
	}
}

func TestGenerateUniqueFilename(t *testing.T) {
	a := GenerateUniqueFilename("dir/estoque.csv")
	b := GenerateUniqueFilename("dir/estoque.csv")
	if a == b {
		t.Fatalf("expected unique names, got %q twice", a)
	}
	if !strings.HasSuffix(a, "_dir_estoque.csv") {
		t.Fatalf("expected sanitized suffix, got %q", a)
	}
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	release, err := l.Obtain(ctx, "import:a.csv", time.Minute)
	if err != nil {
		t.Fatalf("first obtain: %v", err)
	}
	if _, err := l.Obtain(ctx, "import:a.csv", time.Minute); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained, got %v", err)
	}
	other, err := l.Obtain(ctx, "import:b.csv", time.Minute)
	if err != nil {
		t.Fatalf("independent key should lock: %v", err)
	}
	other()

	release()
	release()
	again, err := l.Obtain(ctx, "import:a.csv", time.Minute)
	if err != nil {
		t.Fatalf("obtain after release: %v", err)
	}
	again()
}
