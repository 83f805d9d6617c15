package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bookstore-api/internal/domain/book"
)

type stubWriter struct {
	mu       sync.Mutex
	books    []*book.Book
	failWith error
}

func (w *stubWriter) UpsertByISBN(_ context.Context, b *book.Book) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	w.books = append(w.books, b)
	return nil
}

func (w *stubWriter) isbns() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[string]bool, len(w.books))
	for _, b := range w.books {
		seen[b.ISBN] = true
	}
	return seen
}

func writeDump(t *testing.T, dir, name string, lines []string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func bookLine(isbn string) string {
	return fmt.Sprintf(`{"title":"Book %s","author":"Author","isbn":%q,"price":9.99,"stockQuantity":5}`, isbn, isbn)
}

func TestIngest_WritesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeDump(t, dir, "a.ndjson.gz", []string{
		bookLine("isbn-1"),
		bookLine("isbn-2"),
		bookLine("isbn-2"),
		`not json at all`,
		`{"title":"No ISBN","price":1.00}`,
	})
	b := writeDump(t, dir, "b.ndjson.gz", []string{
		bookLine("isbn-2"),
		bookLine("isbn-3"),
	})

	w := &stubWriter{}
	require.NoError(t, ingest(context.Background(), []string{a, b}, w))

	seen := w.isbns()
	assert.Len(t, seen, 3)
	for _, isbn := range []string{"isbn-1", "isbn-2", "isbn-3"} {
		assert.True(t, seen[isbn], "missing %s", isbn)
	}
	for _, got := range w.books {
		assert.NotEmpty(t, got.ID)
	}
}

func TestIngest_WriterFailureStopsProducers(t *testing.T) {
	// More records than the channel buffer holds, so producers must block on
	// send once the consumer stops draining.
	lines := make([]string, 0, recordBuffer*3)
	for i := 0; i < recordBuffer*3; i++ {
		lines = append(lines, bookLine(fmt.Sprintf("isbn-%d", i)))
	}
	dir := t.TempDir()
	dump := writeDump(t, dir, "a.ndjson.gz", lines)

	w := &stubWriter{failWith: errors.New("upsert failed")}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ingest(context.Background(), []string{dump}, w)
	}()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("ingest did not return after the writer failed")
	}
}

func TestDecodeBook(t *testing.T) {
	b, err := decodeBook([]byte(`{"title":"T","author":"A","isbn":"i-1","price":12.50,"stockQuantity":3,"category":"Fiction","extra":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "T", b.Title)
	assert.Equal(t, "i-1", b.ISBN)
	assert.Equal(t, 3, b.StockQuantity)
	assert.Equal(t, "Fiction", b.Category)
	assert.Equal(t, "12.5", b.Price.String())

	_, err = decodeBook([]byte(`{"price":-1.00}`))
	require.Error(t, err)

	_, err = decodeBook([]byte(`{"stockQuantity":-2}`))
	require.Error(t, err)
}
