// Command catalog-ingest bulk-imports gzip-compressed NDJSON book dumps into
// the catalog. Files are streamed and decoded concurrently, deduplicated by
// ISBN with a bloom filter (first occurrence wins), and upserted by ISBN so
// re-running an ingest refreshes prices and stock instead of failing.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	recordBuffer  = 1024
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.ndjson.gz book dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.ndjson.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.ndjson.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return ingest(ctx, files, repository.NewBookRepository(pool))
}

// bookWriter is the slice of the catalog repository the ingest writes through.
type bookWriter interface {
	UpsertByISBN(ctx context.Context, b *book.Book) error
}

// ingest streams and decodes each dump concurrently; a single consumer owns
// the bloom filter and the database writes. Producers and the consumer share
// one errgroup context, so a failure on either side cancels the other instead
// of leaving it blocked on the records channel.
func ingest(ctx context.Context, files []string, repo bookWriter) error {
	records := make(chan *book.Book, recordBuffer)

	g, ctx := errgroup.WithContext(ctx)

	producers, prodCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		producers.Go(streamFile(prodCtx, f, records))
	}

	g.Go(func() error {
		defer close(records)
		return producers.Wait()
	})
	g.Go(func() error {
		return writeBooks(ctx, repo, records)
	})

	return g.Wait()
}

// streamFile reads one gzip NDJSON dump and sends decoded records downstream.
func streamFile(ctx context.Context, path string, records chan<- *book.Book) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var line uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				return err
			}

			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}

			b, err := decodeBook(raw)
			if err != nil {
				slog.Warn("skipping malformed record",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("line", line),
					slog.String("error", err.Error()),
				)
				continue
			}
			if b.ISBN == "" || b.Title == "" {
				continue
			}

			select {
			case records <- b:
			case <-ctx.Done():
				return ctx.Err()
			}

			if line%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", line),
				)
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("lines", line),
		)
		return nil
	}
}

// decodeBook parses a single NDJSON record. Unknown keys are skipped so
// supplier dumps with extra metadata still import.
func decodeBook(raw []byte) (*book.Book, error) {
	b := &book.Book{}
	d := jx.DecodeBytes(raw)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "title":
			b.Title, err = d.Str()
		case "author":
			b.Author, err = d.Str()
		case "isbn":
			b.ISBN, err = d.Str()
		case "price":
			var f float64
			f, err = d.Float64()
			b.Price = decimal.NewFromFloat(f)
		case "stockQuantity":
			b.StockQuantity, err = d.Int()
		case "description":
			b.Description, err = d.Str()
		case "category":
			b.Category, err = d.Str()
		case "publisher":
			b.Publisher, err = d.Str()
		case "publicationYear":
			b.PublicationYear, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if b.Price.IsNegative() {
		return nil, errors.New("negative price")
	}
	if b.StockQuantity < 0 {
		return nil, errors.New("negative stock quantity")
	}
	return b, nil
}

// writeBooks drains the record channel, dropping ISBNs already seen in this
// run, and upserts the rest.
func writeBooks(ctx context.Context, repo bookWriter, records <-chan *book.Book) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var written uint64

	for b := range records {
		if seen.TestString(b.ISBN) {
			continue
		}
		seen.AddString(b.ISBN)

		b.ID = uuid.New().String()
		if err := repo.UpsertByISBN(ctx, b); err != nil {
			return errors.Wrapf(err, "upsert book %s", b.ISBN)
		}

		written++
		if written%10_000 == 0 {
			slog.Info("write progress", slog.Uint64("written", written))
		}
	}

	slog.Info("write complete", slog.Uint64("written", written))
	return nil
}
