// Command seed-db loads the initial catalog, customers, and optionally an
// API key into the database. Seeding is idempotent: books and customers are
// only inserted into empty tables, and the API key is upserted by hash.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/bookstore-api/internal/domain/auth"
	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/domain/customer"
	"github.com/xenking/bookstore-api/internal/repository"
)

type bookJSON struct {
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stockQuantity"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Publisher       string          `json:"publisher"`
	PublicationYear int             `json:"publicationYear"`
}

type customerJSON struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

func main() {
	var (
		databaseURL   string
		booksFile     string
		customersFile string
		apiKey        string
		apiKeyPepper  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&booksFile, "books-file", "db/seed/books.json", "path to books JSON file")
	flag.StringVar(&customersFile, "customers-file", "db/seed/customers.json", "path to customers JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or BOOKSTORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BOOKSTORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BOOKSTORE_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BOOKSTORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, booksFile, customersFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, booksFile, customersFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedBooks(ctx, repository.NewBookRepository(pool), booksFile); err != nil {
		return errors.Wrap(err, "seed books")
	}
	if err := seedCustomers(ctx, repository.NewCustomerRepository(pool), customersFile); err != nil {
		return errors.Wrap(err, "seed customers")
	}
	if apiKey != "" {
		if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}

	return nil
}

func seedBooks(ctx context.Context, repo *repository.BookRepository, path string) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count books")
	}
	if count > 0 {
		slog.Info("books table already populated, skipping", slog.Int64("count", count))
		return nil
	}

	slog.Info("reading books file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read books file")
	}

	var books []bookJSON
	if err := json.Unmarshal(data, &books); err != nil {
		return errors.Wrap(err, "parse books JSON")
	}

	for _, b := range books {
		err := repo.Create(ctx, &book.Book{
			ID:              uuid.New().String(),
			Title:           b.Title,
			Author:          b.Author,
			ISBN:            b.ISBN,
			Price:           b.Price,
			StockQuantity:   b.StockQuantity,
			Description:     b.Description,
			Category:        b.Category,
			Publisher:       b.Publisher,
			PublicationYear: b.PublicationYear,
		})
		if err != nil {
			return errors.Wrapf(err, "insert book %q", b.Title)
		}
	}

	slog.Info("books seeded", slog.Int("count", len(books)))
	return nil
}

func seedCustomers(ctx context.Context, repo *repository.CustomerRepository, path string) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count customers")
	}
	if count > 0 {
		slog.Info("customers table already populated, skipping", slog.Int64("count", count))
		return nil
	}

	slog.Info("reading customers file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read customers file")
	}

	var customers []customerJSON
	if err := json.Unmarshal(data, &customers); err != nil {
		return errors.Wrap(err, "parse customers JSON")
	}

	for _, c := range customers {
		err := repo.Create(ctx, &customer.Customer{
			ID:         uuid.New().String(),
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Email:      c.Email,
			Phone:      c.Phone,
			Address:    c.Address,
			City:       c.City,
			Country:    c.Country,
			PostalCode: c.PostalCode,
		})
		if err != nil {
			return errors.Wrapf(err, "insert customer %q", c.Email)
		}
	}

	slog.Info("customers seeded", slog.Int("count", len(customers)))
	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	err := repo.Upsert(ctx, &auth.APIKey{
		ID:      uuid.New().String(),
		KeyHash: hash,
		Name:    "seed",
	})
	if err != nil {
		return errors.Wrap(err, "upsert api key")
	}

	slog.Info("api key seeded")
	return nil
}
