// Command seed-orders loads order documents from gzipped JSON Lines files
// into the orders table. Each line is stored verbatim as the document body,
// keyed by its "id" field.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/baazardost/billing/internal/storage/postgres"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", "data", "directory containing *.jsonl.gz order dumps")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *dataDir, *databaseURL); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database URL is required: pass --database-url or set DATABASE_URL")
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files found in %q", dataDir)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewOrderRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, file := range files {
		g.Go(func() error {
			n, err := seedFile(ctx, repo, file)
			if err != nil {
				return errors.Wrapf(err, "seed %s", file)
			}
			slog.Info("seeded file", "file", filepath.Base(file), "orders", n)
			return nil
		})
	}
	return g.Wait()
}

func seedFile(ctx context.Context, repo *postgres.OrderRepository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	var count int
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		id, err := extractID(line)
		if err != nil {
			return count, errors.Wrapf(err, "line %d", count+1)
		}

		doc := make([]byte, len(line))
		copy(doc, line)
		if err := repo.UpsertDoc(ctx, id, doc); err != nil {
			return count, errors.Wrapf(err, "upsert %s", id)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, errors.Wrap(err, "scan")
	}
	return count, nil
}

// extractID pulls the top-level "id" field out of an order document without
// decoding the rest of it.
func extractID(doc []byte) (string, error) {
	var id string
	d := jx.DecodeBytes(doc)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "id" {
			v, err := d.Str()
			if err != nil {
				return err
			}
			id = v
			return nil
		}
		return d.Skip()
	}); err != nil {
		return "", errors.Wrap(err, "decode")
	}
	if id == "" {
		return "", fmt.Errorf("document has no id")
	}
	return id, nil
}
