package store

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

func TestBuildInsert(t *testing.T) {
	batch := []dataset.Listing{
		{City: "SP", Area: 70, Rooms: 2, Animal: "Sim", Rent: 3300, Total: 5618},
		{City: "RJ", Area: 50, Rooms: 1, Animal: "Não", Rent: 1800, Total: 2100},
	}
	q, args := buildInsert(batch)
	if !strings.HasPrefix(q, "INSERT INTO rental_listings (city, area, rooms, animal, rent, total) VALUES ") {
		t.Fatalf("unexpected query prefix: %s", q)
	}
	if !strings.HasSuffix(q, "($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)") {
		t.Fatalf("unexpected placeholders: %s", q)
	}
	if len(args) != 12 || args[0] != "SP" || args[6] != "RJ" || args[8] != 1 || args[11] != 2100.0 {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildInsert_BatchFitsParameterLimit(t *testing.T) {
	if batchSize*columnsPerRow > 65535 {
		t.Fatalf("batch of %d rows exceeds the postgres bind parameter limit", batchSize)
	}
	batch := make([]dataset.Listing, batchSize)
	q, args := buildInsert(batch)
	if len(args) != batchSize*columnsPerRow {
		t.Fatalf("args = %d", len(args))
	}
	if !strings.HasSuffix(q, "$2995,$2996,$2997,$2998,$2999,$3000)") {
		t.Fatalf("last placeholder group wrong: ...%s", q[len(q)-40:])
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

// TestRoundTrip runs against a live database when RENTDASH_TEST_PG_DSN is set.
func TestRoundTrip(t *testing.T) {
	dsn := os.Getenv("RENTDASH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RENTDASH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ds := &dataset.Dataset{Source: "test.csv", Read: 3, Dropped: 1, Listings: []dataset.Listing{
		{City: "SP", Area: 70, Rooms: 2, Animal: "Sim", Rent: 3300, Total: 5618},
		{City: "RJ", Area: 50, Rooms: 1, Animal: "Não", Rent: 1800, Total: 2100},
	}}
	if err := s.ReplaceAll(ctx, ds); err != nil {
		t.Fatalf("replace: %v", err)
	}
	l := Loader{Store: s}
	fp1, err := l.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	got, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 2 || got.Listings[1] != ds.Listings[1] || got.Dropped != 1 {
		t.Fatalf("unexpected dataset: %+v", got)
	}
	if err := s.ReplaceAll(ctx, ds); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	if fp2, _ := l.Fingerprint(ctx); fp2 == fp1 {
		t.Fatalf("fingerprint should change after a new import")
	}
}
