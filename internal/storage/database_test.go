package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

var testNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedDeck(t *testing.T, db *DB) (domain.Deck, domain.VocabItem) {
	t.Helper()
	ctx := context.Background()
	deck := domain.Deck{ID: "deck-1", Name: "TOEIC", Kind: domain.SharedDeck, Tags: []string{"exam"}}
	if err := db.CreateDeck(ctx, &deck); err != nil {
		t.Fatalf("CreateDeck() returned an unexpected error: %v", err)
	}
	item := domain.VocabItem{ID: "item-1", DeckID: deck.ID, Word: "contract", Meaning: "hợp đồng", Hash: "h1"}
	if err := db.InsertItem(ctx, &item); err != nil {
		t.Fatalf("InsertItem() returned an unexpected error: %v", err)
	}
	return deck, item
}

func TestOpenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vocab.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() returned an unexpected error: %v", err)
	}

	// Migrations are already applied the second time round.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() returned an unexpected error: %v", err)
	}
	_ = db.Close()
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(%q) returned an unexpected error: %v", MemoryPath, err)
	}
	defer db.Close()

	if _, err := db.ListDecks(context.Background(), "u1"); err != nil {
		t.Errorf("ListDecks() returned an unexpected error: %v", err)
	}
}

func TestDecksAndItems(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	deck, item := seedDeck(t, db)

	found, err := db.FindDeckByName(ctx, domain.SharedDeck, "", "TOEIC")
	if err != nil || found == nil || found.ID != deck.ID {
		t.Fatalf("FindDeckByName() = %v, %v, want deck %s", found, err, deck.ID)
	}
	if len(found.Tags) != 1 || found.Tags[0] != "exam" {
		t.Errorf("Expected tags [exam], but got %v", found.Tags)
	}

	missing, err := db.FindDeck(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for a missing deck, but got %v, %v", missing, err)
	}

	dup := domain.VocabItem{ID: "item-2", DeckID: deck.ID, Word: "Contract", Hash: item.Hash}
	if err := db.InsertItem(ctx, &dup); err == nil {
		t.Error("Expected a duplicate hash in the same deck to be rejected")
	}

	byHash, err := db.FindItemByHash(ctx, deck.ID, "h1")
	if err != nil || byHash == nil || byHash.Meaning != "hợp đồng" {
		t.Errorf("FindItemByHash() = %v, %v", byHash, err)
	}

	items, err := db.GetItems(ctx, []string{"item-1", "ghost"})
	if err != nil || len(items) != 1 {
		t.Errorf("GetItems() = %v, %v, want one item", items, err)
	}

	n, err := db.CountItems(ctx, "")
	if err != nil || n != 1 {
		t.Errorf("CountItems(\"\") = %d, %v, want 1", n, err)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	deck, item := seedDeck(t, db)

	p := domain.Progress{ID: "p-1", UserID: "u1", DeckID: deck.ID, ItemID: item.ID, Schedule: srs.NewSchedule(testNow)}
	n, err := db.InsertProgress(ctx, []domain.Progress{p, {ID: "p-dup", UserID: "u1", DeckID: deck.ID, ItemID: item.ID, Schedule: srs.NewSchedule(testNow)}})
	if err != nil {
		t.Fatalf("InsertProgress() returned an unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected the second record for the same item to be skipped, but inserted %d", n)
	}

	engine := srs.NewEngine()
	for _, g := range []srs.Grade{srs.Good, srs.Good} {
		next, err := engine.ApplyGrade(p.Schedule, g, testNow)
		if err != nil {
			t.Fatalf("ApplyGrade() returned an unexpected error: %v", err)
		}
		p.Schedule = next
		if err := db.SaveProgress(ctx, &p); err != nil {
			t.Fatalf("SaveProgress() returned an unexpected error: %v", err)
		}
	}

	got, err := db.FindProgress(ctx, "u1", "p-1")
	if err != nil || got == nil {
		t.Fatalf("FindProgress() = %v, %v", got, err)
	}
	if got.Schedule.State != srs.Review || got.Schedule.Step != nil {
		t.Errorf("Expected review with no step, but got %s", got.Schedule.State)
	}
	if !got.Schedule.Due.Equal(p.Schedule.Due) {
		t.Errorf("Expected due %v, but got %v", p.Schedule.Due, got.Schedule.Due)
	}
	if len(got.Schedule.History) != 2 || got.Schedule.History[1].Grade != srs.Good {
		t.Errorf("Expected two history records, but got %+v", got.Schedule.History)
	}

	other, err := db.FindProgress(ctx, "someone-else", "p-1")
	if err != nil || other != nil {
		t.Errorf("Expected another learner not to see the record, but got %v, %v", other, err)
	}

	list, err := db.ListProgress(ctx, "u1", deck.ID)
	if err != nil || len(list) != 1 || len(list[0].Schedule.History) != 2 {
		t.Errorf("ListProgress() = %+v, %v", list, err)
	}

	ghost := domain.Progress{ID: "ghost", UserID: "u1", Schedule: srs.NewSchedule(testNow)}
	if err := db.SaveProgress(ctx, &ghost); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, but got %v", err)
	}
}

func TestQueueUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	q, err := db.FindQueue(ctx, "u1", "d1", "2024-03-10")
	if err != nil || q != nil {
		t.Fatalf("Expected nil, nil before creation, but got %v, %v", q, err)
	}

	created := domain.DailyQueue{UserID: "u1", DeckID: "d1", Day: "2024-03-10", CreatedAt: testNow}
	if err := db.SaveQueue(ctx, &created); err != nil {
		t.Fatalf("SaveQueue() returned an unexpected error: %v", err)
	}

	updated := created
	updated.CardIDs = []string{"a", "b"}
	updated.CreatedAt = testNow.Add(time.Hour)
	if err := db.SaveQueue(ctx, &updated); err != nil {
		t.Fatalf("SaveQueue() returned an unexpected error: %v", err)
	}

	q, err = db.FindQueue(ctx, "u1", "d1", "2024-03-10")
	if err != nil || q == nil {
		t.Fatalf("FindQueue() = %v, %v", q, err)
	}
	if len(q.CardIDs) != 2 || q.CardIDs[1] != "b" {
		t.Errorf("Expected [a b], but got %v", q.CardIDs)
	}
	if !q.CreatedAt.Equal(testNow) {
		t.Errorf("Expected creation time to be kept at %v, but got %v", testNow, q.CreatedAt)
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.InsertSource(ctx, "/tmp/words", "local", "TOEIC")
	if err != nil {
		t.Fatalf("InsertSource() returned an unexpected error: %v", err)
	}
	if err := db.UpdateSourceLastScanned(ctx, id, testNow); err != nil {
		t.Fatalf("UpdateSourceLastScanned() returned an unexpected error: %v", err)
	}

	src, err := db.FindSourceByPath(ctx, "/tmp/words")
	if err != nil || src == nil || src.DeckName != "TOEIC" || !src.LastScanned.Equal(testNow) {
		t.Errorf("FindSourceByPath() = %+v, %v", src, err)
	}

	if err := db.DeleteSource(ctx, id); err != nil {
		t.Fatalf("DeleteSource() returned an unexpected error: %v", err)
	}
	all, err := db.GetAllSources(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("Expected no sources after delete, but got %v, %v", all, err)
	}
}
