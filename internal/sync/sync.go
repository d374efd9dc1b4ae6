// Package sync imports vocabulary files into shared decks, either one file
// at a time or by reconciling every registered source.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/gitsource"
	"github.com/conorfennell/vocabdeck/internal/knol"
	"github.com/conorfennell/vocabdeck/internal/parser"
)

// Store is what importing needs from persistence. Lookups return nil, nil
// when the record does not exist.
type Store interface {
	FindDeckByName(ctx context.Context, kind domain.DeckKind, owner, name string) (*domain.Deck, error)
	CreateDeck(ctx context.Context, d *domain.Deck) error
	FindItemByHash(ctx context.Context, deckID, hash string) (*domain.VocabItem, error)
	InsertItem(ctx context.Context, item *domain.VocabItem) error

	InsertSource(ctx context.Context, path, sourceType, deckName string) (int64, error)
	FindSourceByPath(ctx context.Context, path string) (*domain.Source, error)
	GetAllSources(ctx context.Context) ([]domain.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error
}

// ErrSourceExists is returned when a path is registered twice.
var ErrSourceExists = errors.New("sync: source already registered")

// Report counts what an import did.
type Report struct {
	Files      int
	Imported   int
	Duplicates int
	Skipped    int // malformed rows
}

func (r *Report) add(o Report) {
	r.Files += o.Files
	r.Imported += o.Imported
	r.Duplicates += o.Duplicates
	r.Skipped += o.Skipped
}

// ImportFile parses one vocabulary file into the shared deck named deckName,
// creating the deck if needed. Words already in the deck are left alone.
func ImportFile(ctx context.Context, store Store, path, deckName string) (Report, error) {
	res, err := parser.ParseFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	deck, err := sharedDeck(ctx, store, deckName)
	if err != nil {
		return Report{}, err
	}
	return importParsed(ctx, store, deck, path, res)
}

// Import adds items to the shared deck named deckName.
func Import(ctx context.Context, store Store, deckName string, items []domain.VocabItem) (Report, error) {
	deck, err := sharedDeck(ctx, store, deckName)
	if err != nil {
		return Report{}, err
	}
	return importItems(ctx, store, deck, items)
}

func importFile(ctx context.Context, store Store, deck *domain.Deck, path string) (Report, error) {
	res, err := parser.ParseFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return importParsed(ctx, store, deck, path, res)
}

func importParsed(ctx context.Context, store Store, deck *domain.Deck, path string, res parser.Result) (Report, error) {
	for _, skipped := range res.Skipped {
		slog.Warn("Skipping malformed row", "file", path, "line", skipped.Line, "reason", skipped.Reason)
	}

	report, err := importItems(ctx, store, deck, res.Items)
	if err != nil {
		return Report{}, fmt.Errorf("failed to import %s: %w", path, err)
	}
	report.Files = 1
	report.Skipped = len(res.Skipped)

	slog.Info("File imported",
		"file", path,
		"deck", deck.Name,
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
	)
	return report, nil
}

func importItems(ctx context.Context, store Store, deck *domain.Deck, items []domain.VocabItem) (Report, error) {
	var report Report
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		item.DeckID = deck.ID
		item.Hash = knol.Hash(item)
		if seen[item.Hash] {
			report.Duplicates++
			continue
		}
		seen[item.Hash] = true

		existing, err := store.FindItemByHash(ctx, deck.ID, item.Hash)
		if err != nil {
			return Report{}, fmt.Errorf("db check for %s: %w", item.Word, err)
		}
		if existing != nil {
			report.Duplicates++
			continue
		}

		item.ID = uuid.NewString()
		if err := store.InsertItem(ctx, &item); err != nil {
			return Report{}, fmt.Errorf("db insert for %s: %w", item.Word, err)
		}
		report.Imported++
	}
	return report, nil
}

func sharedDeck(ctx context.Context, store Store, name string) (*domain.Deck, error) {
	deck, err := store.FindDeckByName(ctx, domain.SharedDeck, "", name)
	if err != nil {
		return nil, fmt.Errorf("failed to find deck %s: %w", name, err)
	}
	if deck != nil {
		return deck, nil
	}

	deck = &domain.Deck{ID: uuid.NewString(), Name: name, Kind: domain.SharedDeck}
	if err := store.CreateDeck(ctx, deck); err != nil {
		return nil, err
	}
	slog.Info("Created shared deck", "deck", name, "id", deck.ID)
	return deck, nil
}

// AddSource registers a local directory or git URL as the source of a
// shared deck.
func AddSource(ctx context.Context, store Store, path, deckName string) (domain.Source, error) {
	sourceType := domain.GitSource
	if !gitsource.IsRemote(path) {
		sourceType = domain.LocalSource
		abs, err := filepath.Abs(path)
		if err != nil {
			return domain.Source{}, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return domain.Source{}, fmt.Errorf("failed to read source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return domain.Source{}, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := store.FindSourceByPath(ctx, path)
	if err != nil {
		return domain.Source{}, err
	}
	if existing != nil {
		return domain.Source{}, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}

	id, err := store.InsertSource(ctx, path, sourceType, deckName)
	if err != nil {
		return domain.Source{}, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path, "deck", deckName)
	return domain.Source{ID: id, Path: path, Type: sourceType, DeckName: deckName}, nil
}

// Syncer reconciles registered sources into their decks.
type Syncer struct {
	store    Store
	reposDir string
	now      func() time.Time
}

// NewSyncer returns a Syncer that keeps git clones under reposDir.
func NewSyncer(store Store, reposDir string) *Syncer {
	return &Syncer{store: store, reposDir: reposDir, now: time.Now}
}

// RunSync iterates over all sources and reconciles them. A failing source
// is logged and does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) (Report, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with 'vocabdeck source add <path/or/url.git> --deck <name>'")
		return Report{}, nil
	}

	var total Report
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, err := s.SyncSource(ctx, source)
		if err != nil {
			slog.Error("Error syncing source", "id", source.ID, "path", source.Path, "error", err)
			continue
		}
		total.add(report)
	}
	slog.Info("Sync process complete.", "files", total.Files, "imported", total.Imported)
	return total, nil
}

// SyncSource reconciles a single source, pulling it first when it is a git
// repository.
func (s *Syncer) SyncSource(ctx context.Context, source domain.Source) (Report, error) {
	slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.GitSource {
		if err := os.MkdirAll(s.reposDir, 0o750); err != nil {
			return Report{}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return Report{}, err
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath); err != nil {
			return Report{}, err
		}
		dir = localRepoPath
	}

	deck, err := sharedDeck(ctx, s.store, source.DeckName)
	if err != nil {
		return Report{}, err
	}
	report, err := s.reconcileDir(ctx, deck, dir)
	if err != nil {
		return Report{}, err
	}

	if err := s.store.UpdateSourceLastScanned(ctx, source.ID, s.now()); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}
	return report, nil
}

func (s *Syncer) reconcileDir(ctx context.Context, deck *domain.Deck, dir string) (Report, error) {
	var report Report
	var parseErrors []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) {
			return nil
		}
		fileReport, importErr := importFile(ctx, s.store, deck, path)
		if importErr != nil {
			parseErrors = append(parseErrors, importErr)
			return nil
		}
		report.add(fileReport)
		return nil
	})
	if walkErr != nil {
		return Report{}, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}

	for _, err := range parseErrors {
		slog.Warn("File not imported", "error", err)
	}
	slog.Info("reconciliation complete",
		"path", dir,
		"deck", deck.Name,
		"files", report.Files,
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"errors", len(parseErrors),
	)
	return report, nil
}
