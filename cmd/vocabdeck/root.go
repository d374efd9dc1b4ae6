package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/vocabdeck/internal/config"
	"github.com/conorfennell/vocabdeck/internal/logging"
	"github.com/conorfennell/vocabdeck/internal/queue"
	"github.com/conorfennell/vocabdeck/internal/srs"
	"github.com/conorfennell/vocabdeck/internal/storage"
	"github.com/conorfennell/vocabdeck/internal/study"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg *config.Config
	db  *storage.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "vocabdeck",
		Short:        "vocabdeck - spaced-repetition vocabulary trainer",
		Long:         "vocabdeck schedules vocabulary reviews with an SM-2 style engine and builds a bounded study queue for each day.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Log, cmd.ErrOrStderr()); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newImportCmd(a))
	root.AddCommand(newSourceCmd(a))
	root.AddCommand(newSyncCmd(a))
	root.AddCommand(newDecksCmd(a))
	root.AddCommand(newEnrollCmd(a))
	root.AddCommand(newDueCmd(a))
	root.AddCommand(newProgressCmd(a))
	root.AddCommand(newWordsCmd(a))
	root.AddCommand(newReviewCmd(a))
	root.AddCommand(newStatsCmd(a))
	return root
}

// open connects to the configured database. Callers defer close.
func (a *app) open() (*storage.DB, error) {
	db, err := storage.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", a.cfg.Database.Path, err)
	}
	a.db = db
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// service opens the database and wires the study service from config.
func (a *app) service() (*study.Service, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := a.open()
	if err != nil {
		return nil, err
	}

	engine := srs.NewEngine(srs.WithLearningSteps(a.cfg.Study.LearningSteps))
	builder := queue.NewBuilder(db,
		queue.WithQuota(queue.Quota{MaxNew: a.cfg.Study.MaxNew, MaxReview: a.cfg.Study.MaxReview}),
		queue.WithSelfHealWindow(a.cfg.Study.SelfHealWindow),
	)
	return study.NewService(db, engine, builder, study.WithLocation(loc)), nil
}
