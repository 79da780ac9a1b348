// internal/app/reconcile/migrate.go
// Package reconcile repairs membership data that drifted across system
// generations: email-keyed legacy records are folded into stable-id
// memberships, and rooms that lost every owner get one restored.
package reconcile

import (
	"context"

	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultBatchRecords is how many legacy records one batch migrates. Each
// record costs two logical writes (a membership upsert plus a legacy delete),
// so a batch stays within a 400-write group.
const DefaultBatchRecords = 200

// Migrator folds legacy email-keyed membership records into stable-id
// memberships. The job walks the legacy records in _id order and commits
// batch by batch, so an interrupted run resumes where it stopped: migrated
// records are already deleted and the next run starts from the survivors.
type Migrator struct {
	members *membershipstore.Store
	log     *zap.Logger

	// BatchRecords overrides the per-batch record count when positive.
	BatchRecords int
}

// NewMigrator creates a Migrator over the membership store.
func NewMigrator(members *membershipstore.Store, logger *zap.Logger) *Migrator {
	return &Migrator{members: members, log: logger}
}

// Run migrates every legacy record for email onto the stable subject.
// Returns the number of records migrated. Partial progress survives an
// error: batches already committed stay committed.
//
// Run is idempotent. Re-running after a crash, or concurrently from two
// sessions of the same user, merge-upserts the same target rows.
func (m *Migrator) Run(ctx context.Context, subject, email string) (int, error) {
	batch := m.BatchRecords
	if batch <= 0 {
		batch = DefaultBatchRecords
	}

	migrated := 0
	cursor := primitive.NilObjectID
	for {
		recs, err := m.members.LegacyPage(ctx, email, cursor, batch)
		if err != nil {
			return migrated, err
		}
		if len(recs) == 0 {
			break
		}

		if err := m.members.MigrateBatch(ctx, subject, email, recs); err != nil {
			return migrated, err
		}
		migrated += len(recs)
		cursor = recs[len(recs)-1].ID

		m.log.Info("migrated legacy membership batch",
			zap.String("subject", subject),
			zap.Int("batch", len(recs)),
			zap.Int("total", migrated))

		if len(recs) < batch {
			break
		}
	}
	return migrated, nil
}
