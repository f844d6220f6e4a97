package inbox

import (
	"context"

	"github.com/md-rashed-zaman/slotbook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record returns false when eventID was already seen.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err, "") {
		return false, nil
	}
	return false, err
}
