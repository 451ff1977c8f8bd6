package repository

import (
	"context"

	"frankiemoji/backend/internal/models"
)

// InsertWaitlistEntry returns models.ErrDuplicate when the email is already on
// the list.
func (r *Repository) InsertWaitlistEntry(ctx context.Context, entry models.WaitlistEntry) (models.WaitlistEntry, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO notify_waitlist (email, tag, user_agent, referer)
VALUES ($1, $2, $3, $4)
RETURNING id::text, email, tag, user_agent, referer, created_at;`,
		entry.Email, entry.Tag, entry.UserAgent, entry.Referer)
	var out models.WaitlistEntry
	err := row.Scan(&out.ID, &out.Email, &out.Tag, &out.UserAgent, &out.Referer, &out.CreatedAt)
	if err != nil {
		return models.WaitlistEntry{}, mapErr(err)
	}
	return out, nil
}
