package orders

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"frankiemoji/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

const defaultWaitlistTag = "splash"

type WaitlistRequest struct {
	Email     string `json:"email" validate:"required,email,max=320"`
	Tag       string `json:"tag" validate:"max=64"`
	UserAgent string `json:"userAgent" validate:"max=512"`
	Referer   string `json:"referer" validate:"max=2048"`
}

// Waitlist records interest from visitors before the studio opens.
type Waitlist struct {
	store    WaitlistStore
	mailer   Mailer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewWaitlist builds a waitlist. With a nil mailer no confirmation is sent.
func NewWaitlist(store WaitlistStore, mailer Mailer, logger *slog.Logger) *Waitlist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waitlist{store: store, mailer: mailer, validate: newValidator(), logger: logger}
}

// Join stores the signup. A repeated email is reported with created=false and
// is not mailed again.
func (w *Waitlist) Join(ctx context.Context, req WaitlistRequest) (entry models.WaitlistEntry, created bool, err error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Tag = strings.TrimSpace(req.Tag)
	if req.Tag == "" {
		req.Tag = defaultWaitlistTag
	}
	if err := w.validate.Struct(req); err != nil {
		return models.WaitlistEntry{}, false, validationError(err)
	}

	entry, err = w.store.InsertWaitlistEntry(ctx, models.WaitlistEntry{
		Email:     req.Email,
		Tag:       req.Tag,
		UserAgent: req.UserAgent,
		Referer:   req.Referer,
	})
	if errors.Is(err, models.ErrDuplicate) {
		w.logger.Info("waitlist", "status", "duplicate", "tag", req.Tag)
		return models.WaitlistEntry{Email: req.Email, Tag: req.Tag}, false, nil
	}
	if err != nil {
		return models.WaitlistEntry{}, false, upstream("insert waitlist entry", err)
	}

	if w.mailer != nil {
		msg := EmailMessage{
			To:      entry.Email,
			Subject: "You're on the Frankiemoji list",
			Text: "Thanks for joining the Frankiemoji preview list!\n\n" +
				"You'll be one of the first to know when the studio opens.\n\n– Frankiemoji Studios",
		}
		if err := w.mailer.SendEmail(ctx, msg); err != nil {
			w.logger.Warn("waitlist", "status", "email_failed", "entry_id", entry.ID, "error", err)
		}
	}
	return entry, true, nil
}
