package kos

import (
	"context"
	"errors"
	"log/slog"
)

// withNumber draws a document number and runs create with it, drawing a
// fresh one whenever the store reports the number as taken. The whole
// transaction inside create is retried, never a partial write.
func (s *service) withNumber(ctx context.Context, prefix, key string, create func(number string) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.NumberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx, prefix, s.now())
		if err != nil {
			return errors.Join(ErrNumberGeneration, err)
		}

		err = create(number)
		if !IsDuplicateKey(err, key) {
			return err
		}
		lastErr = err
		s.log.WarnContext(ctx, "document number already taken",
			slog.String("number", number),
			slog.Int("attempt", attempt),
		)
	}
	return errors.Join(ErrNumberGeneration, lastErr)
}
