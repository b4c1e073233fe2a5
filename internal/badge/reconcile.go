package badge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-literacy/internal/progress"
)

// Reconcile awards every currently eligible badge the user does not hold yet
// and returns only the newly inserted ones. Running it again with unchanged
// stats writes nothing. A concurrent caller racing on the same badge is
// absorbed by Store.Award.
func Reconcile(ctx context.Context, store Store, userID string, stats progress.Stats) ([]Badge, error) {
	held, err := store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	have := make(map[string]bool, len(held))
	for _, b := range held {
		have[b.Name] = true
	}

	var awarded []Badge
	now := time.Now()
	for _, def := range Eligible(stats) {
		if have[def.Name] {
			continue
		}
		b := Badge{
			UserID:      userID,
			Name:        def.Name,
			Icon:        def.Icon,
			Description: def.Description,
			EarnedAt:    now,
		}
		inserted, err := store.Award(ctx, b)
		if err != nil {
			return awarded, fmt.Errorf("award %q: %w", def.Name, err)
		}
		if !inserted {
			slog.Debug("badge already awarded", "user_id", userID, "badge", def.Name)
			continue
		}
		slog.Info("badge awarded", "user_id", userID, "badge", def.Name)
		awarded = append(awarded, b)
	}
	return awarded, nil
}
