package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "memberhub/contexts/billing-core/membership-service/application"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	"memberhub/contexts/billing-core/membership-service/ports"
)

const (
	eventTypeMembershipExpiring = "membership.expiring"
	eventTypeMembershipExpired  = "membership.expired"
)

// ExpiryNotifier publishes advance warnings at 30 and 7 days before a
// membership ends, plus a final notice the day after it ended. Each run
// covers a one-day window so a run per day emits each notice exactly once.
type ExpiryNotifier struct {
	Memberships ports.MembershipRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (n ExpiryNotifier) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(n.Logger)
	now := time.Now().UTC()
	if n.Clock != nil {
		now = n.Clock.Now().UTC()
	}
	today := now.Truncate(24 * time.Hour)

	windows := []struct {
		eventType string
		daysOut   int
	}{
		{eventTypeMembershipExpiring, 30},
		{eventTypeMembershipExpiring, 7},
		{eventTypeMembershipExpired, -1},
	}

	notified := 0
	for _, window := range windows {
		from := today.AddDate(0, 0, window.daysOut)
		to := from.AddDate(0, 0, 1)
		items, err := n.Memberships.ListExpiringBetween(ctx, from, to)
		if err != nil {
			logger.Error("membership expiry scan failed",
				"event", "membership_expiry_scan_failed",
				"module", "billing-core/membership-service",
				"layer", "worker",
				"days_out", window.daysOut,
				"error", err.Error(),
			)
			return err
		}
		for _, membership := range items {
			if err := n.publish(ctx, window.eventType, membership, window.daysOut, now); err != nil {
				return err
			}
			notified++
		}
	}

	if notified > 0 {
		logger.Info("membership expiry notices published",
			"event", "membership_expiry_notified",
			"module", "billing-core/membership-service",
			"layer", "worker",
			"notice_count", notified,
		)
	}
	return nil
}

func (n ExpiryNotifier) publish(
	ctx context.Context,
	eventType string,
	membership entities.Membership,
	daysOut int,
	now time.Time,
) error {
	eventID, err := n.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"membership_id": membership.MembershipID,
		"user_id":       membership.UserID,
		"type_name":     membership.TypeName,
		"end_date":      membership.EndDate,
		"days_out":      daysOut,
	})
	if err != nil {
		return err
	}
	return n.Publisher.Publish(ctx, eventType, ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    now,
		SourceService: "memberhub",
		EntityType:    "membership",
		EntityID:      membership.MembershipID,
		SchemaVersion: 1,
		PartitionKey:  membership.MembershipID,
		Data:          data,
	})
}
