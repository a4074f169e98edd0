package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

// Repository is the PostgreSQL adapter for membership persistence and webhook
// event dedup.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateMembership(ctx context.Context, membership entities.Membership) error {
	model := membershipModelFromEntity(membership)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *Repository) GetMembership(ctx context.Context, membershipID string) (entities.Membership, error) {
	membershipID = strings.TrimSpace(membershipID)

	var model membershipModel
	err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Membership{}, domainerrors.ErrMembershipNotFound
		}
		return entities.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return model.toEntity(), nil
}

func (r *Repository) GetMembershipByPaymentRef(ctx context.Context, paymentRef string) (entities.Membership, bool, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return entities.Membership{}, false, nil
	}

	var model membershipModel
	err := r.db.WithContext(ctx).
		Where("payment_ref = ?", paymentRef).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Membership{}, false, nil
		}
		return entities.Membership{}, false, fmt.Errorf("get membership by payment ref: %w", err)
	}
	return model.toEntity(), true, nil
}

func (r *Repository) SaveMembership(ctx context.Context, membership entities.Membership) error {
	result := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("membership_id = ?", membership.MembershipID).
		Updates(membershipUpdatesFromEntity(membership))
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrConflict
		}
		return fmt.Errorf("save membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMembershipNotFound
	}
	return nil
}

func (r *Repository) ListExpiringBetween(ctx context.Context, from time.Time, to time.Time) ([]entities.Membership, error) {
	var models []membershipModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date >= ? AND end_date < ?", string(entities.MembershipStatusActive), from.UTC(), to.UTC()).
		Order("end_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list expiring memberships: %w", err)
	}

	items := make([]entities.Membership, 0, len(models))
	for _, model := range models {
		items = append(items, model.toEntity())
	}
	return items, nil
}

// ReserveEvent claims a webhook event id for processing. The first caller
// wins; replays with the same payload report seen, replays with a different
// payload report a conflict. Expired reservations are reclaimed.
func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	now := time.Now().UTC()

	row := processedEventModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ProcessedAt: now,
		ExpiresAt:   expiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("reserve webhook event: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return false, nil
	}

	var existing processedEventModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&existing).Error
	if err != nil {
		return false, fmt.Errorf("load webhook event reservation: %w", err)
	}
	if existing.ExpiresAt.Before(now) {
		update := r.db.WithContext(ctx).
			Model(&processedEventModel{}).
			Where("event_id = ?", eventID).
			Updates(map[string]any{
				"payload_hash": payloadHash,
				"processed_at": now,
				"expires_at":   expiresAt.UTC(),
			})
		if update.Error != nil {
			return false, fmt.Errorf("reclaim webhook event: %w", update.Error)
		}
		return false, nil
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

// ReleaseEvent drops a reservation whose dispatch failed. Missing rows are
// fine; the retry will reserve again either way.
func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&processedEventModel{}).Error
	if err != nil {
		return fmt.Errorf("release webhook event: %w", err)
	}
	return nil
}

type membershipModel struct {
	MembershipID  string     `gorm:"column:membership_id;primaryKey"`
	UserID        string     `gorm:"column:user_id"`
	TypeConfigID  string     `gorm:"column:type_config_id"`
	TypeName      string     `gorm:"column:type_name"`
	Tier          string     `gorm:"column:tier"`
	PriceCents    int64      `gorm:"column:price_cents"`
	Currency      string     `gorm:"column:currency"`
	Status        string     `gorm:"column:status"`
	PaymentStatus string     `gorm:"column:payment_status"`
	StartDate     time.Time  `gorm:"column:start_date"`
	EndDate       *time.Time `gorm:"column:end_date"`
	PaymentRef    string     `gorm:"column:payment_ref"`
	OrderID       string     `gorm:"column:order_id"`
	AutoRenew     bool       `gorm:"column:auto_renew"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at"`
	CancelReason  string     `gorm:"column:cancel_reason"`
	CancelledBy   string     `gorm:"column:cancelled_by"`
	TeamAddon     bool       `gorm:"column:team_addon"`
	TeamName      string     `gorm:"column:team_name"`
	RefundPending bool       `gorm:"column:refund_pending"`
	AdminGrant    bool       `gorm:"column:admin_grant"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (membershipModel) TableName() string { return "billing_memberships" }

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (processedEventModel) TableName() string { return "billing_processed_events" }

func membershipModelFromEntity(membership entities.Membership) membershipModel {
	return membershipModel{
		MembershipID:  membership.MembershipID,
		UserID:        membership.UserID,
		TypeConfigID:  membership.TypeConfigID,
		TypeName:      membership.TypeName,
		Tier:          membership.Tier,
		PriceCents:    membership.PriceCents,
		Currency:      membership.Currency,
		Status:        string(membership.Status),
		PaymentStatus: string(membership.PaymentStatus),
		StartDate:     membership.StartDate.UTC(),
		EndDate:       normalizeOptionalTime(membership.EndDate),
		PaymentRef:    membership.PaymentRef,
		OrderID:       membership.OrderID,
		AutoRenew:     membership.AutoRenew,
		CancelledAt:   normalizeOptionalTime(membership.CancelledAt),
		CancelReason:  membership.CancelReason,
		CancelledBy:   membership.CancelledBy,
		TeamAddon:     membership.TeamAddon,
		TeamName:      membership.TeamName,
		RefundPending: membership.RefundPending,
		AdminGrant:    membership.AdminGrant,
		CreatedAt:     membership.CreatedAt.UTC(),
		UpdatedAt:     membership.UpdatedAt.UTC(),
	}
}

func membershipUpdatesFromEntity(membership entities.Membership) map[string]any {
	return map[string]any{
		"status":         string(membership.Status),
		"payment_status": string(membership.PaymentStatus),
		"end_date":       normalizeOptionalTime(membership.EndDate),
		"payment_ref":    membership.PaymentRef,
		"order_id":       membership.OrderID,
		"auto_renew":     membership.AutoRenew,
		"cancelled_at":   normalizeOptionalTime(membership.CancelledAt),
		"cancel_reason":  membership.CancelReason,
		"cancelled_by":   membership.CancelledBy,
		"team_addon":     membership.TeamAddon,
		"team_name":      membership.TeamName,
		"refund_pending": membership.RefundPending,
		"updated_at":     membership.UpdatedAt.UTC(),
	}
}

func (m membershipModel) toEntity() entities.Membership {
	return entities.Membership{
		MembershipID:  m.MembershipID,
		UserID:        m.UserID,
		TypeConfigID:  m.TypeConfigID,
		TypeName:      m.TypeName,
		Tier:          m.Tier,
		PriceCents:    m.PriceCents,
		Currency:      m.Currency,
		Status:        entities.MembershipStatus(m.Status),
		PaymentStatus: entities.PaymentStatus(m.PaymentStatus),
		StartDate:     m.StartDate.UTC(),
		EndDate:       normalizeOptionalTime(m.EndDate),
		PaymentRef:    m.PaymentRef,
		OrderID:       m.OrderID,
		AutoRenew:     m.AutoRenew,
		CancelledAt:   normalizeOptionalTime(m.CancelledAt),
		CancelReason:  m.CancelReason,
		CancelledBy:   m.CancelledBy,
		TeamAddon:     m.TeamAddon,
		TeamName:      m.TeamName,
		RefundPending: m.RefundPending,
		AdminGrant:    m.AdminGrant,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
