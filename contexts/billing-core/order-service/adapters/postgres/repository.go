package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateOrder(ctx context.Context, order entities.Order) error {
	row := orderModelFromEntity(order)
	itemRows := orderItemModelsFromEntity(order)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		for idx := range itemRows {
			if err := tx.Create(&itemRows[idx]).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrConflict
				}
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, err
	}

	items, err := r.loadOrderItems(ctx, []string{row.OrderID})
	if err != nil {
		return entities.Order{}, err
	}
	return row.toEntity(items[row.OrderID]), nil
}

func (r *Repository) SaveOrder(ctx context.Context, order entities.Order) error {
	result := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("order_id = ?", strings.TrimSpace(order.OrderID)).
		Updates(orderUpdatesFromEntity(order))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) SaveOrderWithOutbox(ctx context.Context, order entities.Order, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderModel{}).
			Where("order_id = ?", strings.TrimSpace(order.OrderID)).
			Updates(orderUpdatesFromEntity(order))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOrderNotFound
		}
		return insertOutboxEventTx(tx, event)
	})
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error) {
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entities.Order{}, nil
	}

	orderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.OrderID)
	}
	itemsByOrder, err := r.loadOrderItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	items := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(itemsByOrder[row.OrderID]))
	}
	return items, nil
}

func (r *Repository) OrderStatusCounts(ctx context.Context) (map[entities.OrderStatus]int, error) {
	type statusCount struct {
		Status string
		Total  int
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	counts := map[entities.OrderStatus]int{
		entities.OrderStatusPending:    0,
		entities.OrderStatusProcessing: 0,
		entities.OrderStatusCompleted:  0,
		entities.OrderStatusCancelled:  0,
		entities.OrderStatusRefunded:   0,
	}
	for _, row := range rows {
		counts[entities.OrderStatus(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *Repository) NextOrderNumber(ctx context.Context, year int) (int, error) {
	return r.nextSequence(ctx, "billing_order_numbers", year)
}

func (r *Repository) CreateInvoice(ctx context.Context, invoice entities.Invoice) error {
	row := invoiceModelFromEntity(invoice)
	itemRows := invoiceItemModelsFromEntity(invoice)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		for idx := range itemRows {
			if err := tx.Create(&itemRows[idx]).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrConflict
				}
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetInvoice(ctx context.Context, invoiceID string) (entities.Invoice, error) {
	var row invoiceModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", strings.TrimSpace(invoiceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invoice{}, domainerrors.ErrInvoiceNotFound
		}
		return entities.Invoice{}, err
	}

	items, err := r.loadInvoiceItems(ctx, []string{row.InvoiceID})
	if err != nil {
		return entities.Invoice{}, err
	}
	return row.toEntity(items[row.InvoiceID]), nil
}

func (r *Repository) GetInvoiceByOrder(ctx context.Context, orderID string) (entities.Invoice, bool, error) {
	var row invoiceModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Invoice{}, false, nil
		}
		return entities.Invoice{}, false, err
	}

	items, err := r.loadInvoiceItems(ctx, []string{row.InvoiceID})
	if err != nil {
		return entities.Invoice{}, false, err
	}
	return row.toEntity(items[row.InvoiceID]), true, nil
}

func (r *Repository) SaveInvoice(ctx context.Context, invoice entities.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&invoiceModel{}).
		Where("invoice_id = ?", strings.TrimSpace(invoice.InvoiceID)).
		Updates(invoiceUpdatesFromEntity(invoice))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvoiceNotFound
	}
	return nil
}

func (r *Repository) SaveInvoiceWithOutbox(ctx context.Context, invoice entities.Invoice, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&invoiceModel{}).
			Where("invoice_id = ?", strings.TrimSpace(invoice.InvoiceID)).
			Updates(invoiceUpdatesFromEntity(invoice))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrInvoiceNotFound
		}
		return insertOutboxEventTx(tx, event)
	})
}

func (r *Repository) ListInvoicesByUser(ctx context.Context, userID string) ([]entities.Invoice, error) {
	var rows []invoiceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entities.Invoice{}, nil
	}

	invoiceIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		invoiceIDs = append(invoiceIDs, row.InvoiceID)
	}
	itemsByInvoice, err := r.loadInvoiceItems(ctx, invoiceIDs)
	if err != nil {
		return nil, err
	}

	items := make([]entities.Invoice, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(itemsByInvoice[row.InvoiceID]))
	}
	return items, nil
}

func (r *Repository) InvoiceStatusCounts(ctx context.Context) (map[entities.InvoiceStatus]int, error) {
	type statusCount struct {
		Status string
		Total  int
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&invoiceModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	counts := map[entities.InvoiceStatus]int{
		entities.InvoiceStatusDraft:     0,
		entities.InvoiceStatusSent:      0,
		entities.InvoiceStatusPaid:      0,
		entities.InvoiceStatusOverdue:   0,
		entities.InvoiceStatusCancelled: 0,
		entities.InvoiceStatusRefunded:  0,
	}
	for _, row := range rows {
		counts[entities.InvoiceStatus(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *Repository) MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&invoiceModel{}).
		Where("status = ? AND due_date < ?", string(entities.InvoiceStatusSent), now.UTC()).
		Updates(map[string]any{
			"status":     string(entities.InvoiceStatusOverdue),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) NextInvoiceNumber(ctx context.Context, year int) (int, error) {
	return r.nextSequence(ctx, "billing_invoice_numbers", year)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			Status:    row.Status,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// MarkOutboxFailed parks the row; sent_at stays empty because nothing was
// delivered.
func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, _ time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Update("status", outboxStatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// nextSequence allocates the next per-year document number through an upsert
// so concurrent writers never observe the same value.
func (r *Repository) nextSequence(ctx context.Context, table string, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Raw(
			"INSERT INTO "+table+" (year, last_value) VALUES (?, 1) "+
				"ON CONFLICT (year) DO UPDATE SET last_value = "+table+".last_value + 1 "+
				"RETURNING last_value",
			year,
		).
		Scan(&next).
		Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repository) loadOrderItems(ctx context.Context, orderIDs []string) (map[string][]entities.OrderItem, error) {
	var rows []orderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("position ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	byOrder := make(map[string][]entities.OrderItem, len(orderIDs))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row.toEntity())
	}
	return byOrder, nil
}

func (r *Repository) loadInvoiceItems(ctx context.Context, invoiceIDs []string) (map[string][]entities.InvoiceItem, error) {
	var rows []invoiceItemModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("position ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	byInvoice := make(map[string][]entities.InvoiceItem, len(invoiceIDs))
	for _, row := range rows {
		byInvoice[row.InvoiceID] = append(byInvoice[row.InvoiceID], row.toEntity())
	}
	return byInvoice, nil
}

func insertOutboxEventTx(tx *gorm.DB, event ports.OutboxEvent) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:       event.EventID,
		EventType:     event.EventType,
		OccurredAt:    event.OccurredAt.UTC(),
		SourceService: "memberhub",
		EntityType:    event.EntityType,
		EntityID:      event.EntityID,
		SchemaVersion: 1,
		PartitionKey:  event.EntityID,
		Data:          data,
	})
	if err != nil {
		return err
	}

	row := outboxModel{
		OutboxID:  strings.TrimSpace(event.EventID),
		EventType: strings.TrimSpace(event.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: event.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	return nil
}

type orderModel struct {
	OrderID        string    `gorm:"column:order_id;primaryKey"`
	OrderNumber    string    `gorm:"column:order_number"`
	OrderType      string    `gorm:"column:order_type"`
	UserID         string    `gorm:"column:user_id"`
	SubtotalCents  int64     `gorm:"column:subtotal_cents"`
	TaxCents       int64     `gorm:"column:tax_cents"`
	DiscountCents  int64     `gorm:"column:discount_cents"`
	TotalCents     int64     `gorm:"column:total_cents"`
	Currency       string    `gorm:"column:currency"`
	Status         string    `gorm:"column:status"`
	PaymentRef     string    `gorm:"column:payment_ref"`
	InvoiceID      string    `gorm:"column:invoice_id"`
	Notes          string    `gorm:"column:notes"`
	BillingName    string    `gorm:"column:billing_name"`
	BillingEmail   string    `gorm:"column:billing_email"`
	BillingPhone   string    `gorm:"column:billing_phone"`
	BillingAddr1   string    `gorm:"column:billing_address1"`
	BillingAddr2   string    `gorm:"column:billing_address2"`
	BillingCity    string    `gorm:"column:billing_city"`
	BillingState   string    `gorm:"column:billing_state"`
	BillingPostal  string    `gorm:"column:billing_postal_code"`
	BillingCountry string    `gorm:"column:billing_country"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string {
	return "billing_orders"
}

func orderModelFromEntity(item entities.Order) orderModel {
	return orderModel{
		OrderID:        strings.TrimSpace(item.OrderID),
		OrderNumber:    strings.TrimSpace(item.OrderNumber),
		OrderType:      string(item.OrderType),
		UserID:         strings.TrimSpace(item.UserID),
		SubtotalCents:  item.Subtotal.Cents,
		TaxCents:       item.Tax.Cents,
		DiscountCents:  item.Discount.Cents,
		TotalCents:     item.Total.Cents,
		Currency:       item.Currency,
		Status:         string(item.Status),
		PaymentRef:     strings.TrimSpace(item.PaymentRef),
		InvoiceID:      strings.TrimSpace(item.InvoiceID),
		Notes:          strings.TrimSpace(item.Notes),
		BillingName:    strings.TrimSpace(item.Billing.Name),
		BillingEmail:   strings.TrimSpace(item.Billing.Email),
		BillingPhone:   strings.TrimSpace(item.Billing.Phone),
		BillingAddr1:   strings.TrimSpace(item.Billing.Address1),
		BillingAddr2:   strings.TrimSpace(item.Billing.Address2),
		BillingCity:    strings.TrimSpace(item.Billing.City),
		BillingState:   strings.TrimSpace(item.Billing.State),
		BillingPostal:  strings.TrimSpace(item.Billing.PostalCode),
		BillingCountry: strings.TrimSpace(item.Billing.Country),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func orderUpdatesFromEntity(item entities.Order) map[string]any {
	row := orderModelFromEntity(item)
	return map[string]any{
		"status":      row.Status,
		"payment_ref": row.PaymentRef,
		"invoice_id":  row.InvoiceID,
		"notes":       row.Notes,
		"updated_at":  row.UpdatedAt,
	}
}

func (m orderModel) toEntity(items []entities.OrderItem) entities.Order {
	return entities.Order{
		OrderID:     m.OrderID,
		OrderNumber: m.OrderNumber,
		OrderType:   entities.OrderType(m.OrderType),
		UserID:      m.UserID,
		Items:       append([]entities.OrderItem(nil), items...),
		Subtotal:    entities.Money{Cents: m.SubtotalCents, Currency: m.Currency},
		Tax:         entities.Money{Cents: m.TaxCents, Currency: m.Currency},
		Discount:    entities.Money{Cents: m.DiscountCents, Currency: m.Currency},
		Total:       entities.Money{Cents: m.TotalCents, Currency: m.Currency},
		Currency:    m.Currency,
		Status:      entities.OrderStatus(m.Status),
		PaymentRef:  m.PaymentRef,
		InvoiceID:   m.InvoiceID,
		Notes:       m.Notes,
		Billing: entities.BillingAddress{
			Name:       m.BillingName,
			Email:      m.BillingEmail,
			Phone:      m.BillingPhone,
			Address1:   m.BillingAddr1,
			Address2:   m.BillingAddr2,
			City:       m.BillingCity,
			State:      m.BillingState,
			PostalCode: m.BillingPostal,
			Country:    m.BillingCountry,
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type orderItemModel struct {
	ItemID         string `gorm:"column:item_id;primaryKey"`
	OrderID        string `gorm:"column:order_id"`
	Position       int    `gorm:"column:position"`
	Description    string `gorm:"column:description"`
	Quantity       int    `gorm:"column:quantity"`
	UnitPriceCents int64  `gorm:"column:unit_price_cents"`
	TotalCents     int64  `gorm:"column:total_cents"`
	Currency       string `gorm:"column:currency"`
	ReferenceID    string `gorm:"column:reference_id"`
}

func (orderItemModel) TableName() string {
	return "billing_order_items"
}

func orderItemModelsFromEntity(order entities.Order) []orderItemModel {
	rows := make([]orderItemModel, 0, len(order.Items))
	for idx, item := range order.Items {
		rows = append(rows, orderItemModel{
			ItemID:         strings.TrimSpace(item.ItemID),
			OrderID:        strings.TrimSpace(order.OrderID),
			Position:       idx,
			Description:    strings.TrimSpace(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPrice.Cents,
			TotalCents:     item.Total.Cents,
			Currency:       order.Currency,
			ReferenceID:    strings.TrimSpace(item.ReferenceID),
		})
	}
	return rows
}

func (m orderItemModel) toEntity() entities.OrderItem {
	return entities.OrderItem{
		ItemID:      m.ItemID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   entities.Money{Cents: m.UnitPriceCents, Currency: m.Currency},
		Total:       entities.Money{Cents: m.TotalCents, Currency: m.Currency},
		ReferenceID: m.ReferenceID,
	}
}

type invoiceModel struct {
	InvoiceID      string     `gorm:"column:invoice_id;primaryKey"`
	InvoiceNumber  string     `gorm:"column:invoice_number"`
	OrderID        string     `gorm:"column:order_id"`
	UserID         string     `gorm:"column:user_id"`
	SubtotalCents  int64      `gorm:"column:subtotal_cents"`
	TaxCents       int64      `gorm:"column:tax_cents"`
	DiscountCents  int64      `gorm:"column:discount_cents"`
	TotalCents     int64      `gorm:"column:total_cents"`
	Currency       string     `gorm:"column:currency"`
	Status         string     `gorm:"column:status"`
	DueDate        time.Time  `gorm:"column:due_date"`
	SentAt         *time.Time `gorm:"column:sent_at"`
	PaidAt         *time.Time `gorm:"column:paid_at"`
	PaymentRef     string     `gorm:"column:payment_ref"`
	Notes          string     `gorm:"column:notes"`
	BillingName    string     `gorm:"column:billing_name"`
	BillingEmail   string     `gorm:"column:billing_email"`
	BillingPhone   string     `gorm:"column:billing_phone"`
	BillingAddr1   string     `gorm:"column:billing_address1"`
	BillingAddr2   string     `gorm:"column:billing_address2"`
	BillingCity    string     `gorm:"column:billing_city"`
	BillingState   string     `gorm:"column:billing_state"`
	BillingPostal  string     `gorm:"column:billing_postal_code"`
	BillingCountry string     `gorm:"column:billing_country"`
	CompanyName    string     `gorm:"column:company_name"`
	CompanyEmail   string     `gorm:"column:company_email"`
	CompanyAddress string     `gorm:"column:company_address"`
	CompanyCountry string     `gorm:"column:company_country"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (invoiceModel) TableName() string {
	return "billing_invoices"
}

func invoiceModelFromEntity(item entities.Invoice) invoiceModel {
	return invoiceModel{
		InvoiceID:      strings.TrimSpace(item.InvoiceID),
		InvoiceNumber:  strings.TrimSpace(item.InvoiceNumber),
		OrderID:        strings.TrimSpace(item.OrderID),
		UserID:         strings.TrimSpace(item.UserID),
		SubtotalCents:  item.Subtotal.Cents,
		TaxCents:       item.Tax.Cents,
		DiscountCents:  item.Discount.Cents,
		TotalCents:     item.Total.Cents,
		Currency:       item.Currency,
		Status:         string(item.Status),
		DueDate:        item.DueDate.UTC(),
		SentAt:         normalizeOptionalTime(item.SentAt),
		PaidAt:         normalizeOptionalTime(item.PaidAt),
		PaymentRef:     strings.TrimSpace(item.PaymentRef),
		Notes:          strings.TrimSpace(item.Notes),
		BillingName:    strings.TrimSpace(item.Billing.Name),
		BillingEmail:   strings.TrimSpace(item.Billing.Email),
		BillingPhone:   strings.TrimSpace(item.Billing.Phone),
		BillingAddr1:   strings.TrimSpace(item.Billing.Address1),
		BillingAddr2:   strings.TrimSpace(item.Billing.Address2),
		BillingCity:    strings.TrimSpace(item.Billing.City),
		BillingState:   strings.TrimSpace(item.Billing.State),
		BillingPostal:  strings.TrimSpace(item.Billing.PostalCode),
		BillingCountry: strings.TrimSpace(item.Billing.Country),
		CompanyName:    strings.TrimSpace(item.Company.Name),
		CompanyEmail:   strings.TrimSpace(item.Company.Email),
		CompanyAddress: strings.TrimSpace(item.Company.Address),
		CompanyCountry: strings.TrimSpace(item.Company.Country),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func invoiceUpdatesFromEntity(item entities.Invoice) map[string]any {
	row := invoiceModelFromEntity(item)
	return map[string]any{
		"status":      row.Status,
		"sent_at":     row.SentAt,
		"paid_at":     row.PaidAt,
		"payment_ref": row.PaymentRef,
		"notes":       row.Notes,
		"updated_at":  row.UpdatedAt,
	}
}

func (m invoiceModel) toEntity(items []entities.InvoiceItem) entities.Invoice {
	return entities.Invoice{
		InvoiceID:      m.InvoiceID,
		InvoiceNumber:  m.InvoiceNumber,
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		Items:          append([]entities.InvoiceItem(nil), items...),
		Subtotal:       entities.Money{Cents: m.SubtotalCents, Currency: m.Currency},
		Tax:            entities.Money{Cents: m.TaxCents, Currency: m.Currency},
		Discount:       entities.Money{Cents: m.DiscountCents, Currency: m.Currency},
		Total:          entities.Money{Cents: m.TotalCents, Currency: m.Currency},
		Currency:       m.Currency,
		Status:         entities.InvoiceStatus(m.Status),
		DueDate:        m.DueDate.UTC(),
		SentAt:         normalizeOptionalTime(m.SentAt),
		PaidAt:         normalizeOptionalTime(m.PaidAt),
		PaymentRef:     m.PaymentRef,
		Notes:          m.Notes,
		Billing: entities.BillingAddress{
			Name:       m.BillingName,
			Email:      m.BillingEmail,
			Phone:      m.BillingPhone,
			Address1:   m.BillingAddr1,
			Address2:   m.BillingAddr2,
			City:       m.BillingCity,
			State:      m.BillingState,
			PostalCode: m.BillingPostal,
			Country:    m.BillingCountry,
		},
		Company: entities.CompanyInfo{
			Name:    m.CompanyName,
			Email:   m.CompanyEmail,
			Address: m.CompanyAddress,
			Country: m.CompanyCountry,
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type invoiceItemModel struct {
	ItemID         string `gorm:"column:item_id;primaryKey"`
	InvoiceID      string `gorm:"column:invoice_id"`
	Position       int    `gorm:"column:position"`
	Description    string `gorm:"column:description"`
	Quantity       int    `gorm:"column:quantity"`
	UnitPriceCents int64  `gorm:"column:unit_price_cents"`
	TotalCents     int64  `gorm:"column:total_cents"`
	Currency       string `gorm:"column:currency"`
	ReferenceID    string `gorm:"column:reference_id"`
}

func (invoiceItemModel) TableName() string {
	return "billing_invoice_items"
}

func invoiceItemModelsFromEntity(invoice entities.Invoice) []invoiceItemModel {
	rows := make([]invoiceItemModel, 0, len(invoice.Items))
	for idx, item := range invoice.Items {
		rows = append(rows, invoiceItemModel{
			ItemID:         strings.TrimSpace(item.ItemID),
			InvoiceID:      strings.TrimSpace(invoice.InvoiceID),
			Position:       idx,
			Description:    strings.TrimSpace(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPrice.Cents,
			TotalCents:     item.Total.Cents,
			Currency:       invoice.Currency,
			ReferenceID:    strings.TrimSpace(item.ReferenceID),
		})
	}
	return rows
}

func (m invoiceItemModel) toEntity() entities.InvoiceItem {
	return entities.InvoiceItem{
		ItemID:      m.ItemID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   entities.Money{Cents: m.UnitPriceCents, Currency: m.Currency},
		Total:       entities.Money{Cents: m.TotalCents, Currency: m.Currency},
		ReferenceID: m.ReferenceID,
	}
}

type outboxModel struct {
	OutboxID  string     `gorm:"column:outbox_id;primaryKey"`
	EventType string     `gorm:"column:event_type"`
	Payload   []byte     `gorm:"column:payload"`
	Status    string     `gorm:"column:status"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "billing_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
