package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// Store is the in-memory adapter backing tests and the developer bootstrap
// path. It implements the order, invoice and outbox repositories plus Clock
// and IDGenerator.
type Store struct {
	mu sync.RWMutex

	ordersByID       map[string]entities.Order
	invoicesByID     map[string]entities.Invoice
	invoiceIDByOrder map[string]string
	outbox           []ports.OutboxMessage

	orderSeqByYear   map[int]int
	invoiceSeqByYear map[int]int
	sequence         uint64
}

func NewStore() *Store {
	return &Store{
		ordersByID:       make(map[string]entities.Order),
		invoicesByID:     make(map[string]entities.Invoice),
		invoiceIDByOrder: make(map[string]string),
		orderSeqByYear:   make(map[int]int),
		invoiceSeqByYear: make(map[int]int),
	}
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	next := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mem_%06d", next), nil
}

func (s *Store) CreateOrder(_ context.Context, order entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.OrderID]; exists {
		return domainerrors.ErrConflict
	}
	s.ordersByID[order.OrderID] = cloneOrder(order)
	return nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) SaveOrder(_ context.Context, order entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ordersByID[order.OrderID]; !ok {
		return domainerrors.ErrOrderNotFound
	}
	s.ordersByID[order.OrderID] = cloneOrder(order)
	return nil
}

func (s *Store) SaveOrderWithOutbox(_ context.Context, order entities.Order, event ports.OutboxEvent) error {
	payload, err := marshalEnvelope(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ordersByID[order.OrderID]; !ok {
		return domainerrors.ErrOrderNotFound
	}
	s.ordersByID[order.OrderID] = cloneOrder(order)
	s.outbox = append(s.outbox, ports.OutboxMessage{
		OutboxID:  event.EventID,
		EventType: event.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: event.OccurredAt.UTC(),
	})
	return nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.Order
	for _, order := range s.ordersByID {
		if order.UserID == userID {
			items = append(items, cloneOrder(order))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) OrderStatusCounts(_ context.Context) (map[entities.OrderStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[entities.OrderStatus]int{
		entities.OrderStatusPending:    0,
		entities.OrderStatusProcessing: 0,
		entities.OrderStatusCompleted:  0,
		entities.OrderStatusCancelled:  0,
		entities.OrderStatusRefunded:   0,
	}
	for _, order := range s.ordersByID {
		counts[order.Status]++
	}
	return counts, nil
}

func (s *Store) NextOrderNumber(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderSeqByYear[year]++
	return s.orderSeqByYear[year], nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice entities.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoicesByID[invoice.InvoiceID]; exists {
		return domainerrors.ErrConflict
	}
	if invoice.OrderID != "" {
		if _, exists := s.invoiceIDByOrder[invoice.OrderID]; exists {
			return domainerrors.ErrConflict
		}
		s.invoiceIDByOrder[invoice.OrderID] = invoice.InvoiceID
	}
	s.invoicesByID[invoice.InvoiceID] = cloneInvoice(invoice)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID string) (entities.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, ok := s.invoicesByID[invoiceID]
	if !ok {
		return entities.Invoice{}, domainerrors.ErrInvoiceNotFound
	}
	return cloneInvoice(invoice), nil
}

func (s *Store) GetInvoiceByOrder(_ context.Context, orderID string) (entities.Invoice, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoiceID, ok := s.invoiceIDByOrder[orderID]
	if !ok {
		return entities.Invoice{}, false, nil
	}
	invoice, ok := s.invoicesByID[invoiceID]
	if !ok {
		return entities.Invoice{}, false, domainerrors.ErrRepositoryInvariantBroke
	}
	return cloneInvoice(invoice), true, nil
}

func (s *Store) SaveInvoice(_ context.Context, invoice entities.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoicesByID[invoice.InvoiceID]; !ok {
		return domainerrors.ErrInvoiceNotFound
	}
	s.invoicesByID[invoice.InvoiceID] = cloneInvoice(invoice)
	return nil
}

func (s *Store) SaveInvoiceWithOutbox(_ context.Context, invoice entities.Invoice, event ports.OutboxEvent) error {
	payload, err := marshalEnvelope(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoicesByID[invoice.InvoiceID]; !ok {
		return domainerrors.ErrInvoiceNotFound
	}
	s.invoicesByID[invoice.InvoiceID] = cloneInvoice(invoice)
	s.outbox = append(s.outbox, ports.OutboxMessage{
		OutboxID:  event.EventID,
		EventType: event.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: event.OccurredAt.UTC(),
	})
	return nil
}

func (s *Store) ListInvoicesByUser(_ context.Context, userID string) ([]entities.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.Invoice
	for _, invoice := range s.invoicesByID {
		if invoice.UserID == userID {
			items = append(items, cloneInvoice(invoice))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) InvoiceStatusCounts(_ context.Context) (map[entities.InvoiceStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[entities.InvoiceStatus]int{
		entities.InvoiceStatusDraft:     0,
		entities.InvoiceStatusSent:      0,
		entities.InvoiceStatusPaid:      0,
		entities.InvoiceStatusOverdue:   0,
		entities.InvoiceStatusCancelled: 0,
		entities.InvoiceStatusRefunded:  0,
	}
	for _, invoice := range s.invoicesByID {
		counts[invoice.Status]++
	}
	return counts, nil
}

func (s *Store) MarkOverdueInvoices(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flipped := 0
	for id, invoice := range s.invoicesByID {
		if invoice.MarkOverdue(now) {
			s.invoicesByID[id] = invoice
			flipped++
		}
	}
	return flipped, nil
}

func (s *Store) NextInvoiceNumber(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoiceSeqByYear[year]++
	return s.invoiceSeqByYear[year], nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	var pending []ports.OutboxMessage
	for _, message := range s.outbox {
		if message.Status != outboxStatusPending {
			continue
		}
		pending = append(pending, message)
		if len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.outbox {
		if s.outbox[idx].OutboxID == outboxID {
			s.outbox[idx].Status = outboxStatusSent
			return nil
		}
	}
	return domainerrors.ErrNotFound
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.outbox {
		if s.outbox[idx].OutboxID == outboxID {
			s.outbox[idx].Status = outboxStatusFailed
			return nil
		}
	}
	return domainerrors.ErrNotFound
}

func marshalEnvelope(event ports.OutboxEvent) ([]byte, error) {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ports.EventEnvelope{
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
}

func cloneOrder(order entities.Order) entities.Order {
	order.Items = append([]entities.OrderItem(nil), order.Items...)
	return order
}

func cloneInvoice(invoice entities.Invoice) entities.Invoice {
	invoice.Items = append([]entities.InvoiceItem(nil), invoice.Items...)
	if invoice.SentAt != nil {
		sentAt := *invoice.SentAt
		invoice.SentAt = &sentAt
	}
	if invoice.PaidAt != nil {
		paidAt := *invoice.PaidAt
		invoice.PaidAt = &paidAt
	}
	return invoice
}
