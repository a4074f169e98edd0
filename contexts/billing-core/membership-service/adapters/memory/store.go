package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

// Store is the in-memory adapter backing tests and the developer bootstrap
// path. It implements the membership repository, webhook event dedup, Clock
// and IDGenerator.
type Store struct {
	mu sync.RWMutex

	membershipsByID map[string]entities.Membership
	idByPaymentRef  map[string]string
	processedEvents map[string]string // event id -> payload hash

	sequence uint64
}

func NewStore() *Store {
	return &Store{
		membershipsByID: make(map[string]entities.Membership),
		idByPaymentRef:  make(map[string]string),
		processedEvents: make(map[string]string),
	}
}

func (s *Store) Now() time.Time { return time.Now().UTC() }

func (s *Store) NewID(_ context.Context) (string, error) {
	next := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mem_%06d", next), nil
}

func (s *Store) CreateMembership(_ context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.membershipsByID[membership.MembershipID]; exists {
		return domainerrors.ErrConflict
	}
	if membership.PaymentRef != "" {
		if _, exists := s.idByPaymentRef[membership.PaymentRef]; exists {
			return domainerrors.ErrConflict
		}
		s.idByPaymentRef[membership.PaymentRef] = membership.MembershipID
	}
	s.membershipsByID[membership.MembershipID] = cloneMembership(membership)
	return nil
}

func (s *Store) GetMembership(_ context.Context, membershipID string) (entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, ok := s.membershipsByID[membershipID]
	if !ok {
		return entities.Membership{}, domainerrors.ErrMembershipNotFound
	}
	return cloneMembership(membership), nil
}

func (s *Store) GetMembershipByPaymentRef(_ context.Context, paymentRef string) (entities.Membership, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membershipID, ok := s.idByPaymentRef[paymentRef]
	if !ok {
		return entities.Membership{}, false, nil
	}
	membership, ok := s.membershipsByID[membershipID]
	if !ok {
		return entities.Membership{}, false, domainerrors.ErrMembershipNotFound
	}
	return cloneMembership(membership), true, nil
}

func (s *Store) SaveMembership(_ context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, ok := s.membershipsByID[membership.MembershipID]
	if !ok {
		return domainerrors.ErrMembershipNotFound
	}
	if prior.PaymentRef != "" && prior.PaymentRef != membership.PaymentRef {
		delete(s.idByPaymentRef, prior.PaymentRef)
	}
	if membership.PaymentRef != "" {
		s.idByPaymentRef[membership.PaymentRef] = membership.MembershipID
	}
	s.membershipsByID[membership.MembershipID] = cloneMembership(membership)
	return nil
}

func (s *Store) ListExpiringBetween(_ context.Context, from time.Time, to time.Time) ([]entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.Membership
	for _, membership := range s.membershipsByID {
		if membership.Status != entities.MembershipStatusActive || membership.EndDate == nil {
			continue
		}
		endDate := membership.EndDate.UTC()
		if !endDate.Before(from.UTC()) && endDate.Before(to.UTC()) {
			items = append(items, cloneMembership(membership))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].EndDate.Before(*items[j].EndDate)
	})
	return items, nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, seen := s.processedEvents[eventID]; seen {
		if prior != payloadHash {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.processedEvents[eventID] = payloadHash
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.processedEvents, eventID)
	return nil
}

func cloneMembership(membership entities.Membership) entities.Membership {
	if membership.EndDate != nil {
		endDate := *membership.EndDate
		membership.EndDate = &endDate
	}
	if membership.CancelledAt != nil {
		cancelledAt := *membership.CancelledAt
		membership.CancelledAt = &cancelledAt
	}
	return membership
}
