package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aibot/core/fault"
)

type memoryUsers struct {
	mu    sync.RWMutex
	users map[int64]*User
}

// NewMemoryUsers builds the in-memory user store.
func NewMemoryUsers() Users {
	return &memoryUsers{users: make(map[int64]*User)}
}

func (s *memoryUsers) Upsert(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.users[u.ID]; ok {
		existing.Username = u.Username
		existing.FirstName = u.FirstName
		existing.UpdatedAt = now
		*u = *existing
		return nil
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Tier == "" {
		u.Tier = TierFree
	}
	u.TokenBalance = 0
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memoryUsers) Get(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("user %d not found", id))
	}
	cp := *u
	return &cp, nil
}

func (s *memoryUsers) SetTier(ctx context.Context, id int64, tier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Tier = tier
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *memoryUsers) SetRole(ctx context.Context, id int64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Role = role
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

type memoryPlans struct {
	mu    sync.RWMutex
	plans []Plan
}

// NewMemoryPlans builds an in-memory plan catalog from the given plans.
func NewMemoryPlans(plans ...Plan) Plans {
	return &memoryPlans{plans: plans}
}

func (s *memoryPlans) Active(ctx context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Plan
	for _, p := range s.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryPlans) ByID(ctx context.Context, id int64) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fault.New(fault.KindNotFound, fmt.Sprintf("plan %d not found", id))
}

func (s *memoryPlans) ByProductID(ctx context.Context, productID string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.ProductID == productID {
			cp := p
			return &cp, nil
		}
	}
	return nil, fault.New(fault.KindNotFound, fmt.Sprintf("plan for product %s not found", productID))
}

type memoryPayments struct {
	mu     sync.Mutex
	nextID int64
	byID   map[string]*PaymentRequest
}

// NewMemoryPayments builds the in-memory payment request store.
func NewMemoryPayments() Payments {
	return &memoryPayments{byID: make(map[string]*PaymentRequest)}
}

func (s *memoryPayments) Create(ctx context.Context, p *PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.byID[p.OrderID] = &cp
	return nil
}

func (s *memoryPayments) ByOrderID(ctx context.Context, orderID string) (*PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[orderID]
	if !ok {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("payment request %s not found", orderID))
	}
	cp := *p
	return &cp, nil
}

func (s *memoryPayments) LatestByUser(ctx context.Context, userID int64) (*PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *PaymentRequest
	for _, p := range s.byID {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("no payment requests for user %d", userID))
	}
	cp := *latest
	return &cp, nil
}

func (s *memoryPayments) ListPending(ctx context.Context, limit int) ([]PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []PaymentRequest
	for _, p := range s.byID {
		if p.Status == PaymentPending {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryPayments) UpdateStatus(ctx context.Context, orderID, status, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[orderID]
	if !ok {
		return fault.New(fault.KindNotFound, fmt.Sprintf("payment request %s not found", orderID))
	}
	p.Status = status
	if subscriptionID != "" {
		p.SubscriptionID = subscriptionID
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryPayments) MarkGranted(ctx context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[orderID]
	if !ok {
		return false, fault.New(fault.KindNotFound, fmt.Sprintf("payment request %s not found", orderID))
	}
	if p.TokensGranted {
		return false, nil
	}
	p.TokensGranted = true
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}
