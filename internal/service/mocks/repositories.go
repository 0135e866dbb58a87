package mocks

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu        sync.RWMutex
	links     map[string]*models.Link
	createErr error // forced Create error, e.g. to simulate collisions
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[string]*models.Link),
	}
}

func (m *MockLinkRepository) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.links[link.ID]; exists {
		return repository.ErrLinkExists
	}

	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, q models.ListLinksQuery) ([]models.Link, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term := strings.ToLower(q.SearchTerm)
	var matched []models.Link
	for _, link := range m.links {
		if link.OwnerID != q.OwnerID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(link.ID), term) &&
			!strings.Contains(strings.ToLower(link.OriginalURL), term) {
			continue
		}
		matched = append(matched, *link)
	}

	// Same ordering as the SQL implementation: created_at DESC, id DESC
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return []models.Link{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MockLinkRepository) SetStatus(ctx context.Context, id, ownerID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists || link.OwnerID != ownerID {
		return repository.ErrLinkNotFound
	}
	link.Status = status
	return nil
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu        sync.RWMutex
	links     map[string]*models.Link
	summaries map[string]*models.AnalyticsSummary
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		links:     make(map[string]*models.Link),
		summaries: make(map[string]*models.AnalyticsSummary),
	}
}

func (m *MockCacheRepository) GetLink(ctx context.Context, id string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockCacheRepository) SetLink(ctx context.Context, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *MockCacheRepository) DeleteLink(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, id)
	return nil
}

func (m *MockCacheRepository) GetSummary(ctx context.Context, ownerID string) (*models.AnalyticsSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary, exists := m.summaries[ownerID]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return summary, nil
}

func (m *MockCacheRepository) SetSummary(ctx context.Context, ownerID string, summary *models.AnalyticsSummary, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[ownerID] = summary
	return nil
}

func (m *MockCacheRepository) InvalidateSummary(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.summaries, ownerID)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.summaries = make(map[string]*models.AnalyticsSummary)
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks []models.Click
	failN  int // fail this many RecordClick calls before succeeding
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{}
}

func (m *MockClickRepository) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failN = n
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failN > 0 {
		m.failN--
		return fmt.Errorf("simulated click write failure")
	}
	m.clicks = append(m.clicks, *click)
	return nil
}

func (m *MockClickRepository) Clicks() []models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Click, len(m.clicks))
	copy(out, m.clicks)
	return out
}

func (m *MockClickRepository) GetDailyVisits(ctx context.Context, ownerID string) ([]models.DailyVisits, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDay := make(map[time.Time]int64)
	for _, click := range m.clicks {
		if click.OwnerID != ownerID {
			continue
		}
		day := click.ClickedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}

	var visits []models.DailyVisits
	for day, count := range byDay {
		visits = append(visits, models.DailyVisits{Date: day, Count: count})
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].Date.Before(visits[j].Date) })
	return visits, nil
}

func (m *MockClickRepository) GetLocationVisits(ctx context.Context, ownerID string) ([]models.LocationVisits, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct {
		city     string
		lat, lng float64
	}
	byCity := make(map[key]int64)
	for _, click := range m.clicks {
		if click.OwnerID != ownerID || click.Location == nil {
			continue
		}
		k := key{
			city: click.Location.City,
			lat:  round4(click.Location.Lat),
			lng:  round4(click.Location.Lng),
		}
		byCity[k]++
	}

	var visits []models.LocationVisits
	for k, count := range byCity {
		visits = append(visits, models.LocationVisits{City: k.city, Lat: k.lat, Lng: k.lng, Count: count})
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].Count > visits[j].Count })
	return visits, nil
}

func (m *MockClickRepository) GetBreakdown(ctx context.Context, ownerID, column string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	breakdown := make(map[string]int64)
	for _, click := range m.clicks {
		if click.OwnerID != ownerID {
			continue
		}
		var value string
		switch column {
		case "device":
			value = click.Device
		case "browser":
			value = click.Browser
		case "network":
			value = click.Network
		default:
			return nil, fmt.Errorf("unsupported breakdown column: %s", column)
		}
		if value != "" {
			breakdown[value]++
		}
	}
	return breakdown, nil
}

func (m *MockClickRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = nil
	m.failN = 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// MockCreditRepository implements repository.CreditRepository for testing.
// Balance check and mutation happen under one lock, mirroring the
// single-statement atomicity of the SQL implementation.
type MockCreditRepository struct {
	mu      sync.Mutex
	credits map[string]int64
	history map[string][]models.CreditEntry
}

func NewMockCreditRepository() *MockCreditRepository {
	return &MockCreditRepository{
		credits: make(map[string]int64),
		history: make(map[string][]models.CreditEntry),
	}
}

func (m *MockCreditRepository) EnsureAccount(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if balance, exists := m.credits[userID]; exists {
		return balance, nil
	}
	m.credits[userID] = 1
	m.appendHistory(userID, models.CreditEntryEarned, 1, "signup_bonus")
	return 1, nil
}

func (m *MockCreditRepository) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, exists := m.credits[userID]
	if !exists {
		return 0, repository.ErrAccountNotFound
	}
	if balance < amount {
		return 0, repository.ErrInsufficientCredits
	}
	m.credits[userID] = balance - amount
	m.appendHistory(userID, models.CreditEntrySpent, amount, reason)
	return m.credits[userID], nil
}

func (m *MockCreditRepository) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credits[userID] += amount
	m.appendHistory(userID, models.CreditEntryEarned, amount, reason)
	return m.credits[userID], nil
}

func (m *MockCreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, exists := m.credits[userID]
	if !exists {
		return 0, repository.ErrAccountNotFound
	}
	return balance, nil
}

func (m *MockCreditRepository) GetHistory(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Same ordering as the SQL implementation: newest first
	entries := m.history[userID]
	out := make([]models.CreditEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (m *MockCreditRepository) SetBalance(userID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits[userID] = balance
}

func (m *MockCreditRepository) appendHistory(userID, entryType string, amount int64, reason string) {
	m.history[userID] = append(m.history[userID], models.CreditEntry{
		ID:        int64(len(m.history[userID]) + 1),
		UserID:    userID,
		Type:      entryType,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
}

// MockOrderRepository implements repository.OrderRepository for testing
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*models.PaymentOrder
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*models.PaymentOrder),
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.CreatedAt = time.Now().UTC()
	stored := *order
	m.orders[order.OrderID] = &stored
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[orderID]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) Finalize(ctx context.Context, orderID, status, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[orderID]
	if !exists {
		return repository.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusCreated {
		return repository.ErrOrderFinalized
	}
	order.Status = status
	order.PaymentID = paymentID
	return nil
}

// MockPaymentGateway implements service.PaymentGateway for testing.
// A signature produced by Sign is the only one that verifies.
type MockPaymentGateway struct {
	mu         sync.Mutex
	nextID     int
	FailCreate bool
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) CreateOrder(amount int64, currency, receipt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate {
		return "", fmt.Errorf("simulated gateway failure")
	}
	m.nextID++
	return fmt.Sprintf("order_mock%04d", m.nextID), nil
}

func (m *MockPaymentGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == m.Sign(orderID, paymentID)
}

func (m *MockPaymentGateway) Sign(orderID, paymentID string) string {
	return "signed:" + orderID + "|" + paymentID
}

// MockGeoResolver implements geoip.Resolver for testing
type MockGeoResolver struct {
	mu        sync.RWMutex
	locations map[string]*models.Geolocation
}

func NewMockGeoResolver() *MockGeoResolver {
	return &MockGeoResolver{
		locations: make(map[string]*models.Geolocation),
	}
}

func (m *MockGeoResolver) Add(ip string, loc models.Geolocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[ip] = &loc
}

func (m *MockGeoResolver) Lookup(ip string) *models.Geolocation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loc, exists := m.locations[ip]
	if !exists {
		return nil
	}
	copied := *loc
	return &copied
}

func (m *MockGeoResolver) Close() error { return nil }
