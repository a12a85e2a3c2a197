package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ──────────────────────────────────────────────
// IN-MEMORY STORE
// ──────────────────────────────────────────────

// memData is the backing state of the in-memory store.
type memData struct {
	users   map[string]*domain.User
	drivers map[string]*domain.DriverProfile // keyed by user id
	rides   map[string]*domain.Ride
	txns    []*domain.Transaction
	rideSeq map[string]int64 // insertion order for stable sorting
}

func (d *memData) clone() *memData {
	c := &memData{
		users:   make(map[string]*domain.User, len(d.users)),
		drivers: make(map[string]*domain.DriverProfile, len(d.drivers)),
		rides:   make(map[string]*domain.Ride, len(d.rides)),
		txns:    make([]*domain.Transaction, len(d.txns)),
		rideSeq: make(map[string]int64, len(d.rideSeq)),
	}
	for id, u := range d.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, p := range d.drivers {
		cp := *p
		c.drivers[id] = &cp
	}
	for id, r := range d.rides {
		cp := *r
		c.rides[id] = &cp
	}
	for i, t := range d.txns {
		cp := *t
		c.txns[i] = &cp
	}
	for id, s := range d.rideSeq {
		c.rideSeq[id] = s
	}
	return c
}

// MockStore is an in-memory repository.Store. A transaction holds the store
// mutex from Begin until Commit or Rollback, so concurrent transactions
// serialize the way row locks serialize them in PostgreSQL. Rollback
// restores the snapshot taken at Begin.
type MockStore struct {
	mu   sync.Mutex
	data *memData
	seq  int64

	// Counters for verification
	BeginCallCount    int32
	CommitCallCount   int32
	RollbackCallCount int32

	// Error injection
	BeginError        error
	CommitError       error
	UpdateRideError   error
	UpdateWalletError error
	CreateTxnError    error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		data: &memData{
			users:   make(map[string]*domain.User),
			drivers: make(map[string]*domain.DriverProfile),
			rides:   make(map[string]*domain.Ride),
			rideSeq: make(map[string]int64),
		},
	}
}

// AddUser seeds a user.
func (s *MockStore) AddUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.data.users[user.ID] = &cp
}

// AddDriver seeds a driver profile.
func (s *MockStore) AddDriver(profile *domain.DriverProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.data.drivers[profile.UserID] = &cp
}

// AddRide seeds a ride.
func (s *MockStore) AddRide(ride *domain.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	cp := *ride
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.data.rides[ride.ID] = &cp
	s.data.rideSeq[ride.ID] = s.seq
}

// User returns the stored user for assertions.
func (s *MockStore) User(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.data.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// Driver returns the stored driver profile for assertions.
func (s *MockStore) Driver(userID string) *domain.DriverProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.data.drivers[userID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// Ride returns the stored ride for assertions.
func (s *MockStore) Ride(id string) *domain.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.data.rides[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

// TransactionsFor returns the stored ledger entries of a user, oldest first.
func (s *MockStore) TransactionsFor(userID string) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range s.data.txns {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (s *MockStore) Users() repository.UserRepository {
	return &mockUserRepo{store: s, locked: false}
}

func (s *MockStore) Drivers() repository.DriverProfileRepository {
	return &mockDriverRepo{store: s, locked: false}
}

func (s *MockStore) Rides() repository.RideRepository {
	return &mockRideRepo{store: s, locked: false}
}

func (s *MockStore) Transactions() repository.TransactionRepository {
	return &mockTxnRepo{store: s, locked: false}
}

// Begin takes the store mutex and snapshots the state. The mutex stays held
// until Commit or Rollback, blocking other transactions and store-level
// writes, which is how concurrent transitions on the same ride serialize.
func (s *MockStore) Begin(ctx context.Context) (repository.Tx, error) {
	atomic.AddInt32(&s.BeginCallCount, 1)
	if s.BeginError != nil {
		return nil, s.BeginError
	}
	s.mu.Lock()
	return &mockTx{store: s, snapshot: s.data.clone()}, nil
}

var _ repository.Store = (*MockStore)(nil)

// mockTx is an open transaction against a MockStore.
type mockTx struct {
	store    *MockStore
	snapshot *memData
	done     bool
}

func (t *mockTx) Users() repository.UserRepository {
	return &mockUserRepo{store: t.store, locked: true}
}

func (t *mockTx) Drivers() repository.DriverProfileRepository {
	return &mockDriverRepo{store: t.store, locked: true}
}

func (t *mockTx) Rides() repository.RideRepository {
	return &mockRideRepo{store: t.store, locked: true}
}

func (t *mockTx) Transactions() repository.TransactionRepository {
	return &mockTxnRepo{store: t.store, locked: true}
}

func (t *mockTx) Commit() error {
	if t.done {
		return nil
	}
	atomic.AddInt32(&t.store.CommitCallCount, 1)
	if t.store.CommitError != nil {
		err := t.store.CommitError
		t.store.data = t.snapshot
		t.done = true
		t.store.mu.Unlock()
		return err
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *mockTx) Rollback() error {
	if t.done {
		return nil
	}
	atomic.AddInt32(&t.store.RollbackCallCount, 1)
	t.store.data = t.snapshot
	t.done = true
	t.store.mu.Unlock()
	return nil
}

var _ repository.Tx = (*mockTx)(nil)

// lock takes the store mutex for store-level access. Inside a transaction
// the mutex is already held, so transaction-scoped repos skip it.
func lock(s *MockStore, locked bool) func() {
	if locked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ──────────────────────────────────────────────
// REPOSITORY VIEWS
// ──────────────────────────────────────────────

type mockUserRepo struct {
	store  *MockStore
	locked bool
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	defer lock(m.store, m.locked)()
	for _, u := range m.store.data.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	m.store.data.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer lock(m.store, m.locked)()
	u, ok := m.store.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer lock(m.store, m.locked)()
	for _, u := range m.store.data.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetPlatformAccount(ctx context.Context) (*domain.User, error) {
	defer lock(m.store, m.locked)()
	var platform *domain.User
	for _, u := range m.store.data.users {
		if u.Role != domain.RoleAdmin {
			continue
		}
		if platform == nil || u.CreatedAt.Before(platform.CreatedAt) {
			platform = u
		}
	}
	if platform == nil {
		return nil, repository.ErrNotFound
	}
	cp := *platform
	return &cp, nil
}

func (m *mockUserRepo) UpdateWalletBalance(ctx context.Context, id string, balance float64) error {
	if m.store.UpdateWalletError != nil {
		return m.store.UpdateWalletError
	}
	defer lock(m.store, m.locked)()
	u, ok := m.store.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.WalletBalance = balance
	return nil
}

type mockDriverRepo struct {
	store  *MockStore
	locked bool
}

func (m *mockDriverRepo) Create(ctx context.Context, profile *domain.DriverProfile) error {
	defer lock(m.store, m.locked)()
	cp := *profile
	m.store.data.drivers[profile.UserID] = &cp
	return nil
}

func (m *mockDriverRepo) GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	defer lock(m.store, m.locked)()
	p, ok := m.store.data.drivers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockDriverRepo) GetForUpdate(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	return m.GetByUserID(ctx, userID)
}

func (m *mockDriverRepo) UpdateAvailability(ctx context.Context, userID string, available bool) error {
	defer lock(m.store, m.locked)()
	p, ok := m.store.data.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsAvailable = available
	return nil
}

func (m *mockDriverRepo) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	defer lock(m.store, m.locked)()
	p, ok := m.store.data.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CurrentLat = &lat
	p.CurrentLng = &lng
	return nil
}

func (m *mockDriverRepo) UpdateStats(ctx context.Context, userID string, rating float64, totalRides int) error {
	defer lock(m.store, m.locked)()
	p, ok := m.store.data.drivers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Rating = rating
	p.TotalRides = totalRides
	return nil
}

type mockRideRepo struct {
	store  *MockStore
	locked bool
}

func (m *mockRideRepo) Create(ctx context.Context, ride *domain.Ride) error {
	defer lock(m.store, m.locked)()
	m.store.seq++
	cp := *ride
	m.store.data.rides[ride.ID] = &cp
	m.store.data.rideSeq[ride.ID] = m.store.seq
	return nil
}

func (m *mockRideRepo) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	defer lock(m.store, m.locked)()
	r, ok := m.store.data.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRideRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRideRepo) Update(ctx context.Context, ride *domain.Ride) error {
	if m.store.UpdateRideError != nil {
		return m.store.UpdateRideError
	}
	defer lock(m.store, m.locked)()
	if _, ok := m.store.data.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *ride
	m.store.data.rides[ride.ID] = &cp
	return nil
}

func (m *mockRideRepo) ListByRider(ctx context.Context, riderID string, status domain.RideStatus) ([]*domain.Ride, error) {
	defer lock(m.store, m.locked)()
	return m.list(func(r *domain.Ride) bool {
		return r.RiderID == riderID && (status == "" || r.Status == status)
	}, false), nil
}

func (m *mockRideRepo) ListByDriver(ctx context.Context, driverID string, status domain.RideStatus) ([]*domain.Ride, error) {
	defer lock(m.store, m.locked)()
	return m.list(func(r *domain.Ride) bool {
		return r.DriverID == driverID && (status == "" || r.Status == status)
	}, false), nil
}

func (m *mockRideRepo) ListPending(ctx context.Context) ([]*domain.Ride, error) {
	defer lock(m.store, m.locked)()
	now := time.Now()
	return m.list(func(r *domain.Ride) bool {
		if r.Status != domain.RideStatusPending {
			return false
		}
		return r.ScheduledTime == nil || !r.ScheduledTime.After(now)
	}, true), nil
}

func (m *mockRideRepo) GetActiveByDriver(ctx context.Context, driverID string) (*domain.Ride, error) {
	defer lock(m.store, m.locked)()
	for _, r := range m.store.data.rides {
		if r.DriverID != driverID {
			continue
		}
		if r.Status == domain.RideStatusAccepted || r.Status == domain.RideStatusInProgress {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRideRepo) AverageRatingByDriver(ctx context.Context, driverID string) (float64, int, error) {
	defer lock(m.store, m.locked)()
	var sum, count int
	for _, r := range m.store.data.rides {
		if r.DriverID == driverID && r.Rating != nil {
			sum += *r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// list must be called with the store locked.
func (m *mockRideRepo) list(match func(*domain.Ride) bool, oldestFirst bool) []*domain.Ride {
	out := make([]*domain.Ride, 0)
	for _, r := range m.store.data.rides {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si := m.store.data.rideSeq[out[i].ID]
		sj := m.store.data.rideSeq[out[j].ID]
		if oldestFirst {
			return si < sj
		}
		return si > sj
	})
	return out
}

type mockTxnRepo struct {
	store  *MockStore
	locked bool
}

func (m *mockTxnRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	if m.store.CreateTxnError != nil {
		return m.store.CreateTxnError
	}
	defer lock(m.store, m.locked)()
	cp := *txn
	m.store.data.txns = append(m.store.data.txns, &cp)
	return nil
}

func (m *mockTxnRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	defer lock(m.store, m.locked)()
	if limit <= 0 {
		limit = 50
	}
	var out []*domain.Transaction
	for i := len(m.store.data.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.store.data.txns[i].UserID == userID {
			cp := *m.store.data.txns[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory redis.LocationStoreInterface backed by
// a map and great-circle distance math.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string][2]float64 // driver id -> lat, lng

	FindError error
}

// NewMockLocationStore creates an empty MockLocationStore.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[string][2]float64)}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []redis.DriverLocation
	for id, pos := range m.locations {
		dist := service.Haversine(lat, lng, pos[0], pos[1])
		if dist <= radiusKm {
			out = append(out, redis.DriverLocation{
				DriverID:   id,
				Lat:        pos[0],
				Lng:        pos[1],
				DistanceKm: dist,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// Has reports whether a driver is in the geo index.
func (m *MockLocationStore) Has(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[driverID]
	return ok
}

var _ redis.LocationStoreInterface = (*MockLocationStore)(nil)

// MockLockStore is an in-memory redis.LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
	// AcquireHook runs before each acquire, letting tests interleave
	// state changes between a caller's reads and its lock.
	AcquireHook func()
}

// NewMockLockStore creates an empty MockLockStore.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("driver:" + driverID)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return m.release("driver:" + driverID)
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	return m.acquire("ride:" + rideID)
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	return m.release("ride:" + rideID)
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	if m.AcquireHook != nil {
		m.AcquireHook()
	}
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// NotifiedEvent is one recorded notification.
type NotifiedEvent struct {
	UserID string // empty for broadcasts
	Event  string
	Data   interface{}
}

// MockNotifier records notifications for assertions.
type MockNotifier struct {
	mu     sync.Mutex
	events []NotifiedEvent
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyUser(userID, event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, NotifiedEvent{UserID: userID, Event: event, Data: data})
}

func (m *MockNotifier) BroadcastAll(event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, NotifiedEvent{Event: event, Data: data})
}

// Events returns a copy of the recorded notifications.
func (m *MockNotifier) Events() []NotifiedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotifiedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventsFor returns the notifications sent to one user.
func (m *MockNotifier) EventsFor(userID string) []NotifiedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []NotifiedEvent
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

var _ service.Notifier = (*MockNotifier)(nil)
