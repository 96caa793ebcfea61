package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/pkg/membership"
)

// fakeStore is an in-memory ClientRepository, RenewalRepository and
// TxRunner. A failed transaction restores the state it started from.
type fakeStore struct {
	mu            sync.Mutex
	clients       map[int64]models.Client
	renewals      []models.RenewalRecord
	nextClientID  int64
	nextRenewalID int64

	failCreateRenewal    error
	failUpdateMembership error
	deleteDuringLock     bool

	lastFilters models.ClientFilters
	txCount     int
	rollbacks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{clients: map[int64]models.Client{}, nextClientID: 1, nextRenewalID: 1}
}

func (f *fakeStore) addClient(c models.Client) models.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		c.ID = f.nextClientID
	}
	if c.ID >= f.nextClientID {
		f.nextClientID = c.ID + 1
	}
	if c.Role == "" {
		c.Role = models.RoleClient
	}
	f.clients[c.ID] = c
	return c
}

func (f *fakeStore) client(id int64) (models.Client, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	return c, ok
}

func (f *fakeStore) renewalsFor(id int64) []models.RenewalRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RenewalRecord
	for _, r := range f.renewals {
		if r.ClientID == id {
			out = append(out, r)
		}
	}
	return out
}

// --- TxRunner ---

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	f.mu.Lock()
	f.txCount++
	clients := make(map[int64]models.Client, len(f.clients))
	for k, v := range f.clients {
		clients[k] = v
	}
	renewals := append([]models.RenewalRecord(nil), f.renewals...)
	f.mu.Unlock()

	if err := fn(nil); err != nil {
		f.mu.Lock()
		f.clients = clients
		f.renewals = renewals
		f.rollbacks++
		f.mu.Unlock()
		return err
	}
	return nil
}

// --- ClientRepository ---

func (f *fakeStore) CreateClient(ctx context.Context, _ repositories.SQLExecutor, client *models.Client) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		if strings.EqualFold(c.Email, client.Email) {
			return 0, fmt.Errorf("%w: duplicate (constraint: clients_email_key)", repositories.ErrDuplicateKey)
		}
	}
	client.ID = f.nextClientID
	f.nextClientID++
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	f.clients[client.ID] = *client
	return client.ID, nil
}

func (f *fakeStore) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) LockClientByID(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteDuringLock {
		delete(f.clients, id)
	}
	c, ok := f.clients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) FindConflictingClient(ctx context.Context, rollNo *int64, email string, excludeID int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.clients))
	for id := range f.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c := f.clients[id]
		if id == excludeID {
			continue
		}
		if strings.EqualFold(c.Email, email) || (rollNo != nil && c.RollNo != nil && *c.RollNo == *rollNo) {
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStore) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilters = filters
	out := []models.Client{}
	for _, c := range f.clients {
		if !filters.EndFrom.IsZero() && c.MembershipEnd.Before(filters.EndFrom.Time) {
			continue
		}
		if !filters.EndTo.IsZero() && c.MembershipEnd.After(filters.EndTo.Time) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) ListClients(ctx context.Context) ([]models.Client, error) {
	clients, _, err := f.GetClients(ctx, models.ClientFilters{})
	return clients, err
}

func (f *fakeStore) UpdateClient(ctx context.Context, _ repositories.SQLExecutor, client *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[client.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.clients[client.ID] = *client
	return nil
}

func (f *fakeStore) UpdateMembership(ctx context.Context, _ repositories.SQLExecutor, id int64, window models.MembershipWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateMembership != nil {
		return f.failUpdateMembership
	}
	c, ok := f.clients[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.MembershipType = window.Type
	c.MembershipStart = window.Start
	c.MembershipEnd = window.End
	c.Status = window.Status
	f.clients[id] = c
	return nil
}

func (f *fakeStore) DeleteClient(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.clients, id)
	return nil
}

// --- RenewalRepository ---

func (f *fakeStore) CreateRenewal(ctx context.Context, _ repositories.SQLExecutor, record *models.RenewalRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateRenewal != nil {
		return 0, f.failCreateRenewal
	}
	record.ID = f.nextRenewalID
	f.nextRenewalID++
	f.renewals = append(f.renewals, *record)
	return record.ID, nil
}

func (f *fakeStore) GetRenewalsByClientID(ctx context.Context, clientID int64, limit int) ([]models.RenewalRecord, error) {
	records := f.renewalsFor(clientID)
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []models.RenewalRecord{}
	}
	return records, nil
}

func (f *fakeStore) GetRenewals(ctx context.Context, filters models.RenewalFilters) ([]models.RenewalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RenewalRecord{}
	for _, r := range f.renewals {
		if filters.StartDate != nil && r.RenewalDate.Before(filters.StartDate.Time) {
			continue
		}
		if filters.EndDate != nil && r.RenewalDate.After(filters.EndDate.Time) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) DeleteRenewalsByClientID(ctx context.Context, _ repositories.SQLExecutor, clientID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.renewals[:0:0]
	var deleted int64
	for _, r := range f.renewals {
		if r.ClientID == clientID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.renewals = kept
	return deleted, nil
}

func (f *fakeStore) SumRenewals(ctx context.Context, from, to membership.Date) (int, float64, error) {
	records, _ := f.GetRenewals(ctx, models.RenewalFilters{StartDate: &from, EndDate: &to})
	var total float64
	for _, r := range records {
		total += r.PricePaid
	}
	return len(records), total, nil
}

// --- Notifier ---

type sentReminder struct {
	Email    string
	Name     string
	DaysLeft int
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentReminder
	failOn map[string]error
}

func (n *fakeNotifier) SendMembershipReminder(ctx context.Context, email, name string, daysLeft int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failOn[email]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentReminder{Email: email, Name: name, DaysLeft: daysLeft})
	return nil
}

// --- AuthRepository ---

type fakeAuthRepo struct {
	admins map[string]fakeAdmin
	nextID int64
}

type fakeAdmin struct {
	admin models.Admin
	hash  string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{admins: map[string]fakeAdmin{}, nextID: 1}
}

func (r *fakeAuthRepo) CreateAdmin(ctx context.Context, _ repositories.SQLExecutor, admin *models.Admin, hashedPassword string) (int64, error) {
	if _, ok := r.admins[admin.Email]; ok {
		return 0, repositories.ErrDuplicateKey
	}
	admin.ID = r.nextID
	r.nextID++
	r.admins[admin.Email] = fakeAdmin{admin: *admin, hash: hashedPassword}
	return admin.ID, nil
}

func (r *fakeAuthRepo) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, string, error) {
	a, ok := r.admins[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, "", repositories.ErrNotFound
	}
	admin := a.admin
	return &admin, a.hash, nil
}

func (r *fakeAuthRepo) FindAdminByID(ctx context.Context, adminID int64) (*models.Admin, error) {
	for _, a := range r.admins {
		if a.admin.ID == adminID {
			admin := a.admin
			return &admin, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(s string) membership.Date {
	d, err := membership.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
