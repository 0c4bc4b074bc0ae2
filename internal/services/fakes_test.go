package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage"
)

// fakeStore is an in-memory implementation of every storage port.
type fakeStore struct {
	mu            sync.Mutex
	users         map[int64]core.User
	transactions  map[int64]core.Transaction
	exportStatus  map[int64]string
	subscriptions []core.Subscription
	profiles      []core.FinancialProfile
	goals         []core.Goal
	nextDue       map[int64]core.Date
	nextID        int64

	listCalls int
	onList    func()
	failList  error
	failSave  error
}

func newFakeStore(users ...core.User) *fakeStore {
	s := &fakeStore{
		users:        make(map[int64]core.User),
		transactions: make(map[int64]core.Transaction),
		exportStatus: make(map[int64]string),
		nextDue:      make(map[int64]core.Date),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) ListFamilyMembers(_ context.Context, familyID int64) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.User
	for _, u := range s.users {
		if u.FamilyID == familyID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return core.Transaction{}, s.failSave
	}
	s.nextID++
	t.ID = s.nextID
	s.transactions[t.ID] = t
	s.exportStatus[t.ID] = storage.ExportPending
	return t, nil
}

func (s *fakeStore) DeleteTransaction(_ context.Context, familyID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || s.users[t.UserID].FamilyID != familyID {
		return storage.ErrNotFound
	}
	delete(s.transactions, id)
	delete(s.exportStatus, id)
	return nil
}

func (s *fakeStore) ListFamilyTransactions(_ context.Context, familyID int64, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.onList != nil {
		s.onList()
	}
	if s.failList != nil {
		return nil, s.failList
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if s.users[t.UserID].FamilyID != familyID {
			continue
		}
		if t.Date.Time.Before(from.Time) || t.Date.Time.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListFamilySubscriptions(context.Context, int64) ([]core.Subscription, error) {
	return s.subscriptions, nil
}

func (s *fakeStore) ListFamilyProfiles(context.Context, int64) ([]core.FinancialProfile, error) {
	return s.profiles, nil
}

func (s *fakeStore) ListFamilyGoals(context.Context, int64) ([]core.Goal, error) {
	return s.goals, nil
}

func (s *fakeStore) DueSubscriptions(_ context.Context, asOf core.Date) ([]core.Subscription, error) {
	var out []core.Subscription
	for _, sub := range s.subscriptions {
		if sub.Active && sub.Recurring && sub.EffectiveDueDate().Time.Before(asOf.Time) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *fakeStore) SetNextDueDate(_ context.Context, id int64, next core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subscriptions {
		if s.subscriptions[i].ID == id {
			s.nextDue[id] = next
			s.subscriptions[i].NextDueDate = next
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (core.User, error) {
	u, ok := s.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) ExportStatus(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.exportStatus[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	return st, nil
}

func (s *fakeStore) PendingExports(_ context.Context, limit int) ([]storage.PendingExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.PendingExport
	for id, st := range s.exportStatus {
		if st == storage.ExportPending {
			out = append(out, storage.PendingExport{ID: id})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkExported(_ context.Context, id int64) error {
	return s.setStatus(id, storage.ExportDone)
}

func (s *fakeStore) MarkExportError(_ context.Context, id int64) error {
	return s.setStatus(id, storage.ExportFailed)
}

func (s *fakeStore) setStatus(id int64, st string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exportStatus[id]; !ok {
		return storage.ErrNotFound
	}
	s.exportStatus[id] = st
	return nil
}

func (s *fakeStore) status(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportStatus[id]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	fail   bool
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeInvalidator struct {
	families []int64
}

func (f *fakeInvalidator) Invalidate(familyID int64) {
	f.families = append(f.families, familyID)
}
