package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"carteira/internal/amqp"
	"carteira/internal/core"
)

// ErrNotFamilyMember is returned when a transaction targets a user outside
// the caller's family.
var ErrNotFamilyMember = errors.New("user is not a member of this family")

// TransactionService writes transactions to storage and then announces them
// on AMQP. Storage is the source of truth: publish failures are logged and
// never fail the request.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	cache     Invalidator
}

// NewTransactionService wires the service. publisher and cache may be nil.
func NewTransactionService(store TransactionStore, publisher EventPublisher, cache Invalidator) *TransactionService {
	return &TransactionService{store: store, publisher: publisher, cache: cache}
}

// Create validates and stores t on behalf of caller. A zero t.UserID means the
// caller owns the transaction; any other owner must share the caller's family.
func (s *TransactionService) Create(ctx context.Context, caller core.User, t core.Transaction) (core.Transaction, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.CreatedByID = caller.ID
	if t.UserID == 0 {
		t.UserID = caller.ID
	}
	if t.Category == "" {
		t.Category = core.CategoryOther
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.Invalid(err)
	}
	if t.UserID != caller.ID {
		if err := s.checkMember(ctx, caller.FamilyID, t.UserID); err != nil {
			return core.Transaction{}, err
		}
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(caller.FamilyID)
	s.publish(ctx, amqp.EventTransactionCreated, saved.ID, caller.FamilyID)
	return saved, nil
}

// Delete removes a transaction of the caller's family.
func (s *TransactionService) Delete(ctx context.Context, caller core.User, id int64) error {
	if err := s.store.DeleteTransaction(ctx, caller.FamilyID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(caller.FamilyID)
	s.publish(ctx, amqp.EventTransactionDeleted, id, caller.FamilyID)
	return nil
}

func (s *TransactionService) checkMember(ctx context.Context, familyID, userID int64) error {
	members, err := s.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return fmt.Errorf("list family members: %w", err)
	}
	for _, m := range members {
		if m.ID == userID {
			return nil
		}
	}
	return ErrNotFamilyMember
}

func (s *TransactionService) invalidate(familyID int64) {
	if s.cache != nil {
		s.cache.Invalidate(familyID)
	}
}

func (s *TransactionService) publish(ctx context.Context, event string, id, familyID int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "event", event, "transaction_id", id)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(event, id, familyID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event", event,
			"transaction_id", id,
			"error", err)
	}
}
