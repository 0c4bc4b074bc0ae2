package services

import (
	"context"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage"
)

// Ports the services depend on. *storage.SQLiteRepository implements all of
// the storage ones, *amqp.Client implements EventPublisher.
type (
	FamilyReader interface {
		ListFamilyMembers(ctx context.Context, familyID int64) ([]core.User, error)
	}

	TransactionStore interface {
		FamilyReader
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, familyID, id int64) error
	}

	DashboardStore interface {
		FamilyReader
		ListFamilyTransactions(ctx context.Context, familyID int64, from, to core.Date) ([]core.Transaction, error)
		ListFamilySubscriptions(ctx context.Context, familyID int64) ([]core.Subscription, error)
		ListFamilyProfiles(ctx context.Context, familyID int64) ([]core.FinancialProfile, error)
		ListFamilyGoals(ctx context.Context, familyID int64) ([]core.Goal, error)
	}

	SubscriptionStore interface {
		DueSubscriptions(ctx context.Context, asOf core.Date) ([]core.Subscription, error)
		SetNextDueDate(ctx context.Context, id int64, next core.Date) error
	}

	ExportStore interface {
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		ExportStatus(ctx context.Context, id int64) (string, error)
		PendingExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
		MarkExported(ctx context.Context, id int64) error
		MarkExportError(ctx context.Context, id int64) error
	}

	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	}

	// Invalidator drops cached views of a family after its data changed.
	Invalidator interface {
		Invalidate(familyID int64)
	}
)
