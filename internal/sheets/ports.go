package sheets

import (
	"context"

	"carteira/internal/core"
)

// Row is one exported transaction line.
type Row struct {
	TransactionID int64
	Date          core.Date
	Owner         string
	Name          string
	Type          core.TransactionType
	Category      core.Category
	Amount        core.Money
	PaymentMethod core.PaymentMethod
}

// Header is the column layout written by every exporter.
var Header = []string{"ID", "Data", "Membro", "Descrição", "Tipo", "Categoria", "Valor", "Forma de pagamento"}

// TransactionExporter appends transaction rows to an external spreadsheet.
type TransactionExporter interface {
	AppendTransaction(ctx context.Context, r Row) (rowRef string, err error)
}

// RowFromTransaction builds the export row of t owned by member.
func RowFromTransaction(t core.Transaction, owner core.User) Row {
	return Row{
		TransactionID: t.ID,
		Date:          t.Date,
		Owner:         owner.Name,
		Name:          t.Name,
		Type:          t.Type,
		Category:      t.Category,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
	}
}

// Values renders the row in Header order. Expenses and investments are
// negative so a plain SUM over the amount column gives the balance.
func (r Row) Values() []any {
	amount := r.Amount
	if r.Type != core.Deposit {
		amount = core.Money{Cents: -amount.Cents}
	}
	return []any{
		r.TransactionID,
		r.Date.String(),
		r.Owner,
		r.Name,
		string(r.Type),
		string(r.Category),
		amount.String(),
		string(r.PaymentMethod),
	}
}
