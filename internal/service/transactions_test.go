package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

func keys(txns []models.Transaction) []string {
	out := make([]string, len(txns))
	for i, tx := range txns {
		out[i] = tx.Date.Format(models.DateLayout)
		if tx.IsVirtual {
			out[i] += " virtual"
		}
	}
	return out
}

func TestListTransactionsMergesVirtualRows(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	_, err = f.svc.CreateTransaction(ctx, user, TransactionInput{
		Date:   date("2024-03-10"),
		Note:   "Groceries",
		Amount: decimal.RequireFromString("-82.40"),
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{
			name: "past and future",
			from: "2024-02-15", to: "2024-05-31",
			want: []string{"2024-05-01 virtual", "2024-04-01 virtual", "2024-03-10", "2024-03-01"},
		},
		{
			name: "past only has no virtual rows",
			from: "2024-03-01", to: "2024-03-31",
			want: []string{"2024-03-10", "2024-03-01"},
		},
		{
			name: "future window starting on an occurrence includes it",
			from: "2024-04-01", to: "2024-04-30",
			want: []string{"2024-04-01 virtual"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListTransactions(ctx, user, date(tt.from), date(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(got))
		})
	}

	_, err = f.svc.ListTransactions(ctx, user, date("2024-05-01"), date("2024-04-01"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMaterialize(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	id := rule.RecurringTransactionID
	virtualID := recurrence.VirtualID(id, date("2024-05-01"))
	projected := recurrence.Virtual(rule, date("2024-05-01"))

	tx, err := f.svc.Materialize(ctx, user, virtualID, TransactionPatch{})
	require.NoError(t, err)

	assert.Positive(t, tx.TransactionID)
	assert.Equal(t, projected.Date, tx.Date)
	assert.Equal(t, projected.Note, tx.Note)
	assert.True(t, projected.Amount.Equal(tx.Amount))
	assert.Equal(t, projected.CategoryID, tx.CategoryID)
	assert.False(t, tx.IsVirtual)
	assert.Nil(t, tx.RecurringTransactionID)

	got, err := f.svc.ListTransactions(ctx, user, date("2024-04-15"), date("2024-06-15"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01 virtual", "2024-05-01"}, keys(got))

	_, err = f.svc.Materialize(ctx, user, virtualID, TransactionPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound, "materializing twice")

	_, err = f.svc.Materialize(ctx, user, recurrence.VirtualID(id, date("2024-05-02")), TransactionPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound, "date off the schedule")

	_, err = f.svc.Materialize(ctx, user, "virtual-x-2024-05-01", TransactionPatch{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMaterializeRejectsBackfilledDates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)

	for _, day := range []string{"2024-02-01", "2024-03-01"} {
		_, err = f.svc.Materialize(ctx, user, recurrence.VirtualID(rule.RecurringTransactionID, date(day)), TransactionPatch{})
		assert.ErrorIs(t, err, common.ErrNotFound, day)

		got, err := f.svc.ListTransactions(ctx, user, date(day), date(day))
		require.NoError(t, err)
		assert.Equal(t, []string{day}, keys(got), day)
	}
}

func TestUpdateTransactionVirtualAppliesEdits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)

	amount := decimal.RequireFromString("-1250.00")
	note := "Rent incl. parking"
	tx, err := f.svc.UpdateTransaction(ctx, user, recurrence.VirtualID(rule.RecurringTransactionID, date("2024-04-01")),
		TransactionPatch{Amount: &amount, Note: &note})
	require.NoError(t, err)

	assert.True(t, tx.Amount.Equal(amount))
	assert.Equal(t, note, tx.Note)
	assert.Equal(t, date("2024-04-01"), tx.Date)
	assert.Nil(t, tx.RecurringTransactionID)
}

func TestUpdateTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tx, err := f.svc.CreateTransaction(ctx, user, TransactionInput{
		Date:   date("2024-03-10"),
		Note:   " Coffee ",
		Amount: decimal.RequireFromString("-4.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Coffee", tx.Note)

	newDate := date("2024-03-11")
	updated, err := f.svc.UpdateTransaction(ctx, user, "1", TransactionPatch{Date: &newDate, CategoryID: ptr[int64](3)})
	require.NoError(t, err)
	assert.Equal(t, newDate, updated.Date)
	assert.Equal(t, int64(3), *updated.CategoryID)
	assert.Equal(t, "Coffee", f.transactions.rows[tx.TransactionID].Note)

	_, err = f.svc.UpdateTransaction(ctx, user, "abc", TransactionPatch{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.UpdateTransaction(ctx, user, "42", TransactionPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateTransaction(ctx, user, TransactionInput{Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.CreateTransaction(ctx, user, TransactionInput{Date: date("2024-03-10")})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDeleteTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rule, _, err := f.svc.CreateRecurring(ctx, user, rentInput())
	require.NoError(t, err)
	one, err := f.svc.CreateTransaction(ctx, user, TransactionInput{Date: date("2024-03-10"), Amount: decimal.NewFromInt(-5)})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTransaction(ctx, user, "4"))
	assert.NotContains(t, f.transactions.rows, one.TransactionID)
	assert.Empty(t, f.recurring.exceptions)

	virtualID := recurrence.VirtualID(rule.RecurringTransactionID, date("2024-04-01"))
	require.NoError(t, f.svc.DeleteTransaction(ctx, user, virtualID))

	got, err := f.svc.ListTransactions(ctx, user, date("2024-03-20"), date("2024-05-31"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01 virtual"}, keys(got))

	assert.ErrorIs(t, f.svc.DeleteTransaction(ctx, user, "99"), common.ErrNotFound)
}

func TestSharedAccountRoles(t *testing.T) {
	account := uuid.MustParse("6f1c1f8e-6c1a-4a53-9a2e-3c1c2f0f4b11")
	ctx := context.Background()

	tests := []struct {
		name    string
		role    models.AccountRole
		wantErr error
	}{
		{name: "owner", role: models.AccountRoleOwner},
		{name: "editor", role: models.AccountRoleEditor},
		{name: "viewer", role: models.AccountRoleViewer, wantErr: common.ErrForbidden},
		{name: "not a member", wantErr: common.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.role != "" {
				f.members.members = append(f.members.members, &models.AccountMember{AccountID: account, UserID: user, Role: tt.role})
			}

			_, err := f.svc.CreateTransaction(ctx, user, TransactionInput{
				Date:      date("2024-03-10"),
				Amount:    decimal.NewFromInt(-20),
				AccountID: &account,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.transactions.rows)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSearchTransactions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, note := range []string{"Coffee beans", "Rent", "coffee shop"} {
		_, err := f.svc.CreateTransaction(ctx, user, TransactionInput{
			Date:   date("2024-03-10"),
			Note:   note,
			Amount: decimal.NewFromInt(-5),
		})
		require.NoError(t, err)
	}

	found, err := f.svc.SearchTransactions(ctx, user, " coffee ", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = f.svc.SearchTransactions(ctx, user, "  ", 10)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
