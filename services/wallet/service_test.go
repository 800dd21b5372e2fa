package wallet

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"engage-controlplane/pkg/errutil"
	"engage-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Wallet{}, &LedgerEntry{}, &PayoutRecord{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestEnsureWalletIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	w1, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	w2, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)
	require.Equal(t, w1.ID, w2.ID)
}

func TestCreditRaisesBalanceAndChainsEntries(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	first, err := svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("10.5"), ReferenceID: "ref-1"})
	require.NoError(t, err)
	require.Equal(t, "GENESIS", first.PreviousHash)
	require.NotEmpty(t, first.Hash)

	second, err := svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("4.5"), ReferenceID: "ref-2"})
	require.NoError(t, err)
	require.Equal(t, first.Hash, second.PreviousHash)

	fresh, err := svc.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, fresh.Balance.Equal(dec("15")))
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: decimal.Zero})
	require.Error(t, err)

	_, err = svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("-1")})
	require.Error(t, err)
}

func TestDebitRefusesOverdraft(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("5")})
	require.NoError(t, err)

	_, err = svc.Debit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("6")})
	require.Error(t, err)

	base, ok := err.(errutil.BaseError)
	require.True(t, ok)
	require.Equal(t, errutil.StatusUnprocessableEntity, base.Code)

	fresh, err := svc.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, fresh.Balance.Equal(dec("5")))
}

func TestDebitLowersBalance(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("10")})
	require.NoError(t, err)

	entry, err := svc.Debit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("3"), Description: "manual adjustment"})
	require.NoError(t, err)
	require.Equal(t, EntryTypeDebit, entry.Type)

	fresh, err := svc.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, fresh.Balance.Equal(dec("7")))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	svc := newTestService(t)

	w, err := svc.EnsureWallet(context.Background(), OwnerTypeUser, "user-1")
	require.NoError(t, err)

	_, err = svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("10")})
	require.NoError(t, err)
	tampered, err := svc.Credit(context.Background(), MovementInput{WalletID: w.ID, Amount: dec("20")})
	require.NoError(t, err)

	ok, _, err := svc.VerifyChain(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, ok)

	err = svc.db.Model(&LedgerEntry{}).Where("id = ?", tampered.ID).Update("amount", dec("999")).Error
	require.NoError(t, err)

	ok, brokenAt, err := svc.VerifyChain(context.Background(), w.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, tampered.ID, brokenAt)
}

func TestRecordPayoutTotalsDeliveredValue(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.RecordPayout(context.Background(), "", "camp-1", map[string]decimal.Decimal{
		"p1": dec("10"),
		"p2": dec("2.5"),
	}, []string{"p3"})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.True(t, record.TotalDelivered.Equal(dec("12.5")))

	fetched, err := svc.GetPayout(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "camp-1", fetched.CampaignID)
}
