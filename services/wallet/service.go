package wallet

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"engage-controlplane/pkg/db/option"
	"engage-controlplane/pkg/errutil"
	"engage-controlplane/pkg/repository"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	wallets repository.Repository[Wallet]
	entries repository.Repository[LedgerEntry]
	payouts repository.Repository[PayoutRecord]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		wallets: repository.ProvideStore[Wallet](p.DB),
		entries: repository.ProvideStore[LedgerEntry](p.DB),
		payouts: repository.ProvideStore[PayoutRecord](p.DB),
	}
}

// EnsureWallet returns the owner's wallet, creating an empty one on first use.
func (s *Service) EnsureWallet(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error) {
	if ownerID == "" {
		return nil, errutil.BadRequest("ownerId is required")
	}

	w, err := s.wallets.FindOne(ctx, &Wallet{OwnerType: ownerType, OwnerID: ownerID})
	if err != nil {
		return nil, errutil.Internal("failed to query wallet", errutil.WithErr(err))
	}
	if w != nil {
		return w, nil
	}

	w = &Wallet{
		ID:        s.node.Generate().String(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return nil, errutil.Internal("failed to create wallet", errutil.WithErr(err))
	}
	return w, nil
}

func (s *Service) GetWallet(ctx context.Context, id string) (*Wallet, error) {
	w, err := s.wallets.FindOne(ctx, &Wallet{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query wallet", errutil.WithErr(err))
	}
	if w == nil {
		return nil, errutil.NotFound("wallet not found")
	}
	return w, nil
}

func (s *Service) GetWalletForOwner(ctx context.Context, ownerType OwnerType, ownerID string) (*Wallet, error) {
	w, err := s.wallets.FindOne(ctx, &Wallet{OwnerType: ownerType, OwnerID: ownerID})
	if err != nil {
		return nil, errutil.Internal("failed to query wallet", errutil.WithErr(err))
	}
	if w == nil {
		return nil, errutil.NotFound("wallet not found")
	}
	return w, nil
}

func (s *Service) ListEntries(ctx context.Context, walletID string) ([]*LedgerEntry, error) {
	items, err := s.entries.Find(ctx, &LedgerEntry{WalletID: walletID}, option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "ASC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query ledger entries", errutil.WithErr(err))
	}
	return items, nil
}

type MovementInput struct {
	WalletID    string
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	Metadata    map[string]string
}

// Credit appends a credit entry and raises the balance in one transaction.
func (s *Service) Credit(ctx context.Context, in MovementInput) (*LedgerEntry, error) {
	var entry *LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.CreditInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditInTx is the transactional core of Credit, exposed so a distribution
// can append many credits atomically within its own transaction.
func (s *Service) CreditInTx(ctx context.Context, tx *gorm.DB, in MovementInput) (*LedgerEntry, error) {
	if !in.Amount.IsPositive() {
		return nil, errutil.BadRequest("credit amount must be positive")
	}
	return s.appendEntry(ctx, tx, EntryTypeCredit, in)
}

// Debit appends a debit entry, refusing to take the balance below zero.
func (s *Service) Debit(ctx context.Context, in MovementInput) (*LedgerEntry, error) {
	if !in.Amount.IsPositive() {
		return nil, errutil.BadRequest("debit amount must be positive")
	}

	var entry *LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.appendEntry(ctx, tx, EntryTypeDebit, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) appendEntry(ctx context.Context, tx *gorm.DB, entryType EntryType, in MovementInput) (*LedgerEntry, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("wallet_id", in.WalletID),
	}

	w, err := s.wallets.WithTrx(tx).FindOne(ctx, &Wallet{ID: in.WalletID}, option.WithLockingUpdate())
	if err != nil {
		return nil, errutil.Internal("failed to query wallet", errutil.WithErr(err))
	}
	if w == nil {
		return nil, errutil.NotFound("wallet not found")
	}

	if entryType == EntryTypeDebit && w.Balance.LessThan(in.Amount) {
		return nil, errutil.UnprocessableEntity("insufficient balance")
	}

	lastEntry, err := s.getLastEntry(ctx, tx, in.WalletID)
	if err != nil {
		return nil, errutil.Internal("failed to query ledger chain", errutil.WithErr(err))
	}
	previousHash := "GENESIS"
	if lastEntry != nil {
		previousHash = lastEntry.Hash
	}

	transactionID, err := GenerateTransactionID()
	if err != nil {
		zap.L().With(opts...).Error("failed to generate transactionId", zap.Error(err))
		return nil, errutil.Internal("failed to generate transactionId", errutil.WithErr(err))
	}

	var meta datatypes.JSON
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, errutil.Internal("failed to encode metadata", errutil.WithErr(err))
		}
		meta = datatypes.JSON(raw)
	}

	entry := NewLedgerEntry(EntryParams{
		EntryID:       s.node.Generate().String(),
		WalletID:      w.ID,
		Type:          entryType,
		Amount:        in.Amount,
		TransactionID: transactionID,
		ReferenceID:   in.ReferenceID,
		Description:   in.Description,
		PreviousHash:  previousHash,
		Metadata:      meta,
	})
	entry.Hash = entry.GenerateHash()

	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}

	newBalance := w.Balance.Add(in.Amount)
	if entryType == EntryTypeDebit {
		newBalance = w.Balance.Sub(in.Amount)
	}
	if err := tx.Model(&Wallet{}).Where("id = ?", w.ID).Update("balance", newBalance).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) getLastEntry(ctx context.Context, tx *gorm.DB, walletID string) (*LedgerEntry, error) {
	return s.entries.WithTrx(tx).FindOne(ctx, &LedgerEntry{WalletID: walletID}, option.WithSortBy(
		option.QuerySortBy{
			SortBy:  "id",
			OrderBy: "desc",
			Allow: map[string]bool{
				"id": true,
			},
		},
	), option.WithLockingUpdate())
}

// VerifyChain replays a wallet's ledger in insertion order and reports the
// first entry whose stored hash no longer matches its recomputed one.
func (s *Service) VerifyChain(ctx context.Context, walletID string) (bool, string, error) {
	items, err := s.ListEntries(ctx, walletID)
	if err != nil {
		return false, "", err
	}

	previous := "GENESIS"
	for _, entry := range items {
		if entry.PreviousHash != previous {
			return false, entry.ID, nil
		}
		if entry.GenerateHash() != entry.Hash {
			return false, entry.ID, nil
		}
		previous = entry.Hash
	}
	return true, "", nil
}

// RecordPayout writes the post-commit distribution receipt under the receipt
// ID the distribution stamped on its ledger entries.
func (s *Service) RecordPayout(ctx context.Context, receiptID, campaignID string, payouts map[string]decimal.Decimal, rejectedIDs []string) (*PayoutRecord, error) {
	rawPayouts, err := json.Marshal(payouts)
	if err != nil {
		return nil, errutil.Internal("failed to encode payouts", errutil.WithErr(err))
	}
	rawRejected, err := json.Marshal(rejectedIDs)
	if err != nil {
		return nil, errutil.Internal("failed to encode rejected ids", errutil.WithErr(err))
	}

	total := decimal.Zero
	for _, amount := range payouts {
		total = total.Add(amount)
	}

	if receiptID == "" {
		receiptID = uuid.NewString()
	}

	record := &PayoutRecord{
		ID:             receiptID,
		CampaignID:     campaignID,
		Payouts:        datatypes.JSON(rawPayouts),
		RejectedIDs:    datatypes.JSON(rawRejected),
		TotalDelivered: total,
	}
	if err := s.payouts.Create(ctx, record); err != nil {
		return nil, errutil.Internal("failed to record payout", errutil.WithErr(err))
	}
	return record, nil
}

func (s *Service) GetPayout(ctx context.Context, receiptID string) (*PayoutRecord, error) {
	record, err := s.payouts.FindOne(ctx, &PayoutRecord{ID: receiptID})
	if err != nil {
		return nil, errutil.Internal("failed to query payout record", errutil.WithErr(err))
	}
	if record == nil {
		return nil, errutil.NotFound("payout record not found")
	}
	return record, nil
}

func (s *Service) ListPayouts(ctx context.Context, campaignID string) ([]*PayoutRecord, error) {
	items, err := s.payouts.Find(ctx, &PayoutRecord{CampaignID: campaignID}, option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "DESC"}))
	if err != nil {
		return nil, errutil.Internal("failed to query payout records", errutil.WithErr(err))
	}
	return items, nil
}
