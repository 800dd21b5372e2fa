package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"engage-controlplane/pkg/util"
)

type OwnerType string

const (
	OwnerTypeUser OwnerType = "USER"
	OwnerTypeOrg  OwnerType = "ORG"
)

type Wallet struct {
	ID        string          `gorm:"column:id;primaryKey;type:char(26)"`
	OwnerType OwnerType       `gorm:"column:owner_type;type:varchar(10);not null;uniqueIndex:idx_wallet_owner"`
	OwnerID   string          `gorm:"column:owner_id;not null;uniqueIndex:idx_wallet_owner"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(32,12)"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// LedgerEntry is an append-only movement on a wallet. Each entry hashes its
// own fields plus the previous entry's hash, so the chain breaks if any row
// is edited after the fact.
type LedgerEntry struct {
	ID            string          `gorm:"column:id;primaryKey;type:char(26)"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	WalletID      string          `gorm:"column:wallet_id;index;not null"`
	Type          EntryType       `gorm:"column:type;type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(32,12)"`
	TransactionID string          `gorm:"column:transaction_id"`
	ReferenceID   string          `gorm:"column:reference_id;index"`
	Description   string          `gorm:"column:description"`
	PreviousHash  string          `gorm:"column:previous_hash"`
	Hash          string          `gorm:"column:hash"`
	Metadata      datatypes.JSON  `gorm:"column:metadata"`
}

type EntryParams struct {
	EntryID       string
	WalletID      string
	Type          EntryType
	Amount        decimal.Decimal
	TransactionID string
	ReferenceID   string
	Description   string
	PreviousHash  string
	Metadata      datatypes.JSON
}

func NewLedgerEntry(p EntryParams) *LedgerEntry {
	return &LedgerEntry{
		ID:            p.EntryID,
		CreatedAt:     time.Now().UTC(),
		WalletID:      p.WalletID,
		Type:          p.Type,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		ReferenceID:   p.ReferenceID,
		Description:   p.Description,
		PreviousHash:  p.PreviousHash,
		Metadata:      p.Metadata,
	}
}

func (m *LedgerEntry) HashFields() map[string]string {
	return map[string]string{
		"id":             m.ID,
		"wallet_id":      m.WalletID,
		"type":           string(m.Type),
		"amount":         m.Amount.String(),
		"transaction_id": m.TransactionID,
		"reference_id":   m.ReferenceID,
		"description":    m.Description,
		"created_at":     m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"previous_hash":  m.PreviousHash,
	}
}

func (m *LedgerEntry) GenerateHash() string {
	fields := m.HashFields()
	var keys []string
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

// PayoutRecord is the immutable receipt written after a distribution commits.
// Its primary key doubles as the receipt ID handed back to callers.
type PayoutRecord struct {
	ID             string          `gorm:"column:id;primaryKey;type:char(36)"`
	CampaignID     string          `gorm:"column:campaign_id;index;not null"`
	Payouts        datatypes.JSON  `gorm:"column:payouts"`
	RejectedIDs    datatypes.JSON  `gorm:"column:rejected_ids"`
	TotalDelivered decimal.Decimal `gorm:"column:total_delivered;type:decimal(32,12)"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func GenerateTransactionID() (string, error) {
	datePart := time.Now().Format("20060102")

	randomPart, err := util.RandomHex(3) // 3 bytes = 6 hex chars
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s", datePart, randomPart), nil
}
