package transaction

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"vindex/common"
	"vindex/config"
	verrors "vindex/errors"
	"vindex/jsonx"
	"vindex/wallet"
)

// Type discriminates how a transaction is applied to ledger state.
type Type string

const (
	TypeTransfer Type = "transfer"
	TypeStake    Type = "stake"
	TypeUnstake  Type = "unstake"
	TypeSwap     Type = "swap"
)

// Payload carries the type-specific fields. Stake and unstake name the
// validator; swap names the token pair and the caller's slippage guard.
type Payload struct {
	Validator    string  `json:"validator,omitempty"`
	TokenIn      string  `json:"tokenIn,omitempty"`
	TokenOut     string  `json:"tokenOut,omitempty"`
	MinAmountOut float64 `json:"minAmountOut,omitempty"`
}

// Transaction is immutable once signed: it is either discarded on validation
// failure or included in exactly one block.
type Transaction struct {
	ID        string   `json:"id"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Amount    float64  `json:"amount"`
	Fee       float64  `json:"fee"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Type      Type     `json:"type"`
	Payload   *Payload `json:"payload,omitempty"`
	Signature string   `json:"signature,omitempty"`
}

// New creates a transaction with a fresh id, the current timestamp, and the
// fee derived from the fixed policy table.
func New(from, to string, amount float64, txType Type, payload *Payload) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Fee:       ComputeFee(txType, amount),
		Timestamp: time.Now().UnixMilli(),
		Type:      txType,
		Payload:   payload,
	}
}

func baseFee(txType Type) float64 {
	switch txType {
	case TypeStake:
		return config.BaseFee * 2
	case TypeUnstake:
		return config.BaseFee * 3
	case TypeSwap:
		return config.BaseFee * 1.5
	default:
		return config.BaseFee
	}
}

// ComputeFee applies the fee policy: the per-type base fee, 0.01% of the
// amount, and a 0.05% surcharge on the portion above 1000 units, floored at
// the base fee.
func ComputeFee(txType Type, amount float64) float64 {
	base := baseFee(txType)
	fee := base + amount*config.AmountFeeRate
	if amount > config.SurchargeThreshold {
		fee += (amount - config.SurchargeThreshold) * config.SurchargeRate
	}
	if fee < base {
		fee = base
	}
	return fee
}

// Serialize renders the signed content deterministically. The id is excluded
// so equivalent submissions hash alike for duplicate detection.
func (tx *Transaction) Serialize() []byte {
	metadata := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%s",
		tx.From, tx.To, formatAmount(tx.Amount), formatAmount(tx.Fee),
		tx.Timestamp, tx.Type, tx.payloadString())
	return []byte(metadata)
}

func (tx *Transaction) payloadString() string {
	if tx.Payload == nil {
		return ""
	}
	b, _ := jsonx.Marshal(tx.Payload)
	return string(b)
}

// ContentDigest returns the sha256 digest over the signable content.
func (tx *Transaction) ContentDigest() string {
	sum := sha256.Sum256(tx.Serialize())
	return hex.EncodeToString(sum[:])
}

func (tx *Transaction) digestBytes() []byte {
	sum := sha256.Sum256(tx.Serialize())
	return sum[:]
}

// DedupKey identifies equivalent submissions (same from, to, amount)
// regardless of id and timestamp.
func (tx *Transaction) DedupKey() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", tx.From, tx.To, formatAmount(tx.Amount))))
	return common.EncodeBytesToBase58(sum[:])
}

// Sign signs the content digest with the sender's key.
func (tx *Transaction) Sign(signer wallet.Signer) error {
	sig, err := signer.Sign(tx.From, tx.digestBytes())
	if err != nil {
		return fmt.Errorf("could not sign transaction: %w", err)
	}
	tx.Signature = common.EncodeBytesToBase58(sig)
	return nil
}

// Verify checks the signature against the sender's public key.
func (tx *Transaction) Verify(signer wallet.Signer) bool {
	if tx.Signature == "" {
		return false
	}
	sig, err := common.DecodeBase58ToBytes(tx.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := signer.PublicKey(tx.From)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, tx.digestBytes(), sig)
}

// Validate checks structural validity. It does not consult account state;
// balance checks belong to the ledger engine.
func (tx *Transaction) Validate() error {
	if tx.From == "" || tx.To == "" {
		return verrors.New(verrors.ErrCodeInvalidTransaction, "sender and recipient are required")
	}
	if tx.Amount <= 0 {
		return verrors.New(verrors.ErrCodeInvalidAmount, "amount must be positive")
	}
	if tx.Fee < 0 {
		return verrors.New(verrors.ErrCodeInvalidAmount, "fee must not be negative")
	}
	if tx.From == tx.To && tx.Type != TypeStake {
		return verrors.New(verrors.ErrCodeInvalidTransaction, "sender and recipient must differ")
	}

	now := time.Now()
	ts := time.UnixMilli(tx.Timestamp)
	if ts.Before(now.Add(-config.MaxTxAge)) {
		return verrors.New(verrors.ErrCodeInvalidTimestamp, "transaction is too old")
	}
	if ts.After(now.Add(config.MaxTxFuture)) {
		return verrors.New(verrors.ErrCodeInvalidTimestamp, "transaction timestamp is in the future")
	}

	switch tx.Type {
	case TypeTransfer:
	case TypeStake:
		if tx.Amount < config.MinStake {
			return verrors.Newf(verrors.ErrCodeStakeBelowMinimum,
				"stake amount %.2f is below minimum %.2f", tx.Amount, config.MinStake)
		}
	case TypeUnstake:
		// amount > 0 already checked
	case TypeSwap:
		if tx.Payload == nil || tx.Payload.TokenIn == "" || tx.Payload.TokenOut == "" {
			return verrors.New(verrors.ErrCodeInvalidPayload, "swap requires tokenIn and tokenOut")
		}
	default:
		return verrors.Newf(verrors.ErrCodeInvalidTransaction, "unknown transaction type %q", tx.Type)
	}
	return nil
}

// IsValid reports whether the transaction passes structural validation.
func (tx *Transaction) IsValid() bool {
	return tx.Validate() == nil
}

// Clone returns a copy safe to hand to external callers.
func (tx *Transaction) Clone() *Transaction {
	cp := *tx
	if tx.Payload != nil {
		p := *tx.Payload
		cp.Payload = &p
	}
	return &cp
}

// formatAmount renders a float deterministically for hashing.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
