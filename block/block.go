package block

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	"vindex/common"
	"vindex/config"
	verrors "vindex/errors"
	"vindex/transaction"
	"vindex/wallet"
)

// Block is a signed container of transactions. All derived fields (count,
// fees, reward, roots, hash) are re-derivable from the transaction list and
// header fields; IsValid recomputes them to detect tampering.
type Block struct {
	Index        uint64                     `json:"index"`
	Timestamp    int64                      `json:"timestamp"` // unix milliseconds
	Transactions []*transaction.Transaction `json:"transactions"`
	PreviousHash string                     `json:"previousHash"`
	Hash         string                     `json:"hash"`
	Nonce        uint64                     `json:"nonce"`
	Producer     string                     `json:"producer"`
	Signature    string                     `json:"signature,omitempty"`
	MerkleRoot   string                     `json:"merkleRoot"`
	StateRoot    string                     `json:"stateRoot"`
	TxCount      int                        `json:"transactionCount"`
	TotalFees    float64                    `json:"totalFees"`
	Reward       float64                    `json:"reward"`

	signed bool
}

// New assembles an unsigned block and derives its digests.
func New(index uint64, txs []*transaction.Transaction, previousHash, producer string) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    time.Now().UnixMilli(),
		Transactions: txs,
		PreviousHash: previousHash,
		Producer:     producer,
	}
	b.derive()
	return b
}

func (b *Block) derive() {
	b.TxCount = len(b.Transactions)
	b.TotalFees = sumFees(b.Transactions)
	b.Reward = ComputeReward(b.Index, b.TxCount, b.TotalFees)
	b.MerkleRoot = MerkleRoot(b.Transactions)
	b.StateRoot = b.computeStateRoot()
	b.Hash = b.ComputeHash()
}

func sumFees(txs []*transaction.Transaction) float64 {
	total := 0.0
	for _, tx := range txs {
		total += tx.Fee
	}
	return total
}

// BaseReward returns the halving-scheduled base component of the block
// reward at the given index.
func BaseReward(index uint64) float64 {
	halvings := index / config.HalvingInterval
	return config.BaseBlockReward / math.Pow(2, float64(halvings))
}

// ComputeReward derives the full block reward. Empty blocks earn nothing.
func ComputeReward(index uint64, txCount int, totalFees float64) float64 {
	if txCount == 0 {
		return 0
	}
	bonus := math.Min(config.TxBonusPerTx*float64(txCount), config.TxBonusCap)
	return BaseReward(index) + bonus + totalFees
}

// MerkleRoot folds the transaction content digests pairwise into a single
// root, duplicating the last digest on odd levels. An empty transaction list
// yields the digest of the empty string.
func MerkleRoot(txs []*transaction.Transaction) string {
	if len(txs) == 0 {
		sum := sha256.Sum256([]byte(""))
		return hex.EncodeToString(sum[:])
	}
	level := make([]string, 0, len(txs))
	for _, tx := range txs {
		level = append(level, tx.ContentDigest())
	}
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256([]byte(level[i] + level[i+1]))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}

// computeStateRoot digests the block's ledger summary. A simplified stand-in
// for a full state trie.
func (b *Block) computeStateRoot() string {
	data := fmt.Sprintf("%d|%d|%d|%s|%s",
		b.Index, b.Timestamp, b.TxCount, formatAmount(b.TotalFees), b.Producer)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// ComputeHash digests every header field including both roots.
func (b *Block) ComputeHash() string {
	data := fmt.Sprintf("%d|%d|%s|%s|%d|%s|%s|%d|%s|%s",
		b.Index, b.Timestamp, b.PreviousHash, b.Producer, b.Nonce,
		b.MerkleRoot, b.StateRoot, b.TxCount,
		formatAmount(b.TotalFees), formatAmount(b.Reward))
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func (b *Block) hashBytes() []byte {
	raw, err := hex.DecodeString(b.Hash)
	if err != nil {
		return []byte(b.Hash)
	}
	return raw
}

// AddTransaction appends a transaction and re-derives the digests. Signing
// freezes the block; mutation attempts after that fail without effect.
func (b *Block) AddTransaction(tx *transaction.Transaction) error {
	if b.signed {
		return verrors.New(verrors.ErrCodeBlockImmutable, "block is signed and immutable")
	}
	b.Transactions = append(b.Transactions, tx)
	b.derive()
	return nil
}

// Sign recomputes the hash and signs it with the producer's key.
func (b *Block) Sign(signer wallet.Signer) error {
	b.Hash = b.ComputeHash()
	sig, err := signer.Sign(b.Producer, b.hashBytes())
	if err != nil {
		return fmt.Errorf("could not sign block: %w", err)
	}
	b.Signature = common.EncodeBytesToBase58(sig)
	b.signed = true
	return nil
}

// Signed reports whether the block has been frozen by signing.
func (b *Block) Signed() bool {
	return b.signed
}

// VerifySignature checks the producer signature over the block hash.
func (b *Block) VerifySignature(signer wallet.Signer) bool {
	if b.Signature == "" {
		return false
	}
	sig, err := common.DecodeBase58ToBytes(b.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := signer.PublicKey(b.Producer)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, b.hashBytes(), sig)
}

// IsValid re-derives every derived field and checks structural soundness.
// It returns false rather than an error so callers can probe for silent
// corruption.
func (b *Block) IsValid() bool {
	if b.PreviousHash == "" || b.Producer == "" {
		return false
	}
	if b.Timestamp > time.Now().Add(config.MaxTxFuture).UnixMilli() {
		return false
	}
	for _, tx := range b.Transactions {
		if tx.ID == "" || tx.Amount < 0 {
			return false
		}
	}
	if b.MerkleRoot != MerkleRoot(b.Transactions) {
		return false
	}
	if b.Hash != b.ComputeHash() {
		return false
	}
	if math.Abs(b.TotalFees-sumFees(b.Transactions)) > config.Epsilon {
		return false
	}
	if math.Abs(b.Reward-ComputeReward(b.Index, len(b.Transactions), b.TotalFees)) > config.Epsilon {
		return false
	}
	return true
}

// Clone deep-copies the block so historical blocks are never exposed as
// mutable references.
func (b *Block) Clone() *Block {
	cp := *b
	cp.Transactions = make([]*transaction.Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		cp.Transactions[i] = tx.Clone()
	}
	return &cp
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
