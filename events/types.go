package events

import (
	"time"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventTransactionAdmitted EventType = "TransactionAdmitted"
	EventTransactionFailed   EventType = "TransactionFailed"
	EventTransactionIncluded EventType = "TransactionIncluded"
	EventBlockCommitted      EventType = "BlockCommitted"
)

// LedgerEvent represents any event emitted by the ledger core
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
}

// TransactionAdmitted is published when a transaction enters the mempool.
type TransactionAdmitted struct {
	TxID      string
	From      string
	To        string
	Amount    float64
	timestamp time.Time
}

func NewTransactionAdmitted(txID, from, to string, amount float64) *TransactionAdmitted {
	return &TransactionAdmitted{TxID: txID, From: from, To: to, Amount: amount, timestamp: time.Now()}
}

func (e *TransactionAdmitted) Type() EventType      { return EventTransactionAdmitted }
func (e *TransactionAdmitted) Timestamp() time.Time { return e.timestamp }

// TransactionFailed is published when a transaction is rejected at admission
// or dropped during block application.
type TransactionFailed struct {
	TxID      string
	Reason    string
	timestamp time.Time
}

func NewTransactionFailed(txID, reason string) *TransactionFailed {
	return &TransactionFailed{TxID: txID, Reason: reason, timestamp: time.Now()}
}

func (e *TransactionFailed) Type() EventType      { return EventTransactionFailed }
func (e *TransactionFailed) Timestamp() time.Time { return e.timestamp }

// TransactionIncluded is published for each transaction committed in a block.
type TransactionIncluded struct {
	TxID       string
	BlockIndex uint64
	BlockHash  string
	timestamp  time.Time
}

func NewTransactionIncluded(txID string, blockIndex uint64, blockHash string) *TransactionIncluded {
	return &TransactionIncluded{TxID: txID, BlockIndex: blockIndex, BlockHash: blockHash, timestamp: time.Now()}
}

func (e *TransactionIncluded) Type() EventType      { return EventTransactionIncluded }
func (e *TransactionIncluded) Timestamp() time.Time { return e.timestamp }

// BlockCommitted is published when a block is appended to the chain.
type BlockCommitted struct {
	BlockIndex uint64
	BlockHash  string
	Producer   string
	TxCount    int
	Reward     float64
	timestamp  time.Time
}

func NewBlockCommitted(blockIndex uint64, blockHash, producer string, txCount int, reward float64) *BlockCommitted {
	return &BlockCommitted{
		BlockIndex: blockIndex,
		BlockHash:  blockHash,
		Producer:   producer,
		TxCount:    txCount,
		Reward:     reward,
		timestamp:  time.Now(),
	}
}

func (e *BlockCommitted) Type() EventType      { return EventBlockCommitted }
func (e *BlockCommitted) Timestamp() time.Time { return e.timestamp }
