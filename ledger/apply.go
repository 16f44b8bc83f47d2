package ledger

import (
	verrors "vindex/errors"
	"vindex/swap"
	"vindex/transaction"
)

// applyTransaction dispatches a candidate on its type. Every branch checks
// its preconditions before the first mutation, so a failed candidate leaves
// no partial state and is simply dropped from the mempool.
func (e *Engine) applyTransaction(tx *transaction.Transaction) error {
	switch tx.Type {
	case transaction.TypeTransfer:
		return e.applyTransfer(tx)
	case transaction.TypeStake:
		return e.applyStake(tx)
	case transaction.TypeUnstake:
		return e.applyUnstake(tx)
	case transaction.TypeSwap:
		return e.applySwap(tx)
	default:
		return verrors.Newf(verrors.ErrCodeInvalidTransaction, "unknown transaction type %q", tx.Type)
	}
}

func (e *Engine) applyTransfer(tx *transaction.Transaction) error {
	sender := e.accounts.GetAccount(tx.From)
	if sender == nil {
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", tx.From)
	}
	if sender.Balance < tx.Amount+tx.Fee {
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.4f cannot cover %.4f", sender.Balance, tx.Amount+tx.Fee)
	}

	sender.Balance -= tx.Amount + tx.Fee
	recipient := e.accounts.GetOrCreateAccount(tx.To)
	recipient.Balance += tx.Amount
	sender.Nonce++
	// The fee leaves circulation until the block reward redistributes it.
	e.circulating -= tx.Fee
	return nil
}

// validatorAddr resolves the target validator from the payload, falling back
// to the recipient field.
func validatorAddr(tx *transaction.Transaction) string {
	if tx.Payload != nil && tx.Payload.Validator != "" {
		return tx.Payload.Validator
	}
	return tx.To
}

func (e *Engine) applyStake(tx *transaction.Transaction) error {
	sender := e.accounts.GetAccount(tx.From)
	if sender == nil {
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", tx.From)
	}
	if sender.Balance < tx.Amount+tx.Fee {
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.4f cannot cover %.4f", sender.Balance, tx.Amount+tx.Fee)
	}
	if err := e.registry.Stake(tx.From, validatorAddr(tx), tx.Amount); err != nil {
		return err
	}
	// Only the fee is debited here; the registry moved the stake itself.
	sender.Balance -= tx.Fee
	sender.Nonce++
	e.circulating -= tx.Amount + tx.Fee
	return nil
}

func (e *Engine) applyUnstake(tx *transaction.Transaction) error {
	sender := e.accounts.GetAccount(tx.From)
	if sender == nil {
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", tx.From)
	}
	if sender.Balance < tx.Fee {
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.4f cannot cover fee %.4f", sender.Balance, tx.Fee)
	}
	if err := e.registry.Unstake(tx.From, validatorAddr(tx), tx.Amount); err != nil {
		return err
	}
	sender.Balance -= tx.Fee
	sender.Nonce++
	e.circulating -= tx.Fee
	return nil
}

func (e *Engine) applySwap(tx *transaction.Transaction) error {
	if tx.Payload == nil || tx.Payload.TokenIn == "" || tx.Payload.TokenOut == "" {
		return verrors.New(verrors.ErrCodeInvalidPayload, "swap requires tokenIn and tokenOut")
	}
	sender := e.accounts.GetAccount(tx.From)
	if sender == nil {
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", tx.From)
	}
	if sender.Balance < tx.Amount+tx.Fee {
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.4f cannot cover %.4f", sender.Balance, tx.Amount+tx.Fee)
	}
	pool, exists := e.pools[swap.PairKey(tx.Payload.TokenIn, tx.Payload.TokenOut)]
	if !exists {
		return verrors.Newf(verrors.ErrCodePoolNotFound,
			"no pool for pair %s", swap.PairKey(tx.Payload.TokenIn, tx.Payload.TokenOut))
	}
	amountOut, err := pool.Swap(tx.Payload.TokenIn, tx.Amount, tx.Payload.MinAmountOut)
	if err != nil {
		return err
	}

	sender.Balance -= tx.Amount + tx.Fee
	sender.Balance += amountOut
	sender.Nonce++
	e.circulating -= tx.Fee
	return nil
}
