package repositories

import "context"

// TxFn is a function that runs within a transaction. Repositories called with
// the ctx it receives join the transaction automatically.
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically: every write inside fn
// commits together or not at all.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
