package contracts

import "context"

// TxRunner executes fn inside a single database transaction carried on the
// returned context. An error from fn rolls the transaction back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
