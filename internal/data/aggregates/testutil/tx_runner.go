package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

// ScriptedTxRunner fails the Nth InTx call with Fail[N] before the body
// runs. Calls past the end of Fail run the body without a transaction.
type ScriptedTxRunner struct {
	Fail []error

	mu    sync.Mutex
	calls int
	ran   int
}

var _ aggregates.TxRunner = (*ScriptedTxRunner)(nil)

func (r *ScriptedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	i := r.calls
	r.calls++
	r.mu.Unlock()

	if i < len(r.Fail) && r.Fail[i] != nil {
		return r.Fail[i]
	}
	r.mu.Lock()
	r.ran++
	r.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

// Calls returns how many times InTx was entered and how many bodies ran.
func (r *ScriptedTxRunner) Calls() (entered, ran int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.ran
}
