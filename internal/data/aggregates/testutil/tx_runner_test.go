package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestScriptedTxRunnerFailsScriptedCalls(t *testing.T) {
	boom := errors.New("begin failed")
	r := &ScriptedTxRunner{Fail: []error{boom}}
	body := 0
	fn := func(dbctx.Context) error { body++; return nil }

	if err := r.InTx(context.Background(), fn); !errors.Is(err, boom) {
		t.Fatalf("first call: %v", err)
	}
	if err := r.InTx(context.Background(), fn); err != nil {
		t.Fatalf("second call: %v", err)
	}
	entered, ran := r.Calls()
	if entered != 2 || ran != 1 || body != 1 {
		t.Fatalf("entered=%d ran=%d body=%d", entered, ran, body)
	}
}
