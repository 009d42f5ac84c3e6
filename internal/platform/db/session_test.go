package db

import (
	"context"
	"testing"
)

func TestConnFromContext_Empty(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Error("expected nil connection from empty context")
	}
}

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil transaction from empty context")
	}
}

func TestExecutor_Fallback(t *testing.T) {
	var fallback Querier
	if got := Executor(context.Background(), fallback); got != nil {
		t.Error("expected fallback executor when nothing is pinned")
	}
}
