package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx     *fakeTx
	begins int
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	b.begins++
	return b.tx, nil
}

func TestWithTx_Commit(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	var seen pgx.Tx
	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		seen = TxFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != b.tx {
		t.Error("expected fn to see the transaction in its context")
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Errorf("expected commit only, got committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")

	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Errorf("expected rollback only, got committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
		if !b.tx.rolledBack {
			t.Error("expected rollback after panic")
		}
	}()

	_ = WithTx(context.Background(), b, func(ctx context.Context) error {
		panic("boom")
	})
}

func TestWithTx_CommitErrorWrapped(t *testing.T) {
	commitErr := errors.New("serialization failure")
	b := &fakeBeginner{tx: &fakeTx{commitErr: commitErr}}

	err := WithTx(context.Background(), b, func(ctx context.Context) error { return nil })
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected wrapped commit error, got %v", err)
	}
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		return WithTx(ctx, b, func(inner context.Context) error {
			if TxFromContext(inner) != b.tx {
				t.Error("expected nested call to reuse the outer transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.begins != 1 {
		t.Errorf("expected 1 begin, got %d", b.begins)
	}
}

func TestTxRunner(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	r := NewTxRunner(b)

	if err := r.WithTx(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.tx.committed {
		t.Error("expected commit")
	}
}
