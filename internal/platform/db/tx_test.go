package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/nfi/casedesk/internal/platform/apperr"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx, got %v", tx)
	}
}

func TestConn_FallsBackToPool(t *testing.T) {
	q := Conn(context.Background(), nil)
	if q == nil {
		t.Fatal("expected a querier")
	}
}

func TestNoTx_RunsFn(t *testing.T) {
	called := false
	err := NoTx{}.WithTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected fn to run without error, called=%v err=%v", called, err)
	}
}

// fakeTx records commit and rollback calls; other pgx.Tx methods are unused.
type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx_Commits(t *testing.T) {
	tx := &fakeTx{}
	var seen pgx.Tx
	err := WithTx(context.Background(), fakeBeginner{tx: tx}, func(ctx context.Context) error {
		seen = TxFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if seen != tx || !tx.committed {
		t.Errorf("expected fn to run in the committed transaction")
	}
}

func TestWithTx_FnErrorRollsBack(t *testing.T) {
	tx := &fakeTx{}
	want := apperr.Conflict("status changed")
	err := WithTx(context.Background(), fakeBeginner{tx: tx}, func(context.Context) error { return want })
	if err != want {
		t.Fatalf("expected fn error unchanged, got %v", err)
	}
	if tx.committed || !tx.rolledBack {
		t.Errorf("expected rollback without commit, committed=%v", tx.committed)
	}
}

func TestWithTx_DriverErrorsAreStoreFailures(t *testing.T) {
	refused := errors.New("dial tcp: connection refused")
	tests := []struct {
		name string
		b    fakeBeginner
	}{
		{"begin", fakeBeginner{err: refused}},
		{"commit", fakeBeginner{tx: &fakeTx{commitErr: refused}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithTx(context.Background(), tt.b, func(context.Context) error { return nil })
			if !errors.Is(err, apperr.ErrStoreFailure) {
				t.Fatalf("expected ErrStoreFailure, got %v", err)
			}
			if he := apperr.HTTP(err); he.Code != 500 {
				t.Errorf("expected 500, got %d", he.Code)
			}
		})
	}
}

func TestWithTx_JoinsOuterTransaction(t *testing.T) {
	outer := &fakeTx{}
	ctx := context.WithValue(context.Background(), txKey, pgx.Tx(outer))
	err := WithTx(ctx, fakeBeginner{err: errors.New("begin must not be called")}, func(ctx context.Context) error {
		if TxFromContext(ctx) != outer {
			t.Error("expected the outer transaction")
		}
		return nil
	})
	if err != nil || outer.committed {
		t.Errorf("nested call must not commit, err=%v", err)
	}
}

var _ TxRunner = PoolTx{}
var _ TxRunner = NoTx{}
