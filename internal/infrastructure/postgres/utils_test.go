package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/postgres"
)

// failingRows no devuelve filas y termina con err, como un cursor que aborta a mitad de lectura.
type failingRows struct{ err error }

func (failingRows) Close() {}
func (r failingRows) Err() error { return r.err }
func (failingRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (failingRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (failingRows) Next() bool { return false }
func (failingRows) Scan(...any) error { return errors.New("sin filas") }
func (failingRows) Values() ([]any, error) { return nil, nil }
func (failingRows) RawValues() [][]byte { return nil }
func (failingRows) Conn() *pgx.Conn { return nil }

type rowsQuerier struct{ err error }

func (rowsQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q rowsQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return failingRows{err: q.err}, nil
}

func (rowsQuerier) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func TestListados_ErrorAlIterarSeTraduce(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		code string
		want error
	}{
		{"serialización es conflicto", "40001", domain.ErrConcurrencyConflict},
		{"lock_timeout es conflicto", "55P03", domain.ErrConcurrencyConflict},
		{"check violado es entrada inválida", "23514", domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := rowsQuerier{err: &pgconn.PgError{Code: tc.code, Message: "falló"}}

			_, err := postgres.NewAlertRepository(q).ListOpen(ctx, "")
			assert.ErrorIs(t, err, tc.want)

			_, err = postgres.NewLedgerRepository(q).ListForProduct(ctx, "9b2f0d0e-3c1a-4c59-9d0b-0f6f7f0c1a11", 0, 10)
			assert.ErrorIs(t, err, tc.want)

			_, err = postgres.NewProductRepository(q).List(ctx, 10, 0)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
