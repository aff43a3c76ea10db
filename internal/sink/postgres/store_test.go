package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

func strp(s string) *string { return &s }

func TestUpsertInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "vacancies")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO vacancies").
		WithArgs("42", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	record := &harvest.VacancyRecord{ID: "42", Name: strp("Go developer")}
	require.NoError(t, store.Upsert(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReplaysSameID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "vacancies")
	require.NoError(t, err)

	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("42", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("42", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, &harvest.VacancyRecord{ID: "42", Name: strp("first")}))
	require.NoError(t, store.Upsert(ctx, &harvest.VacancyRecord{ID: "42", Name: strp("second")}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "vacancies")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO vacancies").
		WithArgs("42", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	err = store.Upsert(context.Background(), &harvest.VacancyRecord{ID: "42"})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsMissingID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "")
	require.NoError(t, err)

	require.Error(t, store.Upsert(context.Background(), &harvest.VacancyRecord{}))
	require.Error(t, store.Upsert(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStoreWithPool(mock, "vacancies; DROP TABLE users")
	require.Error(t, err)

	_, err = NewStoreWithPool(nil, "vacancies")
	require.Error(t, err)
}
