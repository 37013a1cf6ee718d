package postgressmoke_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	postgressmoke "github.com/amidman/dbsmoke/postgres"
	"github.com/stretchr/testify/require"
)

func Test_Probe_AnswersOne(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(regexp.QuoteMeta(postgressmoke.ProbeQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err = postgressmoke.Probe(context.Background(), db)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_Probe_WrongValue(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(regexp.QuoteMeta(postgressmoke.ProbeQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(0))

	err = postgressmoke.Probe(context.Background(), db)
	require.ErrorIs(t, err, postgressmoke.ErrUnexpectedProbe)
}

func Test_Probe_QueryFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	errProbeRefused := errors.New("connection refused")

	mock.ExpectQuery(regexp.QuoteMeta(postgressmoke.ProbeQuery)).
		WillReturnError(errProbeRefused)

	err = postgressmoke.Probe(context.Background(), db)
	require.ErrorIs(t, err, errProbeRefused)
}
