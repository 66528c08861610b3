package dao

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscodeJobDAO_UpdateProgressSkipsResolved(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE .transcode_jobs. SET .external_status.=\?,.progress.=\?,.updated_at.=\? ` +
		`WHERE job_handle = \? AND resolved_at IS NULL`).
		WithArgs("PROGRESSING", 40, sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewTranscodeJobDAOWith(db).UpdateProgress(context.Background(), "job-1", "PROGRESSING", 40))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscodeJobDAO_FindByHandleMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM .transcode_jobs. WHERE job_handle = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_handle"}))

	job, err := NewTranscodeJobDAOWith(db).FindByHandle(context.Background(), "job-x")
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscodeJobDAO_ListByVideoNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM .transcode_jobs. WHERE video_uuid = \? ORDER BY submitted_at DESC`).
		WithArgs("vid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_handle", "video_uuid"}).
			AddRow(2, "job-2", "vid-1").
			AddRow(1, "job-1", "vid-1"))

	jobs, err := NewTranscodeJobDAOWith(db).ListByVideo(context.Background(), "vid-1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].JobHandle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
