package persistence

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
)

func newMockRepo(t *testing.T) (repo.VideoRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewVideoRepositoryWith(db), mock
}

func TestFailTranscode_RecordsObservedJobState(t *testing.T) {
	for _, state := range []vo.JobState{vo.JobStateError, vo.JobStateCanceled, vo.JobStateComplete} {
		t.Run(state.String(), func(t *testing.T) {
			r, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE .videos. SET .* AND active_job_handle = \?`).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`UPDATE .transcode_jobs. SET .external_status.=\?`).
				WithArgs(append([]driver.Value{state.String()}, jobResolveArgs(state)...)...).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			changed, err := r.FailTranscode(context.Background(), "vid-1", "job-1", state, "rejected")
			require.NoError(t, err)
			assert.True(t, changed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// jobResolveArgs external_status 之后的参数：COMPLETE 额外写入 progress=100
func jobResolveArgs(state vo.JobState) []driver.Value {
	if state.IsSuccess() {
		return []driver.Value{100, sqlmock.AnyArg(), sqlmock.AnyArg(), "job-1"}
	}
	return []driver.Value{sqlmock.AnyArg(), sqlmock.AnyArg(), "job-1"}
}

func TestFailTranscode_TruncatesReason(t *testing.T) {
	r, mock := newMockRepo(t)
	long := strings.Repeat("x", 600)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE .videos. SET .duration.=\?,.failure_reason.=\?,.processing_status.=\?,.renditions.=\?,.updated_at.=\?`).
		WithArgs(0, strings.Repeat("x", 512), "failed", "[]", sqlmock.AnyArg(), "vid-1", "processing", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := r.FailTranscode(context.Background(), "vid-1", "job-1", vo.JobStateError, long)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteTranscode_WritesRenditions(t *testing.T) {
	r, mock := newMockRepo(t)
	renditions := []vo.Rendition{{Label: "720p", Locator: "processed/videos/vid-1/in_720p.mp4"}}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE .videos. SET .duration.=\?,.failure_reason.=\?,.processing_status.=\?,.renditions.=\?`).
		WithArgs(42, "", "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), "vid-1", "processing", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE .transcode_jobs. SET .external_status.=\?,.progress.=\?`).
		WithArgs("COMPLETE", 100, sqlmock.AnyArg(), sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := r.CompleteTranscode(context.Background(), "vid-1", "job-1", renditions, 42)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
