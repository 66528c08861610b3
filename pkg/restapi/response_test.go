package restapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-ingest-service/pkg/errno"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(t *testing.T, handler gin.HandlerFunc) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Set("request_id", "req-1")
	handler(ctx)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestFailedMapsKindsToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errno.ErrVideoTooLarge, http.StatusBadRequest},
		{errno.ErrUnauthorized, http.StatusUnauthorized},
		{errno.ErrNotVideoOwner, http.StatusForbidden},
		{errno.ErrVideoNotFound, http.StatusNotFound},
		{errno.ErrNotResubmittable, http.StatusConflict},
		{errno.ErrTooManyRequests, http.StatusTooManyRequests},
		{errno.NewBizError(errno.ErrBlobStore, errors.New("timeout")), http.StatusServiceUnavailable},
		{errno.NewBizError(errno.ErrJobSubmission, errors.New("throttled")), http.StatusBadGateway},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestFailedHidesStorageCause(t *testing.T) {
	status, resp := respond(t, func(c *gin.Context) {
		Failed(c, errno.NewBizError(errno.ErrRecordStore, errors.New("dial tcp 10.0.0.3:3306")))
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, errno.ErrRecordStore.Code, resp.Code)
	assert.Equal(t, errno.ErrRecordStore.Message, resp.Message)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestFailedKeepsValidationDetail(t *testing.T) {
	_, resp := respond(t, func(c *gin.Context) {
		Failed(c, errno.Errorf(errno.ErrVideoTooLarge, "size %d exceeds %d", 60, 50))
	})
	assert.Equal(t, "Video file exceeds the size limit: size 60 exceeds 50", resp.Message)
}

func TestAcceptedCarriesDataAndCode(t *testing.T) {
	status, resp := respond(t, func(c *gin.Context) {
		Accepted(c, gin.H{"video_id": "v1"}, errno.NewBizError(errno.ErrJobSubmission, errors.New("boom")))
	})
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, errno.ErrJobSubmission.Code, resp.Code)
	assert.Equal(t, map[string]interface{}{"video_id": "v1"}, resp.Data)
}
