package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/postboard/internal/pkg/errcode"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func failWith(t *testing.T, err error) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(c, err)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return resp.Code, env
}

func TestFailUsesErrorKind(t *testing.T) {
	status, env := failWith(t, appErr.NotFound("image not found"))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, errcode.ErrNotFound, env.Code)
	require.Equal(t, "image not found", env.Msg)

	status, env = failWith(t, appErr.Forbidden("not yours"))
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, errcode.ErrForbidden, env.Code)
}

func TestFailHidesUnknownErrors(t *testing.T) {
	status, env := failWith(t, errors.New("disk on fire"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, errcode.ErrUnknown, env.Code)
	require.Equal(t, "internal error", env.Msg)
}
