package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/postboard/internal/pkg/errcode"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func asCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Error(c *gin.Context, status int, code int, message string) {
	proxyutil.FailJson(c, status, asCodeErr(uint32(code), message))
}

// Fail derives status and code from the error kind. Errors without a known
// kind are reported as a bare internal error.
func Fail(c *gin.Context, err error) {
	status := appErr.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	Error(c, status, errcode.FromError(err), message)
}
