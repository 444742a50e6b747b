package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"
	"golang.org/x/crypto/bcrypt"

	"github.com/xxxsen/postboard/internal/config"
	"github.com/xxxsen/postboard/internal/filestore"
	"github.com/xxxsen/postboard/internal/gql"
	"github.com/xxxsen/postboard/internal/handler"
	"github.com/xxxsen/postboard/internal/middleware"
	"github.com/xxxsen/postboard/internal/pkg/jwt"
	"github.com/xxxsen/postboard/internal/repo"
	"github.com/xxxsen/postboard/internal/service"
	"github.com/xxxsen/postboard/test/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func setupRouter(t *testing.T, uploadRateLimit time.Duration) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, dialect, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	userRepo := repo.NewUserRepo(conn, dialect)
	postRepo := repo.NewPostRepo(conn, dialect)

	tokens := service.NewTokenService(jwt.NewManager([]byte("test-secret"), 3*time.Hour))
	authService := service.NewAuthService(userRepo, tokens, bcrypt.MinCost)
	postService := service.NewPostService(postRepo, userRepo, 2)
	schema, err := gql.NewSchema(gql.NewResolver(authService, postService))
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": t.TempDir(),
		},
	})
	require.NoError(t, err)

	deps := handler.RouterDeps{
		GraphQL:         gql.NewHandler(schema),
		Images:          handler.NewImageHandler(store, 1024*1024),
		Tokens:          tokens,
		UploadRateLimit: uploadRateLimit,
	}

	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	require.NoError(t, err)
	return engine
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type graphqlResult struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

func graphqlCall(t *testing.T, router http.Handler, token, query string, vars map[string]interface{}) graphqlResult {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var out graphqlResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	out := graphqlCall(t, router, "", `mutation($in: SignupInput!) { createUser(signupInput: $in) { _id } }`, map[string]interface{}{
		"in": map[string]interface{}{"email": email, "name": "writer", "password": "secret"},
	})
	require.Empty(t, out.Errors)

	out = graphqlCall(t, router, "", `mutation($in: LoginInput!) { login(loginInput: $in) { token } }`, map[string]interface{}{
		"in": map[string]interface{}{"email": email, "password": "secret"},
	})
	require.Empty(t, out.Errors)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data["login"], &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func uploadImage(t *testing.T, router http.Handler, token, oldPath string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	if oldPath != "" {
		require.NoError(t, writer.WriteField("oldPath", oldPath))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/post-image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
