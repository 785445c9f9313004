package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yapa/internal/auth"
	"yapa/internal/repository/sqlite"
	"yapa/internal/service"
	"yapa/internal/storage"
	"yapa/internal/token"
	"yapa/internal/validation"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type testServer struct {
	router *gin.Engine
	users  service.UserService
	media  *storage.LocalService
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, taskRepo.Init(ctx))

	media, err := storage.NewLocalService(filepath.Join(dir, "media"), "/media")
	require.NoError(t, err)
	issuer, err := token.NewIssuer("test-secret")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()

	users := service.NewUserService(userRepo, issuer, media, logger, service.UserServiceConfig{
		PasswordCost: bcrypt.MinCost,
	})
	tasks := service.NewTaskService(taskRepo, userRepo, logger)

	router := gin.New()
	NewHandler(users, tasks, auth.NewAuthenticator(userRepo), media, logger).RegisterRoutes(router)

	return &testServer{router: router, users: users, media: media}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(path string, form url.Values, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return s.do(req)
}

func (s *testServer) uploadAvatar(t *testing.T, bearer, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return s.do(req)
}

func registrationForm(email string) url.Values {
	return url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {email},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	}
}

func (s *testServer) register(t *testing.T, email string) UserResponse {
	t.Helper()
	w := s.postForm("/users/", registrationForm(email), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	return user
}

type fieldErrorBody struct {
	Detail []validation.FieldError `json:"detail"`
}

func decodeFieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body fieldErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	out := map[string]string{}
	for _, fe := range body.Detail {
		out[fe.Field()] = fe.Msg
	}
	return out
}

func TestRegister(t *testing.T) {
	s := setupServer(t)

	t.Run("created with token", func(t *testing.T) {
		w := s.postForm("/users/", registrationForm("ada@example.com"), "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Equal(t, "Ada", raw["first_name"])
		assert.Equal(t, "Lovelace", raw["last_name"])
		assert.Equal(t, "ada@example.com", raw["email"])
		assert.NotEmpty(t, raw["token"])
		assert.Nil(t, raw["avatar"])
		assert.NotContains(t, raw, "password")
		assert.NotContains(t, raw, "password_hash")
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := s.postForm("/users/", registrationForm("ada@example.com"), "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body fieldErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Detail, 1)
		assert.Equal(t, []string{"form", "email"}, body.Detail[0].Loc)
		assert.Contains(t, body.Detail[0].Msg, "taken")
	})

	t.Run("password confirmation mismatch", func(t *testing.T) {
		form := registrationForm("bob@example.com")
		form.Set("password2", "something-else")
		w := s.postForm("/users/", form, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decodeFieldErrors(t, w)["password2"], "match")
	})

	t.Run("empty body", func(t *testing.T) {
		w := s.postForm("/users/", url.Values{}, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := decodeFieldErrors(t, w)
		for _, field := range []string{"first_name", "last_name", "email", "password1", "password2"} {
			assert.Contains(t, errs, field)
		}
	})
}

func TestLogin(t *testing.T) {
	s := setupServer(t)
	registered := s.register(t, "ada@example.com")

	type want struct {
		code  int
		field string
		msg   string
	}

	tests := []struct {
		name string
		form url.Values
		want want
	}{
		{
			name: "success",
			form: url.Values{"email": {"ada@example.com"}, "password": {"s3cret-pass"}},
			want: want{code: http.StatusOK},
		},
		{
			name: "unknown email",
			form: url.Values{"email": {"nobody@example.com"}, "password": {"s3cret-pass"}},
			want: want{code: http.StatusUnauthorized, field: "email", msg: "invalid email"},
		},
		{
			name: "wrong password",
			form: url.Values{"email": {"ada@example.com"}, "password": {"wrong"}},
			want: want{code: http.StatusUnauthorized, field: "password", msg: "invalid password"},
		},
		{
			name: "missing fields",
			form: url.Values{},
			want: want{code: http.StatusUnprocessableEntity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.postForm("/users/login", tt.form, "")
			require.Equal(t, tt.want.code, w.Code, w.Body.String())

			switch tt.want.code {
			case http.StatusOK:
				var user UserResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
				assert.Equal(t, registered.ID, user.ID)
				assert.Equal(t, registered.Token, user.Token)
			case http.StatusUnauthorized:
				var body struct {
					Detail loginError `json:"detail"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, []string{"form", tt.want.field}, body.Detail.Loc)
				assert.Equal(t, tt.want.msg, body.Detail.Msg)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name   string
		req    func() *http.Request
		bearer string
	}{
		{
			name: "task without token",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/tasks/", nil)
			},
		},
		{
			name: "avatar without token",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/users/avatar", nil)
			},
		},
		{
			name: "me with unknown token",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
				r.Header.Set("Authorization", "Bearer not-a-real-token")
				return r
			},
		},
		{
			name: "wrong scheme",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/tasks/", nil)
				r.Header.Set("Authorization", "Token abc")
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.req())
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"detail":"Unauthorized"}`, w.Body.String())
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestPermissionGuards(t *testing.T) {
	s := setupServer(t)
	regular := s.register(t, "ada@example.com")

	form := validation.Registration{
		FirstName: "Root",
		LastName:  "Admin",
		Email:     "root@example.com",
		Password1: "root-pass",
		Password2: "root-pass",
	}
	root, err := s.users.CreateSuperuser(context.Background(), form)
	require.NoError(t, err)

	get := func(path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		return s.do(req)
	}

	assert.Equal(t, http.StatusUnauthorized, get("/users/", regular.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, get("/metrics", regular.Token).Code)

	w := get("/users/", root.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	for _, u := range list {
		assert.NotContains(t, u, "token")
	}

	w = get("/metrics", root.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yapa_http_requests_total")

	w = get("/users/me", regular.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, regular.ID, me.ID)
	assert.Equal(t, regular.Token, me.Token)
	assert.Equal(t, regular.Email, me.Email)
}

func TestUploadAvatar(t *testing.T) {
	s := setupServer(t)
	user := s.register(t, "ada@example.com")

	w := s.uploadAvatar(t, user.Token, "first.png", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.NotNil(t, first.Avatar)
	assert.True(t, strings.HasPrefix(*first.Avatar, "/media/avatars/"))

	firstPath, err := s.media.Path(strings.TrimPrefix(*first.Avatar, "/media/"))
	require.NoError(t, err)
	assert.FileExists(t, firstPath)

	w = s.uploadAvatar(t, user.Token, "second.png", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.NotNil(t, second.Avatar)
	assert.NotEqual(t, *first.Avatar, *second.Avatar)

	_, err = os.Stat(firstPath)
	assert.True(t, os.IsNotExist(err), "previous avatar must be deleted")
	secondPath, err := s.media.Path(strings.TrimPrefix(*second.Avatar, "/media/"))
	require.NoError(t, err)
	assert.FileExists(t, secondPath)

	served := s.do(httptest.NewRequest(http.MethodGet, *second.Avatar, nil))
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, pngBytes, served.Body.Bytes())
}

func TestUploadAvatarValidation(t *testing.T) {
	s := setupServer(t)
	user := s.register(t, "ada@example.com")

	w := s.uploadAvatar(t, user.Token, "notes.txt", []byte("just some text"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeFieldErrors(t, w), "avatar")

	req := httptest.NewRequest(http.MethodPost, "/users/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	w = s.do(req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "field required", decodeFieldErrors(t, w)["avatar"])
}

func TestCreateTask(t *testing.T) {
	s := setupServer(t)
	user := s.register(t, "ada@example.com")

	t.Run("defaults", func(t *testing.T) {
		w := s.postForm("/tasks/", url.Values{"name": {"write report"}}, user.Token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Equal(t, "write report", raw["name"])
		assert.Equal(t, float64(0), raw["status"])
		assert.Equal(t, float64(0), raw["priority"])
		assert.Nil(t, raw["completed_at"])
		assert.Nil(t, raw["completed_by"])
		assert.NotEmpty(t, raw["created_at"])

		createdBy, ok := raw["created_by"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(user.ID), createdBy["id"])
		assert.NotContains(t, createdBy, "token")
	})

	t.Run("explicit status and priority", func(t *testing.T) {
		form := url.Values{"name": {"fix bug"}, "description": {"asap"}, "status": {"1"}, "priority": {"3"}}
		w := s.postForm("/tasks/", form, user.Token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var task TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		assert.Equal(t, "asap", task.Description)
		assert.Equal(t, 1, task.Status)
		assert.Equal(t, 3, task.Priority)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			form  url.Values
			field string
		}{
			{name: "missing name", form: url.Values{}, field: "name"},
			{name: "name too long", form: url.Values{"name": {strings.Repeat("x", 256)}}, field: "name"},
			{name: "multibyte name too long", form: url.Values{"name": {strings.Repeat("é", 256)}}, field: "name"},
			{name: "status out of range", form: url.Values{"name": {"x"}, "status": {"5"}}, field: "status"},
			{name: "priority out of range", form: url.Values{"name": {"x"}, "priority": {"4"}}, field: "priority"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := s.postForm("/tasks/", tt.form, user.Token)
				require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
				assert.Contains(t, decodeFieldErrors(t, w), tt.field)
			})
		}
	})

	t.Run("multibyte name counted in characters", func(t *testing.T) {
		name := strings.Repeat("é", 200)
		w := s.postForm("/tasks/", url.Values{"name": {name}}, user.Token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var task TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		assert.Equal(t, name, task.Name)
	})

	t.Run("non numeric status", func(t *testing.T) {
		w := s.postForm("/tasks/", url.Values{"name": {"x"}, "status": {"done"}}, user.Token)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHealthAndRequestID(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
