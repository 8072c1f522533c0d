package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"Memeologia/internal/handler"
	"Memeologia/internal/middleware"
	"Memeologia/internal/model"
	"Memeologia/internal/pkg"
	"Memeologia/internal/service"
	"Memeologia/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t        *testing.T
	engine   *gin.Engine
	accounts *testutil.Accounts
	memes    *testutil.Memes
	comments *testutil.Comments
	objects  *testutil.Objects
	notifier *testutil.Notifier
	health   error
}

func newServer(t *testing.T) *server {
	s := &server{
		t:        t,
		accounts: testutil.NewAccounts(),
		objects:  testutil.NewObjects(),
		notifier: &testutil.Notifier{},
	}
	s.memes, s.comments = testutil.NewContent()
	sessions := testutil.NewSessions()
	issuer := pkg.NewTokenIssuer("access", "refresh", 0, 0)
	log := zap.NewNop()

	feed := service.NewFeedService(s.memes, s.comments, s.accounts)
	s.engine = New(Deps{
		Accounts: service.NewAccountService(s.accounts, sessions, s.objects, issuer, log),
		Memes: service.NewMemeService(s.memes, s.accounts, s.objects, s.notifier,
			service.ReportPolicy{Threshold: 2, Moderators: []string{"mod@example.com"}}, log),
		Comments:     service.NewCommentService(s.comments, s.accounts),
		Feed:         feed,
		Issuer:       issuer,
		Sessions:     sessions,
		LoginLimiter: middleware.NewRateLimiter(100, 100),
		Metrics:      middleware.NewMetrics(),
		Health: []handler.Check{
			{Name: "mysql", Ping: func(context.Context) error { return s.health }},
		},
		Log: log,
	})
	return s
}

func (s *server) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *server) upload(path, token, filename string, data []byte, fields map[string][]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = fw.Write(data)
	require.NoError(s.t, err)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(s.t, mw.WriteField(k, v))
		}
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register 注册并登录，返回账号 id 和 access token
func (s *server) register(name string) (uint64, string) {
	s.t.Helper()
	email := strings.ToLower(name) + "@example.com"
	w := s.do(http.MethodPost, "/insert/usuarios_insert/", gin.H{"name": name, "email": email, "password": "Abcdefg1"}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	acc := decode[model.Account](s.t, w)

	w = s.do(http.MethodPost, "/login", gin.H{"email": email, "password": "Abcdefg1"}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	pair := decode[pkg.Pair](s.t, w)
	return acc.ID, pair.AccessToken
}

func (s *server) stub(accountID uint64, active bool) model.Meme {
	s.t.Helper()
	w := s.do(http.MethodPost, "/insert/memes_insert/", gin.H{"account_id": fmt.Sprint(accountID), "format": "png", "active": active}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Meme](s.t, w)
}

func TestRegisterEndpoint(t *testing.T) {
	s := newServer(t)
	body := gin.H{"name": "Ana", "email": "ana@example.com", "password": "Abcdefg1"}

	w := s.do(http.MethodPost, "/insert/usuarios_insert/", body, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/insert/usuarios_insert/", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/insert/usuarios_insert/", gin.H{"name": "Ana", "email": "nope", "password": "Abcdefg1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email has an invalid format", decode[map[string]string](t, w)["msg"])

	w = s.do(http.MethodPost, "/insert/usuarios_insert/", gin.H{"name": "Ana", "email": "b@example.com", "password": "abcdefg1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 查询参数形式
	q := url.Values{"name": {"Beto"}, "email": {"beto@example.com"}, "password": {"Abcdefg1"}}
	w = s.do(http.MethodPost, "/insert/usuarios_insert/?"+q.Encode(), nil, "")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/select/usuarios_select/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Account](t, w), 2)
}

func TestRegisterIgnoresRole(t *testing.T) {
	s := newServer(t)
	body := gin.H{"name": "Eve", "email": "eve@example.com", "password": "Abcdefg1", "role": model.RoleAdmin}

	w := s.do(http.MethodPost, "/insert/usuarios_insert/", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.RoleUser, decode[model.Account](t, w).Role)

	q := url.Values{"name": {"Mal"}, "email": {"mal@example.com"}, "password": {"Abcdefg1"}, "role": {"1"}}
	w = s.do(http.MethodPost, "/insert/usuarios_insert/?"+q.Encode(), nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, email := range []string{"eve@example.com", "mal@example.com"} {
		acc, err := s.accounts.FindByEmail(context.Background(), email)
		require.NoError(t, err)
		assert.Equal(t, model.RoleUser, acc.Role, email)
	}
}

func TestLegacyCRUDValidation(t *testing.T) {
	s := newServer(t)
	anaID, _ := s.register("Ana")

	w := s.do(http.MethodPost, "/insert/memes_insert/", gin.H{"account_id": "abc", "format": "png"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/insert/memes_insert/", gin.H{"account_id": "999", "format": "png"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	m := s.stub(anaID, false)
	assert.False(t, m.Active)

	w = s.do(http.MethodPost, "/insert/comentarios_insert/", gin.H{"account_id": fmt.Sprint(anaID), "meme_id": "bad", "content": "hola"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/insert/comentarios_insert/", gin.H{"account_id": fmt.Sprint(anaID), "meme_id": m.ID.Hex(), "content": "hola"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPut, "/update/usuarios_update/xyz", gin.H{"name": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/update/memes_update/123", gin.H{"active": true}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/update/memes_update/"+m.ID.Hex(), gin.H{"active": true}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/delete/usuarios_delete/424242", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/delete/meme_delete/not-an-id", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodDelete, "/delete/meme_delete/"+m.ID.Hex(), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/delete/meme_delete/"+m.ID.Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/select/comentarios_select/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Comment](t, w))
}

func TestLoginLogoutRefresh(t *testing.T) {
	s := newServer(t)
	anaID, token := s.register("Ana")

	w := s.do(http.MethodPost, "/login", gin.H{"email": "ana@example.com", "password": "Wrong1234"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/login", gin.H{"email": "ana@example.com", "password": "Abcdefg1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[pkg.Pair](t, w)

	w = s.do(http.MethodPost, "/token/refresh", gin.H{"refresh_token": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	next := decode[pkg.Pair](t, w)

	w = s.do(http.MethodPost, "/logout", nil, next.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/like-meme/"+s.stub(anaID, true).ID.Hex(), nil, next.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/logout", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/token/refresh", gin.H{"refresh_token": "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLikeToggleEndpoint(t *testing.T) {
	s := newServer(t)
	anaID, token := s.register("Ana")
	m := s.stub(anaID, true)

	w := s.do(http.MethodPost, "/like-meme/"+m.ID.Hex(), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/like-meme/"+m.ID.Hex(), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[model.LikeState](t, w)
	assert.True(t, st.Liked)
	assert.Equal(t, int64(1), st.Likes)
	assert.Equal(t, []uint64{anaID}, st.LikedBy)

	w = s.do(http.MethodPost, "/like-meme/"+m.ID.Hex(), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	st = decode[model.LikeState](t, w)
	assert.False(t, st.Liked)
	assert.Equal(t, int64(0), st.Likes)
	assert.Empty(t, st.LikedBy)

	w = s.do(http.MethodPost, "/like-meme/nope", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/like-meme/64b7f0c2a1b2c3d4e5f60718", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadEndpoint(t *testing.T) {
	s := newServer(t)
	_, token := s.register("Ana")

	w := s.upload("/upload", "", "a.png", testutil.PNG, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.upload("/upload", token, "a.png", testutil.PNG, map[string][]string{"category": {"humor"}, "tags": {"gatos", "lunes"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[model.Meme](t, w)
	assert.True(t, m.Active)
	assert.Equal(t, "png", m.Format)
	assert.Equal(t, []string{"gatos", "lunes"}, m.Tags)
	assert.True(t, strings.HasPrefix(m.AssetURL, "https://cdn.test/memes/"))

	w = s.upload("/upload", token, "a.txt", []byte("plain text, not an image"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.objects.Err = errors.New("bucket unavailable")
	w = s.upload("/upload", token, "b.gif", testutil.GIF, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "upload failed", decode[map[string]string](t, w)["msg"])
}

func TestProfilePhotoEndpoint(t *testing.T) {
	s := newServer(t)
	anaID, anaToken := s.register("Ana")
	betoID, _ := s.register("Beto")

	w := s.upload(fmt.Sprintf("/api/usuario/%d/photo", betoID), anaToken, "a.jpg", testutil.JPEG, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.upload(fmt.Sprintf("/api/usuario/%d/photo", anaID), anaToken, "a.jpg", testutil.JPEG, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	photo := decode[map[string]any](t, w)["photo_url"].(string)
	assert.True(t, strings.HasPrefix(photo, fmt.Sprintf("https://cdn.test/profiles/%d/", anaID)))
	assert.True(t, strings.HasSuffix(photo, ".jpg"))

	s.stub(anaID, true)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/usuario/%d", anaID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[model.Profile](t, w)
	assert.Equal(t, "Ana", p.Name)
	require.NotNil(t, p.PhotoURL)
	assert.Equal(t, photo, *p.PhotoURL)
	assert.Len(t, p.Memes, 1)

	w = s.do(http.MethodGet, "/api/usuario/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 已登录用户给不存在的账号上传头像
	w = s.upload("/api/usuario/9999/photo", anaToken, "a.jpg", testutil.JPEG, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Len(t, s.objects.Files, 1)
}

func TestFeedEndpoints(t *testing.T) {
	s := newServer(t)
	anaID, anaToken := s.register("Ana")
	for i := 0; i < 3; i++ {
		s.stub(anaID, true)
	}

	for _, q := range []string{"page=abc", "limit=dos", "page=1&limit=2x"} {
		w := s.do(http.MethodGet, "/memes?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	w := s.do(http.MethodGet, "/memes?page=abc", nil, "")
	assert.Equal(t, "page must be an integer", decode[map[string]string](t, w)["msg"])

	w = s.do(http.MethodGet, "/memes?page=1&limit=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[struct {
		Items []model.MemeWithAuthor `json:"items"`
	}](t, w)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "Ana", first.Items[0].AuthorName)

	w = s.do(http.MethodGet, "/memes?page=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[struct {
		Items []model.MemeWithAuthor `json:"items"`
	}](t, w)
	require.Len(t, second.Items, 1)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)
	assert.NotEqual(t, first.Items[1].ID, second.Items[0].ID)

	m := first.Items[0]
	w = s.do(http.MethodPost, "/memes/"+m.ID.Hex()+"/comments", gin.H{"content": "primero"}, anaToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/memes/"+m.ID.Hex()+"/comments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.CommentWithAuthor](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].AuthorName)

	w = s.do(http.MethodGet, "/select_join/memes_user_join/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.AuthorMemes](t, w), 1)
	w = s.do(http.MethodGet, "/select_join/comentarios_join/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.AuthorComments](t, w), 1)

	// 作者被删除后 feed 返回 404
	require.NoError(t, s.accounts.Delete(context.Background(), anaID))
	w = s.do(http.MethodGet, "/memes", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	s := newServer(t)
	anaID, token := s.register("Ana")
	m := s.stub(anaID, true)

	w := s.do(http.MethodPost, "/memes/"+m.ID.Hex()+"/report", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for i := 1; i <= 2; i++ {
		w = s.do(http.MethodPost, "/memes/"+m.ID.Hex()+"/report", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(i), decode[map[string]any](t, w)["reports"])
	}
	assert.Equal(t, 1, s.notifier.Count())

	w = s.do(http.MethodPost, "/memes/64b7f0c2a1b2c3d4e5f60718/report", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	s.health = errors.New("connection refused")
	w = s.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mysql")
}
