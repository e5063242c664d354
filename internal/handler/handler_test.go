package handler

import (
	"bytes"
	"cms-go/internal/middleware"
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/internal/service"
	"cms-go/pkg/token"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	admins   service.AdminService
	menuRepo repository.MenuRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Menu{}, &model.Board{}, &model.Post{}, &model.Content{}, &model.Template{}, &model.TemplateVersion{}))

	userRepo := repository.NewUserRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	contentRepo := repository.NewContentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	userService := service.NewUserService(userRepo, nil, token.NewJWTManager("handler-test", 1, 7))
	adminService := service.NewAdminService(userRepo)
	menuService := service.NewMenuService(menuRepo, boardRepo, contentRepo, nil)
	contentService := service.NewContentService(contentRepo, menuRepo, nil)
	templateService := service.NewTemplateService(templateRepo)
	previewService := service.NewPreviewService(templateService, contentRepo, boardRepo, menuService)
	require.NoError(t, userService.EnsureAdmin("admin", "admin123"))

	authHandler := NewAuthHandler(userService)
	menuHandler := NewMenuHandler(menuService)
	contentHandler := NewContentHandler(contentService)
	templateHandler := NewTemplateHandler(templateService, previewService)
	authRequired := middleware.AuthMiddleware(userService)

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/menu", menuHandler.PublicTree)
	api.GET("/contents/:idOrSlug", contentHandler.Public)
	api.GET("/templates/:id", templateHandler.Published)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/verify", authRequired, authHandler.Verify)

	cms := api.Group("/cms", authRequired, middleware.AdminAuthMiddleware())
	cms.GET("/menu", menuHandler.AdminTree)
	cms.POST("/menu", menuHandler.Create)
	cms.PUT("/menu/order", menuHandler.Reorder)
	cms.DELETE("/menu/:id", menuHandler.Delete)
	cms.POST("/contents", contentHandler.Create)
	cms.POST("/templates", templateHandler.Create)
	cms.PUT("/templates/:id/publish", templateHandler.Publish)

	return &testServer{t: t, router: r, admins: adminService, menuRepo: menuRepo}
}

func (s *testServer) do(method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &result))
	return result.Token
}

func (s *testServer) createMenu(bearer, name string, parent *uint) model.Menu {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/cms/menu", bearer, gin.H{"name": name, "type": "FOLDER", "parentId": parent})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var m model.Menu
	require.NoError(s.t, json.Unmarshal(env.Data, &m))
	return m
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tok := s.login("admin", "admin123")
	w, env = s.do(http.MethodGet, "/api/v1/auth/verify", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "admin", user.Username)

	w, _ = s.do(http.MethodGet, "/api/v1/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/auth/verify", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCMSRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	_, err := s.admins.CreateUser(service.CreateUserRequest{Username: "editor", Password: "pw"})
	require.NoError(t, err)
	tok := s.login("editor", "pw")

	w, _ := s.do(http.MethodGet, "/api/v1/cms/menu", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/cms/menu", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMenuReorderEndpoint(t *testing.T) {
	s := newTestServer(t)
	tok := s.login("admin", "admin123")

	a := s.createMenu(tok, "a", nil)
	b := s.createMenu(tok, "b", nil)
	c := s.createMenu(tok, "c", nil)

	w, env := s.do(http.MethodPut, "/api/v1/cms/menu/order", tok, gin.H{"menuOrders": []gin.H{
		{"id": c.ID, "targetId": a.ID, "position": "before"},
		{"id": b.ID, "targetId": c.ID, "position": "inside"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success": true}`, string(env.Data))

	w, env = s.do(http.MethodGet, "/api/v1/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree []model.Menu
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	require.Len(t, tree, 2)
	assert.Equal(t, c.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, b.ID, tree[0].Children[0].ID)

	// 批次中任意一步失败时整体不生效
	w, _ = s.do(http.MethodPut, "/api/v1/cms/menu/order", tok, gin.H{"menuOrders": []gin.H{
		{"id": a.ID, "targetId": c.ID, "position": "before"},
		{"id": 999, "targetId": a.ID, "position": "after"},
	}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	stored, err := s.menuRepo.FindByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SortOrder)

	w, _ = s.do(http.MethodPut, "/api/v1/cms/menu/order", tok, gin.H{"menuOrders": []gin.H{
		{"id": c.ID, "targetId": b.ID, "position": "inside"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/cms/menu/order", tok, gin.H{"menuOrders": []gin.H{{"id": a.ID}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/cms/menu/%d", c.ID), tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/cms/menu/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicContentAndTemplate(t *testing.T) {
	s := newTestServer(t)
	tok := s.login("admin", "admin123")

	w, _ := s.do(http.MethodPost, "/api/v1/cms/contents", tok, gin.H{"title": "About", "slug": "about", "body": "hi", "published": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/api/v1/contents/about", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Contains(t, view.HTML, "<p>hi</p>")

	w, _ = s.do(http.MethodGet, "/api/v1/contents/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/cms/templates", tok, gin.H{"name": "Home", "type": "PAGE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tpl model.Template
	require.NoError(t, json.Unmarshal(env.Data, &tpl))

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/templates/%d", tpl.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/cms/templates/%d/publish", tpl.ID), tok, gin.H{"published": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/templates/%d", tpl.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidMove, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", service.ErrMenuNotFound), http.StatusNotFound},
		{service.ErrLastAdmin, http.StatusConflict},
		{fmt.Errorf("%w: id=1", service.ErrBoardInUse), http.StatusConflict},
		{service.ErrVersionConflict, http.StatusConflict},
		{service.ErrCorruptTree, http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}
