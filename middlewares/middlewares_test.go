package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

type fakeDirectory struct{}

func (fakeDirectory) GetBranch(_ context.Context, slug string, id uint) (*models.Branch, error) {
	if slug != "mama-put" || id != 1 {
		return nil, apperrors.ErrBranchNotFound
	}
	return &models.Branch{ID: 1, TenantID: 5, Tenant: models.Tenant{ID: 5, Slug: "mama-put"}}, nil
}

func (fakeDirectory) ResolveCustomer(_ context.Context, token string) (*models.Customer, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return &models.Customer{ID: 70, AccountID: claims.AccountID}, nil
}

type fakeAccounts struct{}

func (fakeAccounts) Account(_ context.Context, id uint) (*models.Account, error) {
	tenant := uint(5)
	return &models.Account{ID: id, Role: models.RoleStaff, TenantID: &tenant}, nil
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func perform(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	r := newEngine()
	r.GET("/me", AuthMiddleware(false), func(c *gin.Context) {
		c.String(http.StatusOK, "%d:%s", c.GetUint(AccountIDKey), c.GetString(RoleKey))
	})
	r.GET("/ws", AuthMiddleware(true), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := utils.GenerateToken(9, models.RoleStaff, time.Hour)
	assert.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "not-a-token").Code)

	w := perform(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9:staff", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me?token="+token, "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ws?token="+token, "").Code)

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", token).Code)
}

func TestRequestScope(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	r := newEngine()
	var got services.RequestContext
	handler := func(c *gin.Context) {
		got = Scope(c)
		c.Status(http.StatusOK)
	}
	r.GET("/places/:place/branches/:branch/menu", RequestScope(fakeDirectory{}, fakeAccounts{}), handler)
	r.GET("/places/:place/branches/:branch/cart", AuthMiddleware(false), RequestScope(fakeDirectory{}, fakeAccounts{}), handler)

	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/places/mama-put/branches/abc/menu", "").Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/places/other/branches/1/menu", "").Code)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/places/mama-put/branches/1/menu", "").Code)
	assert.Equal(t, "mama-put", got.Tenant.Slug)
	assert.Zero(t, got.Actor.AccountID)

	customerToken, _ := utils.GenerateToken(3, models.RoleCustomer, time.Hour)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/places/mama-put/branches/1/cart", customerToken).Code)
	if assert.NotNil(t, got.Actor.Customer) {
		assert.Equal(t, uint(70), got.Actor.Customer.ID)
	}

	staffToken, _ := utils.GenerateToken(4, models.RoleStaff, time.Hour)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/places/mama-put/branches/1/cart", staffToken).Code)
	assert.Nil(t, got.Actor.Customer)
	if assert.NotNil(t, got.Actor.TenantID) {
		assert.Equal(t, uint(5), *got.Actor.TenantID)
	}
}

func TestRequireRole(t *testing.T) {
	r := newEngine()
	r.GET("/staff", func(c *gin.Context) { c.Set(RoleKey, c.Query("role")) }, RequireRole(models.RoleStaff, models.RoleMerchant), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/staff?role=merchant", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/staff?role=customer", "").Code)
}

func TestRateLimiter(t *testing.T) {
	r := newEngine()
	r.GET("/", NewRateLimiter(0.001, 2).RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/", "").Code)
}

func TestLoggerCORSAndSecurity(t *testing.T) {
	r := newEngine()
	r.Use(LoggerMiddleware(), CORSMiddlewares("https://shagomeals.test"), SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, "https://shagomeals.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = perform(r, http.MethodOptions, "/ping", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
