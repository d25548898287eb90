package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quillpress/blog/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.GET("/login", func(c *gin.Context) {
		SetMaxAge(c, 3600)
		_ = SetLoginUser(c, &model.User{Id: 7})
		c.Status(http.StatusNoContent)
	})
	r.GET("/login-welcome", func(c *gin.Context) {
		_ = SetLoginUser(c, &model.User{Id: 7})
		_ = AddFlash(c, FlashInfo, "welcome")
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetLoginUserId(c), "flashes": Flashes(c)})
	})
	r.GET("/logout", func(c *gin.Context) {
		_ = ClearSession(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(t *testing.T, r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// responseCookies keeps the last cookie of each name, as a browser does when
// a response saves the session more than once.
func responseCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var cookies []*http.Cookie
	index := map[string]int{}
	for _, c := range rec.Result().Cookies() {
		if i, ok := index[c.Name]; ok {
			cookies[i] = c
			continue
		}
		index[c.Name] = len(cookies)
		cookies = append(cookies, c)
	}
	return cookies
}

func TestLoginWritesOneLaxCookie(t *testing.T) {
	r := newRouter()

	rec := do(t, r, "/login", nil)
	headers := rec.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	assert.Contains(t, headers[0], "Max-Age=3600")
	assert.Contains(t, headers[0], "HttpOnly")
	assert.Contains(t, headers[0], "SameSite=Lax")

	rec = do(t, r, "/logout", responseCookies(rec))
	headers = rec.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	assert.Contains(t, headers[0], "SameSite=Lax")
}

func TestLoginFlashAndLogout(t *testing.T) {
	r := newRouter()

	rec := do(t, r, "/whoami", nil)
	assert.JSONEq(t, `{"id":0,"flashes":null}`, rec.Body.String())

	rec = do(t, r, "/login-welcome", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := responseCookies(rec)
	require.Len(t, cookies, 1)

	rec = do(t, r, "/whoami", cookies)
	assert.JSONEq(t, `{"id":7,"flashes":[{"Category":"info","Message":"welcome"}]}`, rec.Body.String())
	// flashes were consumed, the id survives
	cookies = responseCookies(rec)
	rec = do(t, r, "/whoami", cookies)
	assert.JSONEq(t, `{"id":7,"flashes":null}`, rec.Body.String())

	rec = do(t, r, "/logout", cookies)
	cookies = responseCookies(rec)
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)

	rec = do(t, r, "/whoami", nil)
	assert.JSONEq(t, `{"id":0,"flashes":null}`, rec.Body.String())
}

func TestCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, IsLogin(c))
	SetCurrentUser(c, &model.User{Id: 3})
	assert.True(t, IsLogin(c))
	assert.Equal(t, 3, GetLoginUser(c).Id)
}
