package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlenko/bookery/internal/utils"
)

const testSecret = "test-secret"

func authedContext(t *testing.T, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, "OWNER", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthStoresSubjectAsString(t *testing.T) {
	c, _ := authedContext(t, 42)

	var captured interface{}
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		captured = c.Get("user_id")
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))

	// Numeric subjects decode from JSON as float64; the middleware must
	// hand handlers and key builders a canonical string.
	assert.Equal(t, "42", captured)
}

func TestCurrentUserIDSeesAuthenticatedCaller(t *testing.T) {
	c, _ := authedContext(t, 42)

	var uid string
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		uid = currentUserID(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))

	assert.Equal(t, "42", uid)
}

func TestCurrentUserIDAnonWithoutToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "anon", currentUserID(c))
}

func TestJWTAuthRejectsMissingAndGarbageTokens(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, JWTAuth(testSecret)(next)(c))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
