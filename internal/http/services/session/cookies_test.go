package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musclepoints/spot-backend/internal/http/helpers"
)

type fixedTTL struct{ seconds int }

func (f fixedTTL) EstimatedTTLSeconds(string) int { return f.seconds }

func testOpts() helpers.CookieOptions {
	return helpers.CookieOptions{
		Name:     "id_token",
		Domain:   "spot.example",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func setCookie(t *testing.T, fn func(w http.ResponseWriter)) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestIssueSetsTokenWithTTL(t *testing.T) {
	m := NewCookieManager(testOpts(), fixedTTL{seconds: 3540})

	c := setCookie(t, func(w http.ResponseWriter) { m.Issue(w, "el-token") })

	assert.Equal(t, "id_token", c.Name)
	assert.Equal(t, "el-token", c.Value)
	assert.Equal(t, 3540, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "spot.example", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestIssueWithExpiredTokenSetsZeroMaxAge(t *testing.T) {
	m := NewCookieManager(testOpts(), fixedTTL{seconds: 0})

	c := setCookie(t, func(w http.ResponseWriter) { m.Issue(w, "casi-vencido") })
	assert.Equal(t, 0, c.MaxAge)
}

// El borrado usa exactamente los mismos atributos que la emisión; si no, el
// browser no matchea la cookie y el logout no borra nada.
func TestClearMatchesIssueAttributes(t *testing.T) {
	m := NewCookieManager(testOpts(), fixedTTL{seconds: 3600})

	issued := setCookie(t, func(w http.ResponseWriter) { m.Issue(w, "tok") })
	cleared := setCookie(t, func(w http.ResponseWriter) { m.Clear(w) })

	assert.Equal(t, issued.Name, cleared.Name)
	assert.Equal(t, issued.Path, cleared.Path)
	assert.Equal(t, issued.Domain, cleared.Domain)
	assert.Equal(t, issued.Secure, cleared.Secure)
	assert.Equal(t, issued.HttpOnly, cleared.HttpOnly)
	assert.Equal(t, issued.SameSite, cleared.SameSite)

	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}
