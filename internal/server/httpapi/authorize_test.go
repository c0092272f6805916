package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/medauth/internal/cryptox"
	"github.com/dmitrijs2005/medauth/internal/logging"
)

func TestAuthorize_RedirectsWithChallenge(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/auth/authorize?provider=Google", nil))
	require.Equal(t, http.StatusFound, rr.Code)

	c := cookies(rr)
	require.Contains(t, c, "verifier")
	verifier := c["verifier"].Value
	assert.Len(t, verifier, 43)
	assert.Equal(t, verifierMaxAge, c["verifier"].MaxAge)
	assert.True(t, c["verifier"].HttpOnly)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", loc.Host)
	assert.Equal(t, "/auth/v1/authorize", loc.Path)

	q := loc.Query()
	assert.Equal(t, "google", q.Get("provider"))
	assert.Equal(t, site+"/auth/callback", q.Get("redirect_to"))
	assert.Equal(t, cryptox.CodeChallenge(verifier), q.Get("code_challenge"))
	assert.Equal(t, "s256", q.Get("code_challenge_method"))
}

func TestAuthorize_RejectsNonFederated(t *testing.T) {
	f := newFixture(t, nil)
	for _, p := range []string{"", "password", "github"} {
		rr := f.do(httptest.NewRequest(http.MethodGet, "/auth/authorize?provider="+p, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, "provider %q", p)
		assert.Empty(t, rr.Result().Cookies())
	}
}

func TestAuthorize_NotConfigured(t *testing.T) {
	s := NewServer(Config{SiteURL: site, CodeVerifierCookie: "verifier"},
		&fakeResolver{}, &fakeSignup{}, &fakeProfile{}, fakePinger{}, logging.Nop())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/authorize?provider=apple", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
