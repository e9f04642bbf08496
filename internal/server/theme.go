package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/theme"
)

// colorSchemeHint is the client hint carrying the browser's color-scheme
// preference.
const colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

// cookieMaxAge keeps the persisted preference for a year.
const cookieMaxAge = 365 * 24 * 60 * 60

// cookieStore persists the visitor's preference in a cookie. The cookie is
// readable from script so the bootstrap snippet can apply it before paint.
type cookieStore struct {
	r *http.Request
	w http.ResponseWriter
}

func (s cookieStore) Get(key string) (string, bool) {
	c, err := s.r.Cookie(key)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (s cookieStore) Set(key, value string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

// hintSignal reads the color-scheme client hint. Browsers that do not send
// it are treated as preferring light; the bootstrap script corrects that on
// the client.
func hintSignal(r *http.Request) theme.FixedSignal {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(colorSchemeHint)), `"`)
	return theme.FixedSignal(strings.EqualFold(v, "dark"))
}

func visitorTheme(w http.ResponseWriter, r *http.Request) theme.Theme {
	return theme.Resolve(cookieStore{r: r, w: w}, hintSignal(r))
}

// withClientHints asks browsers for the color-scheme hint and marks
// responses as varying on it and on the preference cookie.
func withClientHints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Accept-CH", colorSchemeHint)
		h.Set("Critical-CH", colorSchemeHint)
		h.Set("Vary", colorSchemeHint+", Cookie")
		next.ServeHTTP(w, r)
	})
}

// shownField is the form field carrying the theme the page currently
// displays. It can differ from the cookie and hint when the browser sent no
// hint or the OS preference changed after the page loaded.
const shownField = "current"

// shownStore reports the displayed theme as the stored preference and
// persists writes in the cookie.
type shownStore struct {
	cookieStore
	shown theme.Theme
}

func (s shownStore) Get(key string) (string, bool) {
	if key == theme.StorageKey {
		return s.shown.String(), true
	}
	return s.cookieStore.Get(key)
}

// toggleController builds a controller that flips what the visitor sees.
// Requests without a valid displayed theme fall back to the cookie and hint.
func (s *Server) toggleController(w http.ResponseWriter, r *http.Request) *theme.Controller {
	cookies := cookieStore{r: r, w: w}
	shown, err := theme.Parse(r.PostFormValue(shownField))
	if err != nil {
		return theme.New(cookies, hintSignal(r), nil, s.logger)
	}
	return theme.New(shownStore{cookieStore: cookies, shown: shown}, theme.FixedSignal(shown.IsDark()), nil, s.logger)
}

type themeResponse struct {
	Theme theme.Theme `json:"theme"`
}

// handleTheme flips the theme the visitor sees and persists the result in
// the cookie.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	next := s.toggleController(w, r).Toggle()

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(themeResponse{Theme: next}); err != nil {
			s.logger.Warn("writing theme response", zap.Error(err))
		}
		return
	}

	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mediaType), "application/json") {
			return true
		}
	}
	return false
}

// backTo returns the same-site Referer path, or "/".
func backTo(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.RequestURI()
}
