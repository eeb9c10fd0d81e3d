// Package auth signs back-office users in through a hosted identity
// provider using the OAuth2 authorization code flow with PKCE. Sessions are
// kept in the same slot storage as the records.
package auth

import (
	"net/url"
	"strings"
)

// DefaultScopes are requested when Config.Scopes is empty.
const DefaultScopes = "openid,profile,email"

// Config describes the user pool and its hosted UI. Redirect values may list
// several comma separated URLs; see PickRedirect.
type Config struct {
	Region          string `mapstructure:"region"`
	UserPoolID      string `mapstructure:"user_pool_id"`
	ClientID        string `mapstructure:"client_id"`
	Domain          string `mapstructure:"domain"`
	Scopes          string `mapstructure:"scopes"`
	RedirectSignIn  string `mapstructure:"redirect_sign_in"`
	RedirectSignOut string `mapstructure:"redirect_sign_out"`
	Origin          string `mapstructure:"origin"`
}

// Enabled reports whether enough is configured to talk to the hosted UI.
func (c Config) Enabled() bool {
	return c.Domain != "" && c.ClientID != ""
}

// ScopeList splits Scopes on commas, dropping blanks.
func (c Config) ScopeList() []string {
	raw := c.Scopes
	if strings.TrimSpace(raw) == "" {
		raw = DefaultScopes
	}
	return splitList(raw)
}

// SignInRedirect is the callback URL registered for this origin.
func (c Config) SignInRedirect() string { return PickRedirect(c.RedirectSignIn, c.Origin) }

// SignOutRedirect is the post-logout URL registered for this origin.
func (c Config) SignOutRedirect() string { return PickRedirect(c.RedirectSignOut, c.Origin) }

// baseURL returns the hosted UI root. A bare domain is served over https.
func (c Config) baseURL() string {
	d := strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if strings.Contains(d, "://") {
		return d
	}
	return "https://" + d
}

// PickRedirect chooses one URL from a comma separated list: the first whose
// origin equals origin, else the first entry. An empty list yields "".
func PickRedirect(list, origin string) string {
	parts := splitList(list)
	if len(parts) == 0 {
		return ""
	}
	if origin != "" {
		want := originOf(origin)
		for _, p := range parts {
			if want != "" && originOf(p) == want {
				return p
			}
		}
	}
	return parts[0]
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
