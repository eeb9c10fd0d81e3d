package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"golang.org/x/oauth2"
)

// Slots used to persist authentication state.
const (
	SessionSlot = "auth-session"
	PendingSlot = "auth-pending"
)

var (
	// ErrNoSession means nobody is signed in. It is a normal outcome, not a
	// failure of the provider.
	ErrNoSession = errors.New("no active session")

	// ErrDisabled is returned by sign-in operations when no hosted UI is
	// configured.
	ErrDisabled = errors.New("identity provider not configured")

	// ErrStateMismatch is returned when a callback does not belong to the
	// pending sign-in.
	ErrStateMismatch = errors.New("sign-in state mismatch")
)

// Provider runs the hosted UI flow and keeps the resulting session.
type Provider struct {
	cfg    Config
	oauth  *oauth2.Config
	slots  slots.Slots
	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

// New creates a provider that stores its state in s.
func New(cfg Config, s slots.Slots, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		slots:  s,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	base := cfg.baseURL()
	p.oauth = &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth2/authorize",
			TokenURL:  base + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.SignInRedirect(),
		Scopes:      cfg.ScopeList(),
	}
	return p
}

// Config returns the provider configuration.
func (p *Provider) Config() Config { return p.cfg }

// SignInURL starts a sign-in and returns the hosted UI address to visit.
// Starting again replaces any sign-in still pending.
func (p *Provider) SignInURL(ctx context.Context) (string, error) {
	if !p.cfg.Enabled() {
		return "", ErrDisabled
	}
	pend := pending{
		State:    uuid.NewString(),
		Verifier: oauth2.GenerateVerifier(),
		Redirect: p.oauth.RedirectURL,
	}
	if err := p.store(ctx, PendingSlot, pend); err != nil {
		return "", err
	}
	p.logger.Debug("sign-in started", "redirect", pend.Redirect)
	return p.oauth.AuthCodeURL(pend.State, oauth2.S256ChallengeOption(pend.Verifier)), nil
}

// CompleteSignIn exchanges the authorization code carried by the callback
// URL for tokens and stores the new session.
func (p *Provider) CompleteSignIn(ctx context.Context, callbackURL string) (*Session, error) {
	if !p.cfg.Enabled() {
		return nil, ErrDisabled
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return nil, fmt.Errorf("sign-in rejected: %s", strings.TrimSpace(e+" "+q.Get("error_description")))
	}
	code := q.Get("code")
	if code == "" {
		return nil, errors.New("callback url has no authorization code")
	}

	var pend pending
	found, err := p.load(ctx, PendingSlot, &pend)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("no sign-in in progress")
	}
	if q.Get("state") != pend.State {
		return nil, ErrStateMismatch
	}

	oc := *p.oauth
	oc.RedirectURL = pend.Redirect
	tok, err := oc.Exchange(p.httpContext(ctx), code, oauth2.VerifierOption(pend.Verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	sess := sessionFromToken(tok, nil)
	if err := p.store(ctx, SessionSlot, sess); err != nil {
		return nil, err
	}
	if err := p.clear(ctx, PendingSlot); err != nil {
		return nil, err
	}
	p.logger.Info("signed in", "expiry", sess.Expiry)
	return sess, nil
}

// CurrentSession returns the stored session, refreshing it when the access
// token has expired.
func (p *Provider) CurrentSession(ctx context.Context) (*Session, error) {
	var s Session
	found, err := p.load(ctx, SessionSlot, &s)
	if err != nil {
		return nil, err
	}
	if !found || s.AccessToken == "" {
		return nil, ErrNoSession
	}
	if !s.expired(p.now()) {
		return &s, nil
	}
	if s.RefreshToken == "" || !p.cfg.Enabled() {
		return nil, fmt.Errorf("%w: session expired", ErrNoSession)
	}

	tok, err := p.oauth.TokenSource(p.httpContext(ctx), &oauth2.Token{RefreshToken: s.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %w", ErrNoSession, err)
	}
	fresh := sessionFromToken(tok, &s)
	if err := p.store(ctx, SessionSlot, fresh); err != nil {
		return nil, err
	}
	p.logger.Debug("session refreshed", "expiry", fresh.Expiry)
	return fresh, nil
}

// AccessToken returns the bearer token of the current session.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	s, err := p.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// CurrentUser asks the userInfo endpoint who owns the current session.
func (p *Provider) CurrentUser(ctx context.Context) (User, error) {
	s, err := p.CurrentSession(ctx)
	if err != nil {
		return User{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.baseURL()+"/oauth2/userInfo", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return User{}, fmt.Errorf("userInfo request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return User{}, fmt.Errorf("failed to read userInfo response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return User{}, fmt.Errorf("%w: token rejected", ErrNoSession)
	}
	if resp.StatusCode/100 != 2 {
		return User{}, fmt.Errorf("userInfo returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return User{}, fmt.Errorf("failed to decode userInfo response: %w", err)
	}
	return User{Username: username(claims), Attributes: claims}, nil
}

// SignOut forgets the session locally and returns the hosted UI logout URL
// ("" when no hosted UI is configured).
func (p *Provider) SignOut(ctx context.Context) (string, error) {
	if err := p.clear(ctx, SessionSlot); err != nil {
		return "", err
	}
	if err := p.clear(ctx, PendingSlot); err != nil {
		return "", err
	}
	if !p.cfg.Enabled() {
		return "", nil
	}
	v := url.Values{"client_id": {p.cfg.ClientID}}
	if r := p.cfg.SignOutRedirect(); r != "" {
		v.Set("logout_uri", r)
	}
	return p.cfg.baseURL() + "/logout?" + v.Encode(), nil
}

func username(claims map[string]any) string {
	for _, k := range []string{"username", "cognito:username", "preferred_username", "email", "sub"} {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (p *Provider) httpClient() *http.Client {
	if p.client != nil {
		return p.client
	}
	return http.DefaultClient
}

func (p *Provider) httpContext(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *Provider) store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.slots.Modify(ctx, key, func([]byte) ([]byte, error) { return data, nil }); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (p *Provider) clear(ctx context.Context, key string) error {
	err := p.slots.Modify(ctx, key, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, nil
		}
		return []byte{}, nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// load decodes a slot into v. An absent or unreadable slot reports false.
func (p *Provider) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := p.slots.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		p.logger.Warn("discarding unreadable auth state", "slot", key, "error", err)
		return false, nil
	}
	return true, nil
}
