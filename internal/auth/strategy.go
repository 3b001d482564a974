package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/writetoearn/scorer/internal/config"
	"github.com/writetoearn/scorer/internal/twitter"
)

// ErrAuthenticationFailed is returned when every configured strategy has been
// exhausted.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Strategy is one way of establishing an authenticated client. Strategies are
// tried in order; the first success wins.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context) (*Result, error)
}

// Result is a successful authentication outcome. Fresh marks sessions
// established by logging in (as opposed to restored ones), whose cookie blob
// must be persisted.
type Result struct {
	Client twitter.Client
	Fresh  bool
}

// restoreStrategy rebuilds a client from a persisted cookie blob and verifies
// it with a liveness check.
type restoreStrategy struct {
	store   *CredentialStore
	account string
}

func (s *restoreStrategy) Name() string { return "restore" }

func (s *restoreStrategy) Attempt(ctx context.Context) (*Result, error) {
	records, ok, err := s.store.Load(s.account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no stored cookies for %s", s.account)
	}

	client, err := twitter.NewWithCookies(records)
	if err != nil {
		return nil, err
	}

	alive, err := client.IsLoggedIn(ctx)
	if err != nil {
		return nil, fmt.Errorf("liveness check failed: %w", err)
	}
	if !alive {
		return nil, fmt.Errorf("stored cookies rejected by platform")
	}

	return &Result{Client: client}, nil
}

// passwordStrategy performs the interactive login flow with the primary
// credential set through a headless browser.
type passwordStrategy struct {
	login *browserLogin
}

func (s *passwordStrategy) Name() string { return "password" }

func (s *passwordStrategy) Attempt(ctx context.Context) (*Result, error) {
	records, err := s.login.Run(ctx)
	if err != nil {
		return nil, err
	}

	client, err := twitter.NewWithCookies(records)
	if err != nil {
		return nil, err
	}

	return &Result{Client: client, Fresh: true}, nil
}

// oauthStrategy authenticates with the alternate application credential set.
type oauthStrategy struct {
	cfg config.TwitterConfig
}

func (s *oauthStrategy) Name() string { return "oauth1" }

func (s *oauthStrategy) Attempt(ctx context.Context) (*Result, error) {
	client := twitter.NewWithOAuth1(s.cfg.APIKey, s.cfg.APISecret, s.cfg.AccessToken, s.cfg.AccessTokenSecret)

	alive, err := client.IsLoggedIn(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}
	if !alive {
		return nil, fmt.Errorf("application credentials rejected")
	}

	return &Result{Client: client, Fresh: true}, nil
}

// Strategies builds the ordered chain for the configured account:
// restore, then password login, then OAuth1 if fully configured.
func Strategies(cfg config.TwitterConfig, store *CredentialStore) []Strategy {
	chain := []Strategy{
		&restoreStrategy{store: store, account: cfg.Username},
		&passwordStrategy{login: newBrowserLogin(cfg)},
	}
	if cfg.HasSecondary() {
		chain = append(chain, &oauthStrategy{cfg: cfg})
	}
	return chain
}
