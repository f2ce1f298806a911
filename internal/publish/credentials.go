package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"reelpipe/internal/fileutil"
	"reelpipe/internal/services"
)

// OAuthConfig reads the installed-app client secrets and requests the upload
// scope.
func OAuthConfig(secretsFile string) (*oauth2.Config, error) {
	secretsFile = strings.TrimSpace(secretsFile)
	if secretsFile == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "oauth config", "youtube.client_secrets_file is required", nil)
	}
	data, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "oauth config", "read client secrets", err)
	}
	cfg, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "oauth config", "parse client secrets", err)
	}
	return cfg, nil
}

// LoadToken reads a saved OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "publish", "load token",
				fmt.Sprintf("no token at %s; run `reelpipe auth`", path), err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "publish", "load token", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "load token", "decode token", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "load token", "token file holds no credentials", nil)
	}
	return &tok, nil
}

// SaveToken writes tok with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Exchange trades an authorization code for a token and saves it.
func Exchange(ctx context.Context, cfg *oauth2.Config, code, tokenFile string) error {
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "publish", "exchange code", "", err)
	}
	return SaveToken(tokenFile, tok)
}

// AuthURL is the consent URL for the offline upload scope.
func AuthURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("reelpipe", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// savingTokenSource persists refreshed tokens back to disk.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func newSavingTokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, path string) oauth2.TokenSource {
	src := &savingTokenSource{base: cfg.TokenSource(ctx, tok), path: path, last: tok.AccessToken}
	return oauth2.ReuseTokenSource(tok, src)
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
