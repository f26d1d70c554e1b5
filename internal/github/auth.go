package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/patch-warden/internal/config"
)

// CreateInstallationClient creates a GitHub client that is authenticated as a
// specific GitHub App installation.
func CreateInstallationClient(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, error) {
	logger.Info("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.GitHub.PrivateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})
	if cfg.GitHub.APIURL != "" {
		if appClient, err = appClient.WithEnterpriseURLs(cfg.GitHub.APIURL, cfg.GitHub.APIURL); err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.GitHub.APIURL, err)
		}
	}

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation ID %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}
	logger.Info("created installation token", "installation_id", installationID, "expires_at", token.GetExpiresAt())

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	return newClient(oauth2.NewClient(ctx, ts), cfg.GitHub.APIURL, logger)
}

// ClientForEvent picks the authentication mode for a webhook-triggered review:
// an App installation when the event carries one and an App is configured,
// otherwise the configured token.
func ClientForEvent(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (Client, error) {
	if installationID > 0 && cfg.GitHub.AppID != 0 {
		return CreateInstallationClient(ctx, cfg, installationID, logger)
	}
	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("no GitHub App installation on the event and GITHUB_TOKEN is not set")
	}
	return NewPATClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL, logger)
}
