package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yungbote/magix-backend/internal/platform/gcp"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// NewGoogleTokenSource returns bearer tokens for Vertex AI from inline credentials JSON
// when configured, else from application default credentials.
func NewGoogleTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if creds := gcp.CredentialsFromEnv(); strings.HasPrefix(creds, "{") {
		c, err := google.CredentialsFromJSON(ctx, []byte(creds), cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("google credentials from json: %w", err)
		}
		return c.TokenSource, nil
	}
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("google default token source: %w", err)
	}
	return ts, nil
}

func bearer(ts oauth2.TokenSource) (string, error) {
	if ts == nil {
		return "", fmt.Errorf("no google token source configured")
	}
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("fetch google access token: %w", err)
	}
	return "Bearer " + tok.AccessToken, nil
}
