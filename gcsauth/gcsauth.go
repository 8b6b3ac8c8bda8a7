// Package gcsauth mints short-lived OAuth2 bearer tokens for a GCS service
// account, treated as a black-box Authenticator per the reader's scope: the
// token-signing mechanics are a collaborator, not part of the COG core.
package gcsauth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenURL      = "https://oauth2.googleapis.com/token"
	tokenScope    = "https://www.googleapis.com/auth/devstorage.read_only"
	tokenLifetime = time.Hour
)

// An Authenticator mints bearer tokens for GCS requests, refreshing the
// token shortly before it expires.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// serviceAccountAuthenticator signs RS256 JWTs with a service account's
// private key and exchanges them for bearer tokens via the standard OAuth2
// JWT bearer grant.
type serviceAccountAuthenticator struct {
	key        serviceAccountKey
	privateKey *rsa.PrivateKey
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewFromEnv builds an Authenticator from the JSON service-account key
// content in GOOGLE_SERVICE_ACCOUNT_CONTENT.
func NewFromEnv(content string) (Authenticator, error) {
	if content == "" {
		return nil, errors.New("gcsauth: GOOGLE_SERVICE_ACCOUNT_CONTENT is empty")
	}
	var key serviceAccountKey
	if err := json.Unmarshal([]byte(content), &key); err != nil {
		return nil, fmt.Errorf("gcsauth: parsing service account JSON: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, errors.New("gcsauth: service account JSON missing client_email or private_key")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("gcsauth: parsing private key: %w", err)
	}

	return &serviceAccountAuthenticator{
		key:        key,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Token returns a valid bearer token, refreshing it if it has expired or is
// within a minute of expiring.
func (a *serviceAccountAuthenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Until(a.expiresAt) > time.Minute {
		return a.token, nil
	}

	signed, err := a.signAssertion()
	if err != nil {
		return "", err
	}
	token, expiresIn, err := a.exchange(ctx, signed)
	if err != nil {
		return "", err
	}
	a.token = token
	a.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return a.token, nil
}

func (a *serviceAccountAuthenticator) signAssertion() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   a.key.ClientEmail,
		"scope": tokenScope,
		"aud":   a.tokenURI(),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(a.privateKey)
}

func (a *serviceAccountAuthenticator) tokenURI() string {
	if a.key.TokenURI != "" {
		return a.key.TokenURI
	}
	return tokenURL
}

func (a *serviceAccountAuthenticator) exchange(ctx context.Context, assertion string) (string, int, error) {
	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURI(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gcsauth: token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("gcsauth: token exchange returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("gcsauth: decoding token response: %w", err)
	}
	return body.AccessToken, body.ExpiresIn, nil
}
