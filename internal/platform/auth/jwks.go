package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultJWKSCacheTTL = 5 * time.Minute
	// minRefreshInterval bounds refetches triggered by unknown key ids.
	minRefreshInterval = 10 * time.Second
	fetchTimeout       = 10 * time.Second
)

var ErrUnknownKey = errors.New("signing key not found")

// Discovery holds the parts of an OpenID Connect discovery document the
// token verifier needs.
type Discovery struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// Discover reads <issuer>/.well-known/openid-configuration. The document's
// issuer must match the configured one, ignoring a trailing slash.
func Discover(ctx context.Context, client *http.Client, issuer string) (*Discovery, error) {
	issuer = strings.TrimRight(issuer, "/")
	var d Discovery
	if err := getJSON(ctx, client, issuer+"/.well-known/openid-configuration", &d); err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	if d.JWKSURI == "" {
		return nil, fmt.Errorf("discover %s: document has no jwks_uri", issuer)
	}
	if strings.TrimRight(d.Issuer, "/") != issuer {
		return nil, fmt.Errorf("discover %s: document issuer %q does not match", issuer, d.Issuer)
	}
	return &d, nil
}

// JWK is a single RSA JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []JWK `json:"keys"`
}

// KeySet caches the RSA signing keys of an identity provider.
//
// The JWKS location is either given directly or discovered lazily from the
// issuer on first use, so the server starts even while the provider is down.
// Keys are refetched when the cache is older than the TTL or a token names an
// unknown kid. Fetch attempts, failed ones included, are spaced at least
// minRefreshInterval apart; in between, a stale key is served as is.
type KeySet struct {
	issuer string
	ttl    time.Duration
	client *http.Client
	now    func() time.Time

	mu          sync.Mutex
	jwksURL     string
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

func NewKeySet(jwksURL, issuer string, ttl time.Duration) *KeySet {
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}
	return &KeySet{
		issuer:  issuer,
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: fetchTimeout},
		now:     time.Now,
		keys:    map[string]*rsa.PublicKey{},
	}
}

// Key returns the public key for kid.
func (s *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key, ok := s.keys[kid]
	stale := s.fetchedAt.IsZero() || now.Sub(s.fetchedAt) > s.ttl
	if ok && !stale {
		return key, nil
	}
	if now.Sub(s.lastAttempt) >= minRefreshInterval {
		s.lastAttempt = now
		if err := s.refresh(ctx); err != nil {
			if ok {
				// Serve the stale key while the provider is unreachable.
				return key, nil
			}
			return nil, err
		}
		key, ok = s.keys[kid]
	}
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}
	return key, nil
}

// Keyfunc adapts the set to jwt.Parse. Tokens must carry a kid header.
func (s *KeySet) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return s.Key(ctx, kid)
	}
}

// refresh must be called with mu held.
func (s *KeySet) refresh(ctx context.Context) error {
	if s.jwksURL == "" {
		if s.issuer == "" {
			return fmt.Errorf("no JWKS URL or issuer configured")
		}
		d, err := Discover(ctx, s.client, s.issuer)
		if err != nil {
			return err
		}
		s.jwksURL = d.JWKSURI
	}

	var set jwkSet
	if err := getJSON(ctx, s.client, s.jwksURL, &set); err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	s.keys = keys
	s.fetchedAt = s.now()
	return nil
}

func parseRSAPublicKey(k JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
