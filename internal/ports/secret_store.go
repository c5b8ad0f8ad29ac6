package ports

import "context"

// SecretStore keeps shopper session tokens at rest, addressed by refs like
// "shopper/<chat>/session_token". Get returns domain.ErrSecretNotFound for
// an unknown key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
