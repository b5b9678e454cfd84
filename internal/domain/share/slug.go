package share

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"jan-server/services/conversation-api/internal/utils/idgen"
)

const (
	// SlugLength is the length of the random slug (22 chars, ~131 bits in base62)
	SlugLength = 22

	Base62Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	MaxSlugRetries = 5
)

// SlugGenerator generates random slugs that are not yet taken
type SlugGenerator struct {
	repo ShareRepository
}

func NewSlugGenerator(repo ShareRepository) *SlugGenerator {
	return &SlugGenerator{repo: repo}
}

// GenerateUniqueSlug retries up to MaxSlugRetries times on collision.
func (g *SlugGenerator) GenerateUniqueSlug(ctx context.Context) (string, error) {
	for i := 0; i < MaxSlugRetries; i++ {
		slug, err := GenerateSlug()
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}

		exists, err := g.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug existence: %w", err)
		}
		if !exists {
			return slug, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique slug after %d attempts", MaxSlugRetries)
}

// GenerateSlug generates a cryptographically random 22-character base62 slug
func GenerateSlug() (string, error) {
	charsetLen := big.NewInt(int64(len(Base62Charset)))
	result := make([]byte, SlugLength)

	for i := 0; i < SlugLength; i++ {
		randomIndex, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Charset[randomIndex.Int64()]
	}

	return string(result), nil
}

// ValidateSlug checks if a slug has the correct format
func ValidateSlug(slug string) bool {
	if len(slug) != SlugLength {
		return false
	}
	for _, c := range slug {
		if !isBase62Char(c) {
			return false
		}
	}
	return true
}

func isBase62Char(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// GenerateSharePublicID generates a public ID for a share (shr_xxx format)
func GenerateSharePublicID() (string, error) {
	return idgen.GenerateSecureID("shr", 16)
}
