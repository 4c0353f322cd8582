package registration

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// maxCodeAttempts bounds the collision retry loop. With 36^8 possible
	// codes a handful of attempts is already far more than enough.
	maxCodeAttempts = 5
)

// CodeGenerator issues 8-character confirmation codes drawn uniformly from
// [A-Z0-9].
type CodeGenerator struct {
	// Rand defaults to crypto/rand.Reader; tests may substitute it.
	Rand io.Reader
}

// Generate returns a single candidate code. Uniformity is kept by rejection
// sampling: 252 is the largest multiple of 36 below 256, bytes at or above
// it are discarded.
func (g *CodeGenerator) Generate() (string, error) {
	source := g.Rand
	if source == nil {
		source = rand.Reader
	}

	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)

	for len(code) < codeLength {
		if _, err := io.ReadFull(source, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= 252 {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}

	return string(code), nil
}

// GenerateUnique retries Generate until the exists probe reports the code as
// unused, up to maxCodeAttempts.
func (g *CodeGenerator) GenerateUnique(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}

		if !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("no unique confirmation code after %d attempts", maxCodeAttempts)
}
