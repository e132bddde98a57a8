// Package meeting builds video-call links for virtual exchanges
package meeting

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/skillswap/skillswap-api/pkg/slug"
)

const (
	roomPrefix   = "skillswap"
	suffixLength = 8
	suffixChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generator builds Jitsi-style room URLs:
// {baseURL}/skillswap-{userA}-{userB}-{skill}-{8 random chars}
type Generator struct {
	baseURL string
	random  io.Reader
}

// NewGenerator creates a link generator rooted at baseURL
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		random:  rand.Reader,
	}
}

// GenerateLink returns a fresh room URL for the two users and skill. The
// random suffix keeps rooms for repeated sessions distinct.
func (g *Generator) GenerateLink(userA, userB, skillName string) (string, error) {
	suffix, err := g.suffix()
	if err != nil {
		return "", fmt.Errorf("failed to generate meeting room suffix: %w", err)
	}

	parts := []string{roomPrefix}
	for _, p := range []string{userA, userB, skillName} {
		if s := slug.Generate(p); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, suffix)

	return g.baseURL + "/" + url.PathEscape(strings.Join(parts, "-")), nil
}

func (g *Generator) suffix() (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = suffixChars[int(b)%len(suffixChars)]
	}
	return string(buf), nil
}
