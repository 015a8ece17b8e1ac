package slackservice

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
)

var slackTracer = otel.Tracer("slackconsole/slackservice")

// contentFingerprint hashes user-supplied text so spans never carry the
// message body itself.
func contentFingerprint(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(trimmed))
	// First 8 bytes keep fingerprints short while avoiding collisions.
	return fmt.Sprintf("%x", sum[:8])
}
