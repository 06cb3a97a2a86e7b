// Package urltoken encodes navigation state into fixed-length opaque URL
// tokens so protected routes and session identifiers are not visible in the
// browser address bar.
//
// This is obfuscation, not encryption: the XOR key travels inside the same
// token as the ciphertext it covers, so any holder of a token can recover the
// session id. Treat tokens as a cosmetic URL layer only, never as an
// access-control or confidentiality mechanism.
package urltoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TokenLength is the exact size of every encoded token, in hex characters.
const TokenLength = 128

// DefaultRoute is returned by Decode when the embedded route code is unknown.
const DefaultRoute = "/dashboard"

// fallbackCode is embedded for routes missing from the route table.
const fallbackCode = "00"

// routeCodes maps each navigable frontend route to its 2-digit token code.
var routeCodes = map[string]string{
	"/dashboard":     "01",
	"/profile":       "02",
	"/applications":  "03",
	"/tasks":         "04",
	"/helpdesk":      "05",
	"/messages":      "06",
	"/sessions":      "07",
	"/admin/users":   "08",
	"/admin/config":  "09",
	"/notifications": "10",
}

var codeRoutes = func() map[string]string {
	m := make(map[string]string, len(routeCodes))
	for route, code := range routeCodes {
		m[code] = route
	}
	return m
}()

var tokenPattern = regexp.MustCompile(`^[a-fA-F0-9]{128}$`)

// KnownRoute reports whether route has an entry in the route table.
func KnownRoute(route string) bool {
	_, ok := routeCodes[route]
	return ok
}

// IsValid reports whether s has the shape of an encoded token.
func IsValid(s string) bool {
	return tokenPattern.MatchString(s)
}

// Encode produces a 128-hex-char token embedding the session id and route.
//
// Layout (hex character offsets):
//
//	[0:64]    random prefix; its first 32 chars double as the XOR key
//	[64:96]   session id (dash-stripped UUID) XORed with the key
//	[96:100]  route code, zero-padded
//	[100:112] low 48 bits of the current epoch-milliseconds
//	[112:128] random suffix padding
//
// sessionID must be a 36-character UUID string. Unmapped routes are encoded
// with the fallback code and decode to DefaultRoute.
func Encode(sessionID, route string) (string, error) {
	plain, err := sessionBytes(sessionID)
	if err != nil {
		return "", err
	}

	prefixRaw := make([]byte, 32)
	if _, err := rand.Read(prefixRaw); err != nil {
		return "", fmt.Errorf("urltoken: random prefix: %w", err)
	}
	prefix := hex.EncodeToString(prefixRaw)

	key, err := hex.DecodeString(prefix[:32])
	if err != nil {
		return "", fmt.Errorf("urltoken: derive key: %w", err)
	}

	cipher := make([]byte, len(plain))
	for i := range plain {
		cipher[i] = plain[i] ^ key[i]
	}

	code, ok := routeCodes[route]
	if !ok {
		code = fallbackCode
	}

	suffixRaw := make([]byte, 8)
	if _, err := rand.Read(suffixRaw); err != nil {
		return "", fmt.Errorf("urltoken: random suffix: %w", err)
	}

	token := prefix +
		hex.EncodeToString(cipher) +
		"00" + code +
		fmt.Sprintf("%012x", uint64(time.Now().UnixMilli())&0xFFFFFFFFFFFF) +
		hex.EncodeToString(suffixRaw)

	return token[:TokenLength], nil
}

// Decode extracts the session id and route from a token. ok is false for any
// malformed input; Decode never panics.
func Decode(token string) (sessionID, route string, ok bool) {
	if !IsValid(token) {
		return "", "", false
	}
	token = strings.ToLower(token)

	key, err := hex.DecodeString(token[0:32])
	if err != nil {
		return "", "", false
	}
	cipher, err := hex.DecodeString(token[64:96])
	if err != nil {
		return "", "", false
	}

	plain := make([]byte, len(cipher))
	for i := range cipher {
		plain[i] = cipher[i] ^ key[i]
	}

	stripped := hex.EncodeToString(plain)
	sessionID = stripped[0:8] + "-" + stripped[8:12] + "-" + stripped[12:16] + "-" +
		stripped[16:20] + "-" + stripped[20:32]

	// The route code occupies the last two characters of its zero-padded field.
	route, found := codeRoutes[token[98:100]]
	if !found {
		route = DefaultRoute
	}

	return sessionID, route, true
}

// sessionBytes strips the dashes from a UUID-formatted session id and decodes
// the remaining 32 hex characters.
func sessionBytes(sessionID string) ([]byte, error) {
	if len(sessionID) != 36 {
		return nil, fmt.Errorf("urltoken: session id must be a 36-character UUID")
	}
	stripped := strings.ReplaceAll(sessionID, "-", "")
	if len(stripped) != 32 {
		return nil, fmt.Errorf("urltoken: malformed session id")
	}
	raw, err := hex.DecodeString(strings.ToLower(stripped))
	if err != nil {
		return nil, fmt.Errorf("urltoken: session id is not hex: %w", err)
	}
	return raw, nil
}

// Routes returns the navigable routes present in the route table.
func Routes() []string {
	out := make([]string, 0, len(routeCodes))
	for route := range routeCodes {
		out = append(out, route)
	}
	return out
}
