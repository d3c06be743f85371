package env

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	ethAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	privateKeyPattern = regexp.MustCompile("^(0x)?[0-9a-fA-F]{64}$")
)

func IsEmpty(value string) bool {
	return value == ""
}

// Ethereum Address
func IsValidEthAddress(address string) bool {
	return ethAddressPattern.MatchString(address)
}

// ECDSA Private Key, with or without 0x prefix
func IsValidPrivateKey(privateKey string) bool {
	return privateKeyPattern.MatchString(privateKey)
}

// URL with an http(s) scheme and a host. Paths are allowed since RPC endpoints usually carry an API key in them.
func IsValidURL(raw string) bool {
	return hasSchemeAndHost(raw, "http", "https")
}

// Mongo connection string
func IsValidMongoURI(raw string) bool {
	return hasSchemeAndHost(raw, "mongodb", "mongodb+srv")
}

// Redis connection string
func IsValidRedisURL(raw string) bool {
	return hasSchemeAndHost(raw, "redis", "rediss")
}

func hasSchemeAndHost(raw string, schemes ...string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			return true
		}
	}
	return false
}
