package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleApp = "objgen/ruleapp/v1"
	DomainFuncApp = "objgen/funcapp/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleAppID computes the content-addressed id of a rule application.
// The id is stable across runs and storage round-trips given the same rule
// name and argument values.
func RuleAppID(rule string, args []Value) (string, error) {
	return appID(DomainRuleApp, "rule", rule, args)
}

// FuncAppID computes the content-addressed id of a function application,
// used to key function values in a partial world.
func FuncAppID(fn string, args []Value) (string, error) {
	return appID(DomainFuncApp, "fn", fn, args)
}

func appID(domain, field, name string, args []Value) (string, error) {
	enc, err := encodeValues(args)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", field, name, err)
	}
	canonical, err := MarshalCanonical(map[string]any{field: name, "args": enc})
	if err != nil {
		return "", fmt.Errorf("%s %s: failed to marshal: %w", field, name, err)
	}
	return hashWithDomain(domain, canonical), nil
}
