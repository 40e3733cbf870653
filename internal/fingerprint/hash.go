package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/dcge/internal/ast"
	"github.com/roach88/dcge/internal/intent"
)

// Domain prefixes. The version suffix allows changing the serialization
// without colliding with stored hashes.
const (
	DomainIntent = "dcge/intent/v1"
	DomainTree   = "dcge/tree/v1"
	DomainSource = "dcge/source/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// IntentHash identifies an intent by content.
func IntentHash(spec intent.Spec) (string, error) {
	constraints := spec.Constraints
	if constraints == nil {
		constraints = []string{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"language":    string(spec.Language),
		"kind":        string(spec.Kind),
		"name":        spec.Name,
		"purpose":     spec.Purpose,
		"operation":   spec.Operation,
		"constraints": constraints,
		"docstring":   spec.Docstring,
	})
	if err != nil {
		return "", fmt.Errorf("IntentHash: %w", err)
	}
	return hashWithDomain(DomainIntent, canonical), nil
}

// TreeHash identifies a tree by shape and content.
func TreeHash(n ast.Node) (string, error) {
	canonical, err := MarshalCanonical(TreeValue(n))
	if err != nil {
		return "", fmt.Errorf("TreeHash: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// SourceHash identifies emitted source text.
func SourceHash(src string) string {
	canonical, _ := MarshalCanonical(src)
	return hashWithDomain(DomainSource, canonical)
}
