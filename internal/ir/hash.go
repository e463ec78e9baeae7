package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInstance = "exgen/instance/v1"
	DomainTemplate = "exgen/template/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InstanceFingerprint computes the content hash of an exercise instance.
// The Fingerprint field itself is excluded, so the value is stable whether
// or not it has already been stamped. Two generations of the same
// (template, seed) pair produce the same fingerprint.
func InstanceFingerprint(inst *ExerciseInstance) (string, error) {
	if inst == nil {
		return "", fmt.Errorf("InstanceFingerprint: nil instance")
	}
	unstamped := *inst
	unstamped.Fingerprint = ""

	canonical, err := MarshalCanonical(unstamped)
	if err != nil {
		return "", fmt.Errorf("InstanceFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInstance, canonical), nil
}

// TemplateHash computes the content hash of a template definition.
//
// Canonical JSON sorts object keys, which would hide a change in variable or
// compute declaration order. Declaration order changes sampling and
// evaluation, so the hash also covers the ordered name list.
func TemplateHash(t *Template) (string, error) {
	if t == nil {
		return "", fmt.Errorf("TemplateHash: nil template")
	}
	tree, err := toCanonicalTree(t)
	if err != nil {
		return "", fmt.Errorf("TemplateHash: %w", err)
	}

	order := make([]any, 0, len(t.Variables))
	for _, v := range t.Variables {
		order = append(order, "var:"+v.Name)
	}
	for _, step := range t.SolutionSteps {
		for _, a := range step.Compute {
			order = append(order, "compute:"+a.Name)
		}
	}

	canonical, err := MarshalCanonical(map[string]any{
		"template": tree,
		"order":    order,
	})
	if err != nil {
		return "", fmt.Errorf("TemplateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTemplate, canonical), nil
}

// MustInstanceFingerprint is like InstanceFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustInstanceFingerprint(inst *ExerciseInstance) string {
	fp, err := InstanceFingerprint(inst)
	if err != nil {
		panic(err)
	}
	return fp
}

// MustTemplateHash is like TemplateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTemplateHash(t *Template) string {
	h, err := TemplateHash(t)
	if err != nil {
		panic(err)
	}
	return h
}
