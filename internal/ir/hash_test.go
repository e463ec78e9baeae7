package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInstance() *ExerciseInstance {
	return &ExerciseInstance{
		TemplateID:    "force-1",
		LessonID:      "dynamics",
		Title:         "Force",
		Seed:          42,
		Values:        Bindings{"m": Number(2)},
		Computed:      Bindings{"v": Number(19.6)},
		Statement:     "m = 2",
		SolutionSteps: []RenderedStep{{Step: 1, Title: "Force", Content: "F = 19.6 N"}},
		FinalAnswer:   "19.6 N",
		Hints:         []string{},
	}
}

func TestInstanceFingerprintDeterminism(t *testing.T) {
	fp1, err := InstanceFingerprint(sampleInstance())
	require.NoError(t, err)
	fp2, err := InstanceFingerprint(sampleInstance())
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2, "InstanceFingerprint must be deterministic")
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestInstanceFingerprintIgnoresStampedFingerprint(t *testing.T) {
	inst := sampleInstance()
	before := MustInstanceFingerprint(inst)
	inst.Fingerprint = before
	assert.Equal(t, before, MustInstanceFingerprint(inst))
}

func TestInstanceFingerprintChangesWithContent(t *testing.T) {
	base := MustInstanceFingerprint(sampleInstance())

	seed := sampleInstance()
	seed.Seed = 43
	computed := sampleInstance()
	computed.Computed["v"] = Number(19.7)

	assert.NotEqual(t, base, MustInstanceFingerprint(seed))
	assert.NotEqual(t, base, MustInstanceFingerprint(computed))
}

func TestInstanceFingerprintNil(t *testing.T) {
	_, err := InstanceFingerprint(nil)
	assert.Error(t, err)
}

func TestTemplateHashCoversDeclarationOrder(t *testing.T) {
	a := &Template{
		ID:        "t",
		Statement: "{{x}} {{y}}",
		Variables: Variables{
			{Name: "x", Type: TypeInteger, Min: ptr(1.0), Max: ptr(5.0)},
			{Name: "y", Type: TypeInteger, Min: ptr(1.0), Max: ptr(5.0)},
		},
	}
	b := &Template{
		ID:        "t",
		Statement: "{{x}} {{y}}",
		Variables: Variables{a.Variables[1], a.Variables[0]},
	}

	assert.Equal(t, MustTemplateHash(a), MustTemplateHash(a))
	assert.NotEqual(t, MustTemplateHash(a), MustTemplateHash(b),
		"swapping sampling order changes generated values, so it must change the hash")
}

func TestHashDomainsAreSeparated(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainInstance, data), hashWithDomain(DomainTemplate, data))
}
