package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"empty", Params{}, ""},
		{"single", Params{"timestamp": "1"}, "timestamp=1"},
		{"sorted by key", Params{"timestamp": "1700000000", "id": "42"}, "id=42&timestamp=1700000000"},
		{"values not encoded", Params{"q": "a b&c"}, "q=a b&c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.params))
		})
	}
}

func TestGenerate_KnownVectors(t *testing.T) {
	params := Params{"timestamp": "1700000000", "id": "42"}

	assert.Equal(t, "5ac1a366eaa1d0e1f4ff9d7a8d1050bd62d4d6f93245ea74307807700e9e981f", Generate("secret", params))

	sha1Signer := New(WithSecretKey("secret"), WithAlgorithm(SHA1))
	sig, err := sha1Signer.Sign(params)
	require.NoError(t, err)
	assert.Equal(t, "d9a24d29bdf1a85a9312481ae178de3937759ebc", sig)

	assert.Equal(t, "5d5d139563c95b5967b9bd9a8c9b233a9dedb45072794cd232dc1b74832607d0", Generate("key", Params{}))
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Params{}
	a["timestamp"] = "1700000000"
	a["id"] = "7"
	a["page"] = "2"

	b := Params{}
	b["page"] = "2"
	b["id"] = "7"
	b["timestamp"] = "1700000000"

	first := Generate("s3cr3t", a)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Generate("s3cr3t", a))
		assert.Equal(t, first, Generate("s3cr3t", b))
	}
	assert.NotEqual(t, first, Generate("other", a))
}

func TestSigner_SignAndVerify(t *testing.T) {
	signer := New(WithSecretKey("secret"))
	params := Params{"timestamp": "1700000000"}

	sig, err := signer.Sign(params)
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, signer.Verify(params, sig))
	})

	t.Run("tampered params", func(t *testing.T) {
		err := signer.Verify(params.With("id", "1"), sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.True(t, IsAuthError(err))
	})

	t.Run("missing signature", func(t *testing.T) {
		err := signer.Verify(params, "")
		assert.ErrorIs(t, err, ErrMissingSignature)
	})
}

func TestSigner_NoSecretKey(t *testing.T) {
	signer := New()

	_, err := signer.Sign(Params{"timestamp": "1"})
	assert.ErrorIs(t, err, ErrNoSecretKey)
	assert.ErrorIs(t, signer.Verify(Params{}, "abc"), ErrNoSecretKey)
	assert.False(t, IsAuthError(ErrNoSecretKey))
}

func TestWithAlgorithm_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, SHA256, New(WithAlgorithm("md5")).Algorithm())
	assert.Equal(t, SHA1, New(WithAlgorithm(SHA1)).Algorithm())
}

func TestParams_WithDoesNotMutate(t *testing.T) {
	p := Params{"timestamp": "1"}
	q := p.With("id", "9")

	assert.NotContains(t, p, "id")
	assert.Equal(t, "9", q["id"])
}
