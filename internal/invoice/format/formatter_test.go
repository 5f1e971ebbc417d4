package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberDefaultTemplate(t *testing.T) {
	issued := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)

	number, err := Number(DefaultNumberTemplate, issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20250620-000042", number)
}

func TestNumberTokens(t *testing.T) {
	issued := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	number, err := Number("{YY}{MM}/{SEQ}", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "2501/7", number)

	number, err = Number("A-{SEQ3}", issued, 12345)
	require.NoError(t, err)
	assert.Equal(t, "A-12345", number)
}

func TestNumberErrors(t *testing.T) {
	issued := time.Now()

	_, err := Number("", issued, 1)
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = Number(DefaultNumberTemplate, issued, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = Number("INV-{HH}-{SEQ}", issued, 1)
	assert.ErrorIs(t, err, ErrUnresolvedTokens)
}
