package season

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetween(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Year{2020, 2021, 2022}, Between(2020, 2022))
	assert.Nil(t, Between(2022, 2020))
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Year{2023, 2024}, Dedupe([]Year{2024, 0, 2023, 2024}))
}

func TestFromStartDate(t *testing.T) {
	t.Parallel()

	y, ok := FromStartDate("2024-08-16")
	assert.True(t, ok)
	assert.Equal(t, 2024, y)

	_, ok = FromStartDate("n/a")
	assert.False(t, ok)
}
