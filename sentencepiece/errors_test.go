package sentencepiece

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestConfigErrorIsClassified(t *testing.T) {
	err := configError("bad piece %d", 3)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.False(t, errors.Is(err, ErrInternal))
	assert.Contains(t, err.Error(), "bad piece 3")
}

func TestInternalErrorIsClassified(t *testing.T) {
	err := internalError("corrupt blob")
	assert.True(t, errors.Is(err, ErrInternal))
	assert.False(t, errors.Is(err, ErrConfig))
}
