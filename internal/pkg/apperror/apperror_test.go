package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: timeout")

	assert.Equal(t, KindUpstream, KindOf(Upstream("provider failed", cause)))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", NotFound("user not found"))))
	assert.Equal(t, KindInternal, KindOf(cause))
}

func TestConfiguration_HidesCause(t *testing.T) {
	err := Configuration(errors.New("stripe secret key is a placeholder"))

	assert.Equal(t, "payment system unavailable", err.Message)
	assert.Contains(t, err.Error(), "placeholder")
	assert.True(t, errors.Is(err, err.Err))
}
