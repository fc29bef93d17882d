// internal/fault/fault_test.go
package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		err  error
		kind Kind
	}{
		{Validation("bad input"), KindValidation},
		{NotFound("loan 7 not found"), KindNotFound},
		{Rejected("loan already returned"), KindRejected},
		{Infrastructure("storage down", errors.New("dial tcp")), KindInfrastructure},
		{errors.New("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.kind, KindOf(tt.err))
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Rejected("borrower is restricted"))

	assert.Equal(t, KindRejected, KindOf(err))
	assert.Equal(t, "borrower is restricted", MessageOf(err))
}

func TestInfrastructureHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Infrastructure("loan storage unavailable, please retry", cause)

	assert.Equal(t, "loan storage unavailable, please retry", MessageOf(err))
	assert.ErrorIs(t, err, cause, "cause stays reachable for logs")
}

func TestMessageOfUnclassified(t *testing.T) {
	assert.Equal(t, "internal error, please retry", MessageOf(errors.New("boom")))
}
