package redisclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "stock:42", stockKey(42))
	assert.Equal(t, "idempotency:order:reader:abc", idempotencyKey("reader:abc"))
}
