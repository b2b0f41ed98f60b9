package mail_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seller_escalation_bot/internal/domain/mail"
)

func TestSplitAddresses(t *testing.T) {
	valid, invalid := mail.SplitAddresses(" owner@shop.example , bad-address; ops@shop.example,, x@localhost ")
	assert.Equal(t, []string{"owner@shop.example", "ops@shop.example"}, valid)
	assert.Equal(t, []string{"bad-address", "x@localhost"}, invalid)
}

func TestSplitAddresses_Empty(t *testing.T) {
	valid, invalid := mail.SplitAddresses("  ")
	assert.Empty(t, valid)
	assert.Empty(t, invalid)
}
