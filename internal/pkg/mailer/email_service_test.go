package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitReachedBody(t *testing.T) {
	body := limitReachedBody(LimitReachedNotice{
		FullName:   "<b>Ana</b>",
		PlanName:   "Free",
		Limit:      50,
		ResetsAt:   "2026-11-01",
		UpgradeURL: "https://app.example.com/pricing",
	})

	assert.Contains(t, body, "&lt;b&gt;Ana&lt;/b&gt;")
	assert.Contains(t, body, "<strong>50</strong>")
	assert.Contains(t, body, "2026-11-01")
	assert.Contains(t, body, `href="https://app.example.com/pricing"`)
}

func TestLimitReachedBody_DefaultGreeting(t *testing.T) {
	assert.Contains(t, limitReachedBody(LimitReachedNotice{PlanName: "Pro"}), "Hi there,")
}
