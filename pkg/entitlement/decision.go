package entitlement

import "math"

// Status tells a verified answer apart from a cautious denial issued because
// limits or usage could not be read.
type Status string

const (
	StatusVerified Status = "verified"
	StatusDegraded Status = "degraded"
)

type Decision struct {
	IsWithinMessageLimit bool   `json:"is_within_message_limit"`
	IsWithinChatbotLimit bool   `json:"is_within_chatbot_limit"`
	IsWithinLimits       bool   `json:"is_within_limits"`
	PercentageUsed       int    `json:"percentage_used"`
	Limits               Limits `json:"limits"`
	Usage                Usage  `json:"usage"`
	Status               Status `json:"status"`
}

// Decide is a pure function of limits and usage.
func Decide(limits Limits, usage Usage) Decision {
	usage = usage.Normalize()

	withinMessages := usage.MessageCount < limits.MaxMessagesPerMonth
	withinChatbots := usage.ChatbotCount < limits.MaxChatbots

	return Decision{
		IsWithinMessageLimit: withinMessages,
		IsWithinChatbotLimit: withinChatbots,
		IsWithinLimits:       withinMessages && withinChatbots,
		PercentageUsed:       PercentageUsed(usage.MessageCount, limits.MaxMessagesPerMonth),
		Limits:               limits,
		Usage:                usage,
		Status:               StatusVerified,
	}
}

// Denied is the zeroed, fully denied result returned when verification fails.
func Denied() Decision {
	return Decision{Status: StatusDegraded}
}

func (d Decision) IsDegraded() bool {
	return d.Status == StatusDegraded
}

// PercentageUsed rounds count/limit to a whole percent. A non-positive limit
// counts as fully used.
func PercentageUsed(count, limit int) int {
	if limit <= 0 {
		return 100
	}
	if count <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(limit) * 100))
}
