package entitlement

const (
	DefaultMaxChatbots         = 1
	DefaultMaxMessagesPerMonth = 50
)

// LimitSource records where a Limits value came from.
type LimitSource string

const (
	SourceSubscription LimitSource = "subscription"
	SourceFreePlan     LimitSource = "free_plan"
	SourceDefault      LimitSource = "default"
)

type Limits struct {
	MaxChatbots         int         `json:"max_chatbots"`
	MaxMessagesPerMonth int         `json:"max_messages_per_month"`
	PlanName            string      `json:"plan_name,omitempty"`
	Source              LimitSource `json:"source"`
}

// DefaultLimits is the last-resort fallback when no plan can be found.
func DefaultLimits() Limits {
	return Limits{
		MaxChatbots:         DefaultMaxChatbots,
		MaxMessagesPerMonth: DefaultMaxMessagesPerMonth,
		Source:              SourceDefault,
	}
}

type Usage struct {
	MessageCount int `json:"message_count"`
	ChatbotCount int `json:"chatbot_count"`
}

// Normalize clamps counters at zero.
func (u Usage) Normalize() Usage {
	if u.MessageCount < 0 {
		u.MessageCount = 0
	}
	if u.ChatbotCount < 0 {
		u.ChatbotCount = 0
	}
	return u
}
