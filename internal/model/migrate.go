package model

// All lists every table the service owns, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProvider{},
		&SubscriptionPlan{},
		&UserSubscription{},
		&UsageStats{},
		&AIModel{},
		&Chatbot{},
		&ChatMessage{},
		&ChatbotEvent{},
		&AiConfiguration{},
	}
}
