package main

import (
	"errors"
	"log"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	created = color.New(color.FgGreen).PrintfFunc()
	skipped = color.New(color.FgYellow).PrintfFunc()
	failed  = color.New(color.FgRed).PrintfFunc()
)

func main() {
	cfg := config.Load()

	dsn := cfg.Database.Connection
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding plans...")
	seedPlans(db)

	color.Cyan("Seeding AI models...")
	seedModels(db, cfg.Ai.DefaultProvider, cfg.Ai.DefaultModel)

	color.Cyan("Seeding chat configuration...")
	seedConfigurations(db)

	color.Green("Seeding completed!")
}

func seedPlans(db *gorm.DB) {
	plans := []model.SubscriptionPlan{
		{
			Name: "Free", Slug: "free", Description: "Try a chatbot on your site",
			Price: 0, Currency: "IDR", BillingInterval: string(entity.BillingIntervalMonthly),
			MaxChatbots: 1, MaxMessagesPerMonth: 50,
			Features: datatypes.JSONSlice[string]{"1 chatbot", "50 messages per month", "Embed widget"},
			IsActive: true, IsFree: true, SortOrder: 1,
		},
		{
			Name: "Pro", Slug: "pro", Description: "For growing teams",
			Price: 99000, Currency: "IDR", BillingInterval: string(entity.BillingIntervalMonthly),
			MaxChatbots: 10, MaxMessagesPerMonth: 5000,
			Features: datatypes.JSONSlice[string]{"10 chatbots", "5,000 messages per month", "Custom prompts", "Knowledge base"},
			IsActive: true, SortOrder: 2,
		},
	}

	for _, p := range plans {
		var existing model.SubscriptionPlan
		err := db.Where("slug = ?", p.Slug).First(&existing).Error
		if err == nil {
			skipped("  plan '%s' already exists, skipping\n", p.Slug)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			failed("  lookup of plan '%s' failed: %v\n", p.Slug, err)
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			failed("  creating plan '%s' failed: %v\n", p.Slug, err)
			continue
		}
		created("  created plan %s (%d chatbots, %d messages)\n", p.Name, p.MaxChatbots, p.MaxMessagesPerMonth)
	}
}

func seedModels(db *gorm.DB, provider, modelId string) {
	var count int64
	if err := db.Model(&model.AIModel{}).Where("is_default = ?", true).Count(&count).Error; err != nil {
		failed("  default model lookup failed: %v\n", err)
		return
	}
	if count > 0 {
		skipped("  a default model already exists, skipping\n")
		return
	}

	m := model.AIModel{Name: modelId, Provider: provider, ModelId: modelId, IsDefault: true, IsActive: true}
	if err := db.Create(&m).Error; err != nil {
		failed("  creating default model failed: %v\n", err)
		return
	}
	created("  created default model %s/%s\n", provider, modelId)
}

func seedConfigurations(db *gorm.DB) {
	configs := []model.AiConfiguration{
		{
			Key: entity.AiConfigKeyGlobalPrompt, ValueType: entity.AiConfigValueTypeString, Category: "chat",
			Value:       "You are a helpful assistant embedded on a business website. Answer clearly and stay on topic.",
			Description: "System prompt used when a chatbot has no custom prompt",
		},
		{
			Key: entity.AiConfigKeyTemperature, ValueType: entity.AiConfigValueTypeNumber, Category: "chat",
			Value: "0.7", Description: "Sampling temperature when a chatbot sets none",
		},
		{
			Key: entity.AiConfigKeyMaxTokens, ValueType: entity.AiConfigValueTypeNumber, Category: "chat",
			Value: "2000", Description: "Reply token cap when a chatbot sets none",
		},
	}

	for _, c := range configs {
		var existing model.AiConfiguration
		if err := db.Where("key = ?", c.Key).First(&existing).Error; err == nil {
			skipped("  configuration '%s' already exists, skipping\n", c.Key)
			continue
		}
		if err := db.Create(&c).Error; err != nil {
			failed("  creating configuration '%s' failed: %v\n", c.Key, err)
			continue
		}
		created("  created configuration %s = %s\n", c.Key, c.Value)
	}
}
