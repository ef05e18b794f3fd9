package mocks

//go:generate mockgen -destination=./llm_provider_mock.go -package=mocks calmnest-api/internal/llm Provider
//go:generate mockgen -destination=./notifier_mock.go -package=mocks calmnest-api/internal/checkin Notifier
//go:generate mockgen -destination=./telegram_provider_mock.go -package=mocks calmnest-api/internal/chatbot TelegramProvider
//go:generate mockgen -destination=./chatbot_service_mock.go -package=mocks calmnest-api/internal/chatbot ChatbotService

// This file contains go:generate directives for creating mocks.
// Generated mocks only reference types from their method signatures, so
// packages whose interfaces are mocked here can still use them in tests.
