// Package ai содержит провайдеров генерации план-конспектов и сборку промта.
package ai

import "context"

// Result - результат генерации план-конспекта.
type Result struct {
	Text  string
	Model string
	Raw   map[string]any
}

// Params - параметры одного запроса генерации.
type Params struct {
	AIMode      string
	Temperature *float64
	Model       string
	// UserContent - JSON с данными занятия, уходит отдельным user-сообщением.
	UserContent string
}

// Provider генерирует план-конспект по системному промту и данным занятия.
type Provider interface {
	Name() string
	GeneratePlan(ctx context.Context, prompt string, params Params) (Result, error)
}
