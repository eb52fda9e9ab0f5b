package ai

import (
	"context"
	"fmt"
)

// Compile-time check
var _ Provider = (*DummyProvider)(nil)

// DummyProvider возвращает фиксированный HTML без обращения к внешнему API.
// Используется в разработке и как дешевый режим по умолчанию.
type DummyProvider struct{}

// NewDummyProvider создает заглушечный провайдер.
func NewDummyProvider() *DummyProvider {
	return &DummyProvider{}
}

func (p *DummyProvider) Name() string { return "dummy" }

func (p *DummyProvider) GeneratePlan(_ context.Context, _ string, params Params) (Result, error) {
	mode := params.AIMode
	if mode == "" {
		mode = "balanced"
	}
	html := fmt.Sprintf(
		"<h2>План-конспект (заглушка)</h2>"+
			"<p>Это временный результат генерации.</p>"+
			"<p><b>AI mode:</b> %s</p>",
		mode,
	)
	return Result{
		Text:  html,
		Model: "dummy-1",
		Raw:   map[string]any{"ok": true},
	}, nil
}
