package ai

import (
	"fmt"
	"sort"
	"strings"

	"lesson-server/internal/models"
)

// Registry хранит зарегистрированных провайдеров по имени.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry создает реестр с переданными провайдерами.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get возвращает провайдера по имени. Неизвестное имя - ошибка валидации,
// молчаливого отката на заглушку нет.
func (r *Registry) Get(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "dummy"
	}
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q, доступны: %s",
			models.ErrUnknownProvider, name, strings.Join(r.List(), ", "))
	}
	return p, nil
}

// List возвращает отсортированные имена зарегистрированных провайдеров.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
