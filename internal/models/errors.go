package models

import "errors"

// Сентинельные ошибки сервисного слоя. Хендлеры транслируют их в HTTP-статусы.
var (
	ErrNotFound           = errors.New("запись не найдена")
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrEmailTaken         = errors.New("email уже зарегистрирован")
	ErrInvalidCredentials = errors.New("неверные учетные данные")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrTokenExpired       = errors.New("срок действия токена истек")
	ErrPermissionDenied   = errors.New("недостаточно прав")

	ErrCardNotFound      = errors.New("карточка не найдена")
	ErrInvalidTransition = errors.New("недопустимый переход статуса карточки")
	ErrCardNotEditable   = errors.New("карточка недоступна для редактирования")
	ErrCardInUse         = errors.New("карточка используется в сценариях")

	ErrScenarioNotFound  = errors.New("сценарий не найден")
	ErrScenarioIsDefault = errors.New("операция неприменима к рабочему сценарию")
	ErrScenarioNotOwned  = errors.New("сценарий принадлежит другому пользователю")
	ErrDuplicatePosition = errors.New("повторяющаяся позиция в сценарии")
	ErrCardNotUsable     = errors.New("карточка недоступна для добавления в сценарий")

	ErrValidation = errors.New("ошибка валидации")

	ErrGenerationDisabled = errors.New("генерация отключена администратором")
	ErrDailyLimitReached  = errors.New("достигнут суточный лимит генераций")
	ErrUnknownProvider    = errors.New("неизвестный AI-провайдер")
	ErrProviderFailure    = errors.New("ошибка AI-провайдера")

	ErrInternalServer = errors.New("внутренняя ошибка сервера")
)
