package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"lesson-server/internal/models"
)

// LessonPassport - общая информация о занятии.
type LessonPassport struct {
	Title            string `json:"title"`
	Subject          string `json:"subject"`
	Grade            string `json:"grade"`
	LessonGoal       string `json:"lesson_goal"`
	Emotionality     string `json:"emotionality"`
	DayTime          string `json:"day_time"`
	GroupSize        int    `json:"group_size"`
	TeacherNotes     string `json:"teacher_notes"`
	DurationMinTotal int    `json:"duration_min_total"`
}

// LessonTechnique - один дидактический прием сценария.
type LessonTechnique struct {
	Position    int    `json:"position"`
	CardID      int64  `json:"card_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin int    `json:"duration_min"`
}

// LessonInput - данные занятия, уходящие провайдеру отдельным user-JSON.
type LessonInput struct {
	Passport       LessonPassport    `json:"passport"`
	Techniques     []LessonTechnique `json:"techniques"`
	SubjectContent string            `json:"subject_content"`
}

// BuildLessonInput собирает входные данные генерации из сценария и его позиций.
// Позиции без подтянутой карточки пропускаются.
func BuildLessonInput(scenario *models.Scenario, items []models.ScenarioItem) LessonInput {
	passport := LessonPassport{
		Emotionality:     scenario.Emotionality,
		DayTime:          scenario.DayTime,
		GroupSize:        scenario.GroupSize,
		TeacherNotes:     scenario.TeacherNotes,
		DurationMinTotal: scenario.DurationMin,
	}
	if scenario.Name != nil {
		passport.Title = *scenario.Name
	}
	if scenario.Subject != nil {
		passport.Subject = *scenario.Subject
	}
	if scenario.Grade != nil {
		passport.Grade = fmt.Sprintf("%d", *scenario.Grade)
	}
	if scenario.Goal != nil {
		passport.LessonGoal = *scenario.Goal
	}

	techniques := make([]LessonTechnique, 0, len(items))
	for _, it := range items {
		if it.Card == nil {
			continue
		}
		duration := it.Card.DurationMin
		if it.CustomDurationMin != nil {
			duration = *it.CustomDurationMin
		}
		techniques = append(techniques, LessonTechnique{
			Position:    it.Position,
			CardID:      it.TechniqueCardID,
			Title:       it.Card.Title,
			Description: it.Card.DescriptionHTML,
			DurationMin: duration,
		})
	}

	return LessonInput{
		Passport:       passport,
		Techniques:     techniques,
		SubjectContent: scenario.SubjectContent,
	}
}

// systemPrompt - инструкция для модели. Режим следования сценарию
// подставляется из настроек сценария.
const systemPrompt = `Ты - опытный методист. По данным занятия (LESSON_INPUT_JSON ниже) составь
подробный план-конспект урока на русском языке в формате HTML.

Требования:
1. Используй паспорт занятия (предмет, класс, цель, длительность, эмоциональное состояние класса).
2. Пройди по списку techniques в порядке position, для каждого приема распиши
   действия учителя и учеников и укажи время (duration_min).
3. Встрой subject_content в содержательную часть урока.
4. Режим "%s": strict - строго следуй сценарию; balanced - допускаются небольшие
   методические дополнения; free - сценарий является ориентиром, дополняй свободно.
5. Ответ - только HTML без markdown-ограждений.`

// BuildPrompt склеивает системную инструкцию и JSON данных занятия.
// Возвращает полный промт (для журнала) и user-JSON (для провайдера).
func BuildPrompt(input LessonInput, aiMode string) (prompt string, userContent string, err error) {
	if aiMode == "" {
		aiMode = models.AIModeBalanced
	}
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("не удалось сериализовать данные занятия: %w", err)
	}
	userContent = string(data)

	var b strings.Builder
	fmt.Fprintf(&b, systemPrompt, aiMode)
	b.WriteString("\n\nLESSON_INPUT_JSON:\n")
	b.WriteString(userContent)
	return b.String(), userContent, nil
}
