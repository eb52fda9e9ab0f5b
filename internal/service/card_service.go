package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// CardInput - редактируемые поля методической карточки.
type CardInput struct {
	Title           string `json:"title"`
	DescriptionHTML string `json:"description_html"`
	DurationMin     int    `json:"duration_min"`

	AgeA1 bool `json:"age_a1"`
	AgeA2 bool `json:"age_a2"`
	AgeA3 bool `json:"age_a3"`

	ActivityType string `json:"activity_type"`

	WorkIndividual bool `json:"work_individual"`
	WorkGroup      bool `json:"work_group"`

	BloomLevel string `json:"bloom_level"`

	KCritical      bool `json:"k_critical"`
	KCreative      bool `json:"k_creative"`
	KCommunication bool `json:"k_communication"`
	KCollaboration bool `json:"k_collaboration"`

	StageStart bool `json:"stage_start"`
	StageCore  bool `json:"stage_core"`
	StageFinal bool `json:"stage_final"`

	CardKind string `json:"card_kind"`
}

// CardService управляет карточками и процессом их модерации.
type CardService interface {
	Create(ctx context.Context, actor *models.User, input CardInput) (*models.TechniqueCard, error)
	Get(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error)
	Update(ctx context.Context, actor *models.User, id int64, input CardInput) (*models.TechniqueCard, error)
	// Archive переводит карточку в archived (мягкое удаление).
	Archive(ctx context.Context, actor *models.User, id int64) error
	Submit(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error)
	Approve(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error)
	Reject(ctx context.Context, actor *models.User, id int64, reason string) (*models.TechniqueCard, error)
	List(ctx context.Context, actor *models.User, filter models.CardFilter) ([]*models.TechniqueCard, int, error)
}

// Compile-time check
var _ CardService = (*cardServiceImpl)(nil)

type cardServiceImpl struct {
	db       repository.DBTX
	cardRepo repository.CardRepository
	audit    AuditLogger
	logger   *zap.Logger
}

// NewCardService создает сервис карточек.
func NewCardService(db repository.DBTX, cardRepo repository.CardRepository, audit AuditLogger, logger *zap.Logger) CardService {
	return &cardServiceImpl{
		db:       db,
		cardRepo: cardRepo,
		audit:    audit,
		logger:   logger.Named("CardService"),
	}
}

func validateCardInput(input *CardInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return fmt.Errorf("%w: название обязательно", models.ErrValidation)
	}
	if input.DurationMin <= 0 {
		return fmt.Errorf("%w: длительность должна быть положительной", models.ErrValidation)
	}
	if !models.ValidActivityType(input.ActivityType) {
		return fmt.Errorf("%w: неизвестный тип активности %q", models.ErrValidation, input.ActivityType)
	}
	if !models.ValidBloomLevel(input.BloomLevel) {
		return fmt.Errorf("%w: неизвестный уровень Блума %q", models.ErrValidation, input.BloomLevel)
	}
	if input.CardKind == "" {
		input.CardKind = models.CardKindTechnique
	}
	if !models.ValidCardKind(input.CardKind) {
		return fmt.Errorf("%w: неизвестный вид карточки %q", models.ErrValidation, input.CardKind)
	}
	// В каждой группе флагов должен быть хотя бы один: иначе карточку
	// нельзя подобрать ни под один урок.
	if !input.AgeA1 && !input.AgeA2 && !input.AgeA3 {
		return fmt.Errorf("%w: укажите хотя бы один возрастной уровень", models.ErrValidation)
	}
	if !input.WorkIndividual && !input.WorkGroup {
		return fmt.Errorf("%w: укажите хотя бы один формат работы", models.ErrValidation)
	}
	if !input.StageStart && !input.StageCore && !input.StageFinal {
		return fmt.Errorf("%w: укажите хотя бы один этап урока", models.ErrValidation)
	}
	return nil
}

func applyCardInput(card *models.TechniqueCard, input CardInput) {
	card.Title = input.Title
	card.DescriptionHTML = input.DescriptionHTML
	card.DurationMin = input.DurationMin
	card.AgeA1 = input.AgeA1
	card.AgeA2 = input.AgeA2
	card.AgeA3 = input.AgeA3
	card.ActivityType = input.ActivityType
	card.WorkIndividual = input.WorkIndividual
	card.WorkGroup = input.WorkGroup
	card.BloomLevel = input.BloomLevel
	card.KCritical = input.KCritical
	card.KCreative = input.KCreative
	card.KCommunication = input.KCommunication
	card.KCollaboration = input.KCollaboration
	card.StageStart = input.StageStart
	card.StageCore = input.StageCore
	card.StageFinal = input.StageFinal
	card.CardKind = input.CardKind
}

func (s *cardServiceImpl) Create(ctx context.Context, actor *models.User, input CardInput) (*models.TechniqueCard, error) {
	if err := validateCardInput(&input); err != nil {
		return nil, err
	}

	card := &models.TechniqueCard{
		OwnerID:  actor.ID,
		AuthorID: actor.ID,
		Status:   models.CardStatusDraft,
	}
	applyCardInput(card, input)

	if err := s.cardRepo.Create(ctx, s.db, card); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionCreate, models.EntityCard,
		fmt.Sprintf("%d", card.ID), map[string]any{"title": card.Title})
	s.logger.Info("Card created", zap.Int64("cardID", card.ID), zap.String("authorID", actor.ID.String()))
	return card, nil
}

func (s *cardServiceImpl) Get(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error) {
	card, err := s.cardRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, card) {
		// Чужие непубличные карточки неотличимы от отсутствующих.
		return nil, models.ErrCardNotFound
	}
	return card, nil
}

func (s *cardServiceImpl) canView(actor *models.User, card *models.TechniqueCard) bool {
	if models.IsModerator(actor.Role) {
		return true
	}
	// Архивные карточки скрыты из чтения даже для владельца.
	if card.Status == models.CardStatusArchived {
		return false
	}
	if card.Status == models.CardStatusPublic {
		return true
	}
	return card.OwnerID == actor.ID
}

func (s *cardServiceImpl) Update(ctx context.Context, actor *models.User, id int64, input CardInput) (*models.TechniqueCard, error) {
	card, err := s.cardRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if card.AuthorID != actor.ID {
		return nil, models.ErrPermissionDenied
	}
	// Редактируются только draft и rejected. Опубликованную или отправленную
	// на модерацию карточку сначала нужно снять с публикации либо скопировать.
	if card.Status != models.CardStatusDraft && card.Status != models.CardStatusRejected {
		return nil, fmt.Errorf("%w: статус %s", models.ErrCardNotEditable, card.Status)
	}
	if err := validateCardInput(&input); err != nil {
		return nil, err
	}

	applyCardInput(card, input)
	if err := s.cardRepo.Update(ctx, s.db, card); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionUpdate, models.EntityCard,
		fmt.Sprintf("%d", card.ID), map[string]any{"title": card.Title})
	return card, nil
}

func (s *cardServiceImpl) Archive(ctx context.Context, actor *models.User, id int64) error {
	card, err := s.cardRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if card.AuthorID != actor.ID && !models.IsModerator(actor.Role) {
		return models.ErrPermissionDenied
	}
	if card.Status == models.CardStatusArchived {
		return nil
	}

	now := time.Now()
	card.Status = models.CardStatusArchived
	card.ArchivedAt = &now
	if err := s.cardRepo.Update(ctx, s.db, card); err != nil {
		return err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionArchive, models.EntityCard,
		fmt.Sprintf("%d", card.ID), nil)
	s.logger.Info("Card archived", zap.Int64("cardID", card.ID), zap.String("actorID", actor.ID.String()))
	return nil
}

func (s *cardServiceImpl) Submit(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error) {
	card, err := s.cardRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if card.AuthorID != actor.ID {
		return nil, models.ErrPermissionDenied
	}
	if card.Status != models.CardStatusDraft && card.Status != models.CardStatusRejected {
		return nil, fmt.Errorf("%w: отправка на модерацию возможна только из draft/rejected, текущий статус %s",
			models.ErrInvalidTransition, card.Status)
	}

	card.Status = models.CardStatusPending
	if err := s.cardRepo.Update(ctx, s.db, card); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionSubmit, models.EntityCard,
		fmt.Sprintf("%d", card.ID), nil)
	return card, nil
}

func (s *cardServiceImpl) Approve(ctx context.Context, actor *models.User, id int64) (*models.TechniqueCard, error) {
	return s.moderate(ctx, actor, id, models.CardStatusPublic, models.AuditActionApprove, nil)
}

func (s *cardServiceImpl) Reject(ctx context.Context, actor *models.User, id int64, reason string) (*models.TechniqueCard, error) {
	return s.moderate(ctx, actor, id, models.CardStatusRejected, models.AuditActionReject,
		map[string]any{"reason": reason})
}

func (s *cardServiceImpl) moderate(ctx context.Context, actor *models.User, id int64, newStatus, auditAction string, meta map[string]any) (*models.TechniqueCard, error) {
	if !models.IsModerator(actor.Role) {
		return nil, models.ErrPermissionDenied
	}

	card, err := s.cardRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if card.Status != models.CardStatusPending {
		return nil, fmt.Errorf("%w: модерация возможна только из pending, текущий статус %s",
			models.ErrInvalidTransition, card.Status)
	}

	now := time.Now()
	card.Status = newStatus
	card.ModeratedBy = &actor.ID
	card.ModeratedAt = &now
	if err := s.cardRepo.Update(ctx, s.db, card); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, auditAction, models.EntityCard, fmt.Sprintf("%d", card.ID), meta)
	s.logger.Info("Card moderated",
		zap.Int64("cardID", card.ID),
		zap.String("newStatus", newStatus),
		zap.String("moderatorID", actor.ID.String()))
	return card, nil
}

func (s *cardServiceImpl) List(ctx context.Context, actor *models.User, filter models.CardFilter) ([]*models.TechniqueCard, int, error) {
	if filter.Scope == "moderation" && !models.IsModerator(actor.Role) {
		return nil, 0, models.ErrPermissionDenied
	}
	return s.cardRepo.List(ctx, s.db, actor.ID, filter)
}
