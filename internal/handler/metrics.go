package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lesson_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_logins_total",
			Help: "Total number of login attempts by status.",
		},
		[]string{"status"},
	)

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_token_verifications_total",
			Help: "Total number of access token verification attempts by status.",
		},
		[]string{"status"},
	)

	cardModerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_card_moderations_total",
			Help: "Total number of card moderation decisions by outcome.",
		},
		[]string{"outcome"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_plan_generations_total",
			Help: "Total number of plan generation requests by status.",
		},
		[]string{"provider", "status"},
	)
)
