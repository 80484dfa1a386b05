package service

import (
	"context"
	"fmt"
	"strings"

	"roastery-service/internal/models"
	"roastery-service/internal/util"

	"go.uber.org/zap"
)

// SubscriberStore is the persistence surface the subscription service
// depends on.
type SubscriberStore interface {
	UpsertSubscriber(ctx context.Context, email, name string) (*models.Subscriber, error)
}

// WelcomeMailer sends the subscriber welcome email.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// SubscriptionService handles newsletter/subscription signups.
type SubscriptionService struct {
	store  SubscriberStore
	mailer WelcomeMailer
	logger *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(st SubscriberStore, mailer WelcomeMailer) *SubscriptionService {
	return &SubscriptionService{
		store:  st,
		mailer: mailer,
		logger: util.GetLogger(),
	}
}

// Subscribe records a signup and sends a best-effort welcome email
func (ss *SubscriptionService) Subscribe(ctx context.Context, email, name string) (*models.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	sub, err := ss.store.UpsertSubscriber(ctx, email, name)
	if err != nil {
		return nil, fmt.Errorf("failed to record subscriber: %w", err)
	}

	util.SubscribersTotal.Inc()

	if err := ss.mailer.SendWelcome(ctx, sub.Email, sub.Name); err != nil {
		util.EmailsFailedTotal.WithLabelValues("welcome").Inc()
		ss.logger.Error("Failed to send welcome email",
			zap.String("email", sub.Email),
			zap.Error(err))
	} else {
		util.EmailsSentTotal.WithLabelValues("welcome").Inc()
	}

	return sub, nil
}
