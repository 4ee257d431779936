package notificationsvc

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"townbook/model"
	notifrepo "townbook/repository/notification"
	"townbook/util/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotFound = errors.New("notification not found")

type Service interface {
	// Notifier surface consumed by the reservation state machine.
	Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType, relatedID int64) error
	NotifyRole(ctx context.Context, role model.Role, title, message string, typ model.NotificationType, relatedID int64) error

	// User-facing API.
	ListMine(ctx context.Context, userID int64) ([]model.Notification, error)
	Get(ctx context.Context, userID, id int64) (*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) error
}

type service struct {
	r          notifrepo.Repo
	webhookURL string
	log        *slog.Logger
}

func New(r notifrepo.Repo, webhookURL string, log *slog.Logger) Service {
	return &service{r: r, webhookURL: webhookURL, log: log}
}

func (s *service) Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType, relatedID int64) error {
	n := &model.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		RelatedID: &relatedID,
	}
	if err := s.r.Insert(ctx, n); err != nil {
		return err
	}
	s.pushWebhook(ctx, n)
	return nil
}

func (s *service) NotifyRole(ctx context.Context, role model.Role, title, message string, typ model.NotificationType, relatedID int64) error {
	ids, err := s.r.UserIDsByRole(ctx, role)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Notify(ctx, id, title, message, typ, relatedID); err != nil {
			// Keep fanning out; one recipient failing should not starve the rest.
			s.log.Warn("notify recipient failed", "user_id", id, "err", err)
		}
	}
	return nil
}

// pushWebhook mirrors the notification to an external push/email bridge.
// Best effort: failures are logged and dropped.
func (s *service) pushWebhook(ctx context.Context, n *model.Notification) {
	if s.webhookURL == "" {
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		s.log.Warn("webhook marshal failed", "err", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("webhook request failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpx.Client().Do(req)
	if err != nil {
		s.log.Warn("webhook post failed", "url", s.webhookURL, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.log.Warn("webhook rejected", "url", s.webhookURL, "status", resp.StatusCode)
	}
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, id int64) (*model.Notification, error) {
	n, err := s.r.ByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error) {
	ok, err := s.r.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.r.MarkAllRead(ctx, userID)
}

func (s *service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.r.UnreadCount(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	ok, err := s.r.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
