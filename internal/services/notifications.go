package services

import (
	"context"
	"encoding/json"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/realtime"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const notificationListLimit = 50

type NotificationService struct {
	deps Deps
}

// NotificationInput addresses a notification to a user, a role, or both.
type NotificationInput struct {
	UserID  *uint
	Role    *string
	Type    string
	Title   string
	Message string
	Data    any
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

func ToUser(id uint) *uint {
	return &id
}

func ToRole(role string) *string {
	return &role
}

// Notify stores a notification and pushes it to the recipient's topic.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) error {
	n := models.Notification{
		RecipientUserID: in.UserID,
		RecipientRole:   in.Role,
		Type:            in.Type,
		Title:           in.Title,
		Message:         in.Message,
	}

	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return err
		}
		n.Data = datatypes.JSON(raw)
	}

	if err := s.deps.conn(ctx).Create(&n).Error; err != nil {
		return err
	}

	if n.RecipientUserID != nil {
		s.deps.publish(realtime.UserTopic(*n.RecipientUserID), types.EventNotificationNew, n)
	}
	if n.RecipientRole != nil {
		s.deps.publish(realtime.RoleTopic(*n.RecipientRole), types.EventNotificationNew, n)
	}

	return nil
}

// schedule runs Notify after commit; failures are logged by the runner.
func (s *NotificationService) schedule(in NotificationInput) {
	s.deps.after("notify:"+in.Type, func(ctx context.Context) error {
		return s.Notify(ctx, in)
	})
}

func (s *NotificationService) visibleTo(ctx context.Context, actor types.AuthenticatedUser) *gorm.DB {
	return s.deps.conn(ctx).Model(&models.Notification{}).
		Where("(recipient_user_id = ? OR recipient_role = ?)", actor.ID, actor.Role)
}

func (s *NotificationService) List(ctx context.Context, actor types.AuthenticatedUser) (NotificationList, error) {
	list := NotificationList{Notifications: []models.Notification{}}

	if err := s.visibleTo(ctx, actor).
		Order("created_at DESC, id DESC").
		Limit(notificationListLimit).
		Find(&list.Notifications).Error; err != nil {
		return list, apperrors.Internal("Failed to fetch notifications", err)
	}

	if err := s.visibleTo(ctx, actor).Where("read = ?", false).Count(&list.UnreadCount).Error; err != nil {
		return list, apperrors.Internal("Failed to count notifications", err)
	}

	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor types.AuthenticatedUser, id uint) (models.Notification, error) {
	var n models.Notification

	err := s.deps.conn(ctx).
		Where("id = ? AND (recipient_user_id = ? OR recipient_role = ?)", id, actor.ID, actor.Role).
		First(&n).Error
	if err != nil {
		return n, apperrors.FromStore(err, "Notification not found")
	}

	if !n.Read {
		if err := s.deps.conn(ctx).Model(&n).Update("read", true).Error; err != nil {
			return n, apperrors.FromStore(err, "Notification not found")
		}
		n.Read = true
	}

	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor types.AuthenticatedUser) (int64, error) {
	res := s.visibleTo(ctx, actor).Where("read = ?", false).Update("read", true)
	if res.Error != nil {
		return 0, apperrors.Internal("Failed to update notifications", res.Error)
	}
	return res.RowsAffected, nil
}
