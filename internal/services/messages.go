package services

import (
	"context"
	"strings"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type MessageService struct {
	deps Deps
}

type SendMessageInput struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	IncidentID *uint  `json:"incidentId"`
	Message    string `json:"message" binding:"required"`
}

var chatOpenStatuses = []string{types.IncidentActive, types.IncidentResolved}

func messageViews(conn *gorm.DB) *gorm.DB {
	return conn.Table("messages AS m").
		Select("m.id, m.sender_id, m.receiver_id, m.incident_id, m.message, m.is_read, m.created_at, " +
			"su.name AS sender_name, su.role AS sender_role, ru.name AS receiver_name, ru.role AS receiver_role").
		Joins("JOIN users su ON su.id = m.sender_id").
		Joins("JOIN users ru ON ru.id = m.receiver_id")
}

func loadMessageView(conn *gorm.DB, id uint) (types.MessageView, error) {
	var views []types.MessageView
	if err := messageViews(conn).Where("m.id = ?", id).Scan(&views).Error; err != nil {
		return types.MessageView{}, err
	}
	if len(views) == 0 {
		return types.MessageView{}, gorm.ErrRecordNotFound
	}
	return views[0], nil
}

// chatUnlocked reports whether the community user may talk about the
// incident: they reported it, it has left pending, and a resource has been
// assigned to it at some point. Assignment history survives release, so
// the thread stays open after resolution.
func chatUnlocked(conn *gorm.DB, communityID, incidentID uint) (bool, error) {
	var count int64
	err := conn.Model(&models.Incident{}).
		Where("id = ? AND reported_by = ? AND status IN ?", incidentID, communityID, chatOpenStatuses).
		Where("EXISTS (SELECT 1 FROM resource_assignments ra WHERE ra.incident_id = incidents.id)").
		Count(&count).Error
	return count > 0, err
}

func (s *MessageService) Send(ctx context.Context, actor types.AuthenticatedUser, in SendMessageInput) (types.MessageView, error) {
	body := strings.TrimSpace(in.Message)
	if in.ReceiverID == 0 || body == "" {
		return types.MessageView{}, apperrors.Validation("receiverId and message are required")
	}

	conn := s.deps.conn(ctx)

	var receiver models.User
	if err := conn.First(&receiver, in.ReceiverID).Error; err != nil {
		return types.MessageView{}, apperrors.FromStore(err, "Receiver not found")
	}

	if in.IncidentID != nil {
		var exists int64
		if err := conn.Model(&models.Incident{}).Where("id = ?", *in.IncidentID).Count(&exists).Error; err != nil {
			return types.MessageView{}, apperrors.Internal("Failed to send message", err)
		}
		if exists == 0 {
			return types.MessageView{}, apperrors.NotFound("Incident not found")
		}
	}

	if actor.Role == types.RoleCommunity {
		if in.IncidentID == nil {
			return types.MessageView{}, apperrors.Forbidden("Chat not allowed until resource is assigned")
		}
		ok, err := chatUnlocked(conn, actor.ID, *in.IncidentID)
		if err != nil {
			return types.MessageView{}, apperrors.Internal("Failed to send message", err)
		}
		if !ok {
			return types.MessageView{}, apperrors.Forbidden("Chat not allowed until resource is assigned")
		}
	}

	message := models.Message{
		SenderID:   actor.ID,
		ReceiverID: in.ReceiverID,
		IncidentID: in.IncidentID,
		Body:       body,
	}
	if err := conn.Create(&message).Error; err != nil {
		return types.MessageView{}, apperrors.FromStore(err, "Receiver not found")
	}

	view, err := loadMessageView(conn, message.ID)
	if err != nil {
		return types.MessageView{}, apperrors.FromStore(err, "Message not found")
	}

	s.deps.after("message:new", func(ctx context.Context) error {
		publishMessage(s.deps, view)
		return nil
	})

	return view, nil
}

// List returns the actor's conversations in chronological order. Community
// users only see threads attached to their own incidents once chat opened.
func (s *MessageService) List(ctx context.Context, actor types.AuthenticatedUser, incidentID *uint) ([]types.MessageView, error) {
	q := messageViews(s.deps.conn(ctx)).
		Where("(m.sender_id = ? OR m.receiver_id = ?)", actor.ID, actor.ID)

	if actor.Role == types.RoleCommunity {
		q = q.Joins("JOIN incidents i ON i.id = m.incident_id").
			Where("i.reported_by = ? AND i.status IN ?", actor.ID, chatOpenStatuses)
	}

	if incidentID != nil {
		q = q.Where("m.incident_id = ?", *incidentID)
	}

	views := []types.MessageView{}
	if err := q.Order("m.created_at ASC, m.id ASC").Scan(&views).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch messages", err)
	}
	return views, nil
}

// MarkAsRead flags every message addressed to the actor as read, across all
// conversations.
func (s *MessageService) MarkAsRead(ctx context.Context, actor types.AuthenticatedUser) (int64, error) {
	res := s.deps.conn(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", actor.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Internal("Failed to mark messages as read", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes a message the actor sent or received. Missing and foreign
// messages are indistinguishable to the caller.
func (s *MessageService) Delete(ctx context.Context, actor types.AuthenticatedUser, id uint) error {
	res := s.deps.conn(ctx).
		Where("id = ? AND (sender_id = ? OR receiver_id = ?)", id, actor.ID, actor.ID).
		Delete(&models.Message{})
	if res.Error != nil {
		return apperrors.Internal("Failed to delete message", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Message not found or not authorized")
	}
	return nil
}
