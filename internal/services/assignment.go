package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/realtime"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type AssignmentResult struct {
	Incident      types.IncidentView `json:"incident"`
	Resource      models.Resource    `json:"resource"`
	SystemMessage types.MessageView  `json:"systemMessage"`
}

// AssignResource links an available resource to an incident in one
// transaction: the resource becomes Engaged, a pending incident becomes
// active, the assignment is recorded and the reporter gets a system message
// that opens the chat. Events and notifications follow the commit.
//
// Two coordinators racing for the same resource are serialized by the row
// lock; the loser sees a non-Available status and gets a conflict.
func (s *IncidentService) AssignResource(ctx context.Context, actor types.AuthenticatedUser, incidentID, resourceID uint) (*AssignmentResult, error) {
	if !s.deps.Policy.Allowed(actor.Role, rbac.PermIncidentAssign) {
		return nil, apperrors.Forbidden("Only coordinators can assign resources")
	}
	if resourceID == 0 {
		return nil, apperrors.Validation("resourceId is required")
	}

	var result AssignmentResult
	var reporterID uint

	err := s.deps.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.Clauses(forUpdate).First(&incident, incidentID).Error; err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}
		if incident.Status == types.IncidentResolved {
			return apperrors.Conflict("Incident is already resolved")
		}
		reporterID = incident.ReportedBy

		var resource models.Resource
		if err := tx.Clauses(forUpdate).First(&resource, resourceID).Error; err != nil {
			return apperrors.FromStore(err, "Resource not found")
		}
		if resource.Status != types.ResourceAvailable {
			return apperrors.Conflict("Resource is not available")
		}

		engaged := tx.Model(&models.Resource{}).
			Where("id = ? AND status = ?", resourceID, types.ResourceAvailable).
			Updates(map[string]any{"status": types.ResourceEngaged, "incident_id": incidentID})
		if engaged.Error != nil {
			return apperrors.FromStore(engaged.Error, "Resource not found")
		}
		if engaged.RowsAffected == 0 {
			return apperrors.Conflict("Resource is not available")
		}

		// Already-active incidents are left as they are.
		if err := tx.Model(&models.Incident{}).
			Where("id = ? AND status = ?", incidentID, types.IncidentPending).
			Update("status", types.IncidentActive).Error; err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}

		assignment := models.ResourceAssignment{
			IncidentID: incidentID,
			ResourceID: resourceID,
			AgencyID:   resource.AgencyID,
			AssignedBy: actor.ID,
			AssignedAt: time.Now(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}

		message := models.Message{
			SenderID:   actor.ID,
			ReceiverID: incident.ReportedBy,
			IncidentID: &incidentID,
			Body:       types.SystemMessageChatUnlocked,
		}
		if err := tx.Create(&message).Error; err != nil {
			return apperrors.FromStore(err, "Reporter not found")
		}

		if err := tx.First(&result.Resource, resourceID).Error; err != nil {
			return apperrors.FromStore(err, "Resource not found")
		}

		view, err := loadIncidentView(tx, incidentID)
		if err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}
		result.Incident = view

		msgView, err := loadMessageView(tx, message.ID)
		if err != nil {
			return apperrors.FromStore(err, "Message not found")
		}
		result.SystemMessage = msgView

		return nil
	})

	if err != nil {
		return nil, apperrors.FromStore(err, "Incident not found")
	}

	s.afterAssignment(result, reporterID)

	log.Printf("Resource %d assigned to incident %d by coordinator %d", resourceID, incidentID, actor.ID)
	return &result, nil
}

func (s *IncidentService) afterAssignment(result AssignmentResult, reporterID uint) {
	incident := result.Incident
	resource := result.Resource
	message := result.SystemMessage

	s.deps.after("assignment:events", func(ctx context.Context) error {
		s.deps.broadcast(types.EventIncidentUpdated, incident)
		s.deps.broadcast(types.EventResourceUpdated, resource)
		s.deps.broadcast(types.EventResourceAssigned, map[string]any{
			"incidentId": incident.ID,
			"resource":   resource,
		})
		publishMessage(s.deps, message)
		return nil
	})

	data := map[string]any{"incidentId": incident.ID, "resourceId": resource.ID}

	s.notifications.schedule(NotificationInput{
		UserID:  ToUser(resource.AgencyID),
		Type:    types.NotificationResourceAssigned,
		Title:   "Resource Assigned",
		Message: fmt.Sprintf("%s has been assigned to %s incident #%d", resource.Name, incident.Category, incident.ID),
		Data:    data,
	})

	s.notifications.schedule(NotificationInput{
		UserID:  ToUser(reporterID),
		Type:    types.NotificationResourceAssigned,
		Title:   "Help Is On The Way",
		Message: fmt.Sprintf("A %s has been dispatched to your %s incident", resource.Type, incident.Category),
		Data:    data,
	})
}

func publishMessage(deps Deps, message types.MessageView) {
	deps.publish(realtime.UserTopic(message.SenderID), types.EventNewMessage, message)
	if message.ReceiverID != message.SenderID {
		deps.publish(realtime.UserTopic(message.ReceiverID), types.EventNewMessage, message)
	}
}
