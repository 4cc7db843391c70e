package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type ResolutionResult struct {
	Incident          types.IncidentView `json:"incident"`
	ReleasedResources []models.Resource  `json:"releasedResources"`
}

// ResolveIncident marks the incident resolved and returns every resource
// linked to it to the Available pool in the same transaction. Resolving a
// pending incident is allowed and releases nothing.
func (s *IncidentService) ResolveIncident(ctx context.Context, actor types.AuthenticatedUser, incidentID uint) (*ResolutionResult, error) {
	if !s.deps.Policy.Allowed(actor.Role, rbac.PermIncidentResolve) {
		return nil, apperrors.Forbidden("Only community members and coordinators can resolve incidents")
	}

	result := ResolutionResult{ReleasedResources: []models.Resource{}}

	err := s.deps.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.Clauses(forUpdate).First(&incident, incidentID).Error; err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}
		if actor.Role == types.RoleCommunity && incident.ReportedBy != actor.ID {
			return apperrors.Forbidden("You can only resolve your own incidents")
		}

		if incident.Status != types.IncidentResolved {
			if err := tx.Model(&incident).Update("status", types.IncidentResolved).Error; err != nil {
				return apperrors.FromStore(err, "Incident not found")
			}
		}

		var linked []uint
		if err := tx.Model(&models.Resource{}).
			Clauses(forUpdate).
			Where("incident_id = ?", incidentID).
			Order("id").
			Pluck("id", &linked).Error; err != nil {
			return apperrors.FromStore(err, "Resource not found")
		}

		if len(linked) > 0 {
			if err := tx.Model(&models.Resource{}).
				Where("incident_id = ?", incidentID).
				Updates(map[string]any{"status": types.ResourceAvailable, "incident_id": nil}).Error; err != nil {
				return apperrors.FromStore(err, "Resource not found")
			}

			if err := tx.Where("id IN ?", linked).Order("id").Find(&result.ReleasedResources).Error; err != nil {
				return apperrors.FromStore(err, "Resource not found")
			}
		}

		if err := tx.Model(&models.ResourceAssignment{}).
			Where("incident_id = ? AND released_at IS NULL", incidentID).
			Update("released_at", time.Now()).Error; err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}

		view, err := loadIncidentView(tx, incidentID)
		if err != nil {
			return apperrors.FromStore(err, "Incident not found")
		}
		result.Incident = view

		return nil
	})

	if err != nil {
		return nil, apperrors.FromStore(err, "Incident not found")
	}

	s.afterResolution(result, actor)

	log.Printf("Incident %d resolved by user %d, %d resources released", incidentID, actor.ID, len(result.ReleasedResources))
	return &result, nil
}

func (s *IncidentService) afterResolution(result ResolutionResult, actor types.AuthenticatedUser) {
	incident := result.Incident
	released := result.ReleasedResources

	s.deps.after("resolution:events", func(ctx context.Context) error {
		s.deps.broadcast(types.EventIncidentUpdated, incident)
		for _, resource := range released {
			s.deps.broadcast(types.EventResourceUpdated, resource)
		}
		return nil
	})

	resolver := actor.Name
	if resolver == "" {
		resolver = fmt.Sprintf("user #%d", actor.ID)
	}

	s.notifications.schedule(NotificationInput{
		Role:    ToRole(types.RoleCoordinator),
		Type:    types.NotificationIncidentResolved,
		Title:   "Incident Resolved",
		Message: fmt.Sprintf("%s incident #%d was resolved by %s", incident.Category, incident.ID, resolver),
		Data:    map[string]any{"incidentId": incident.ID, "releasedResources": len(released)},
	})

	if s.deps.Webhooks.Enabled() {
		s.deps.outbound("webhook:incident_resolved", func(ctx context.Context) error {
			return s.deps.Webhooks.IncidentResolved(ctx, incident, resolver, len(released))
		})
	}
}
