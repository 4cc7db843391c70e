package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type ResourceService struct {
	deps          Deps
	notifications *NotificationService
}

type CreateResourceInput struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type UpdateResourceStatusInput struct {
	Status string `json:"status" binding:"required,resource_status"`
}

func (s *ResourceService) Create(ctx context.Context, actor types.AuthenticatedUser, in CreateResourceInput) (models.Resource, error) {
	if !s.deps.Policy.Allowed(actor.Role, rbac.PermResourceCreate) {
		return models.Resource{}, apperrors.Forbidden("Only agencies can create resources")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Type) == "" {
		return models.Resource{}, apperrors.Validation("Name and type are required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return models.Resource{}, apperrors.Validation("Latitude and longitude must be provided together")
	}

	resource := models.Resource{
		Name:      strings.TrimSpace(in.Name),
		Type:      strings.TrimSpace(in.Type),
		Status:    types.ResourceAvailable,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		AgencyID:  actor.ID,
	}

	if err := s.deps.conn(ctx).Create(&resource).Error; err != nil {
		return models.Resource{}, apperrors.FromStore(err, "Agency not found")
	}

	s.deps.after("resource:new", func(ctx context.Context) error {
		s.deps.broadcast(types.EventResourceNew, resource)
		return nil
	})

	s.notifications.schedule(NotificationInput{
		Role:    ToRole(types.RoleCoordinator),
		Type:    types.NotificationResourceAdded,
		Title:   "New Resource Added",
		Message: fmt.Sprintf("%s (%s) is now available from %s", resource.Name, resource.Type, actor.Name),
		Data:    map[string]any{"resourceId": resource.ID, "agencyId": actor.ID},
	})

	return resource, nil
}

// List is role scoped: agencies see their own fleet, everyone else sees all.
func (s *ResourceService) List(ctx context.Context, actor types.AuthenticatedUser) ([]models.Resource, error) {
	q := s.deps.conn(ctx).Order("created_at DESC, id DESC")
	if actor.Role == types.RoleAgency {
		q = q.Where("agency_id = ?", actor.ID)
	}

	resources := []models.Resource{}
	if err := q.Find(&resources).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch resources", err)
	}
	return resources, nil
}

// Dashboard returns every resource regardless of role.
func (s *ResourceService) Dashboard(ctx context.Context) ([]models.Resource, error) {
	resources := []models.Resource{}
	if err := s.deps.conn(ctx).Order("created_at DESC, id DESC").Find(&resources).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch resources", err)
	}
	return resources, nil
}

// UpdateStatus is the manual status edit. A resource engaged on an incident
// can only be released by resolving that incident.
func (s *ResourceService) UpdateStatus(ctx context.Context, actor types.AuthenticatedUser, id uint, status string) (models.Resource, error) {
	if !types.IsResourceStatus(status) {
		return models.Resource{}, apperrors.Validation("Status must be one of Available, Engaged, Unavailable")
	}
	if !s.deps.Policy.Allowed(actor.Role, rbac.PermResourceStatusWrite) {
		return models.Resource{}, apperrors.Forbidden("Only coordinators and agencies can update resource status")
	}

	var resource models.Resource

	err := s.deps.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).First(&resource, id).Error; err != nil {
			return apperrors.FromStore(err, "Resource not found")
		}
		if actor.Role == types.RoleAgency && resource.AgencyID != actor.ID {
			return apperrors.Forbidden("You can only update your own resources")
		}
		if resource.IncidentID != nil {
			return apperrors.Conflict("Resource is assigned to an incident; resolve the incident to release it")
		}
		if resource.Status == status {
			return nil
		}

		res := tx.Model(&models.Resource{}).
			Where("id = ? AND incident_id IS NULL", id).
			Update("status", status)
		if res.Error != nil {
			return apperrors.FromStore(res.Error, "Resource not found")
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Resource is assigned to an incident; resolve the incident to release it")
		}

		return tx.First(&resource, id).Error
	})

	if err != nil {
		return models.Resource{}, apperrors.FromStore(err, "Resource not found")
	}

	updated := resource
	s.deps.after("resource:updated", func(ctx context.Context) error {
		s.deps.broadcast(types.EventResourceUpdated, updated)
		return nil
	})

	return resource, nil
}
