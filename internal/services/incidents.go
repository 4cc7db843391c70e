package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/types"
)

type IncidentService struct {
	deps          Deps
	notifications *NotificationService
}

type ReportIncidentInput struct {
	Category    string   `json:"category" binding:"required"`
	Severity    string   `json:"severity" binding:"required,severity"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	Description *string  `json:"description"`
}

func (in ReportIncidentInput) validate() error {
	if strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Severity) == "" {
		return apperrors.Validation("Category and severity are required")
	}
	if !types.IsSeverity(in.Severity) {
		return apperrors.Validation("Severity must be one of Low, Medium, High")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperrors.Validation("Latitude and longitude must be provided together")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180) {
		return apperrors.Validation("Coordinates are out of range")
	}
	return nil
}

// Report creates a pending incident owned by the actor.
func (s *IncidentService) Report(ctx context.Context, actor types.AuthenticatedUser, in ReportIncidentInput) (types.IncidentView, error) {
	if err := in.validate(); err != nil {
		return types.IncidentView{}, err
	}
	if !s.deps.Policy.Allowed(actor.Role, rbac.PermIncidentReport) {
		return types.IncidentView{}, apperrors.Forbidden("Only community members and coordinators can report incidents")
	}

	incident := models.Incident{
		Category:    strings.TrimSpace(in.Category),
		Severity:    in.Severity,
		Status:      types.IncidentPending,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
		ReportedBy:  actor.ID,
	}

	if err := s.deps.conn(ctx).Create(&incident).Error; err != nil {
		return types.IncidentView{}, apperrors.FromStore(err, "Reporter not found")
	}

	view, err := loadIncidentView(s.deps.conn(ctx), incident.ID)
	if err != nil {
		return types.IncidentView{}, apperrors.FromStore(err, "Incident not found")
	}

	s.deps.after("incident:new", func(ctx context.Context) error {
		s.deps.broadcast(types.EventIncidentNew, view)
		return nil
	})

	s.notifications.schedule(NotificationInput{
		Role:    ToRole(types.RoleCoordinator),
		Type:    types.NotificationIncidentReported,
		Title:   "New Incident Reported",
		Message: fmt.Sprintf("%s incident (%s severity) reported by %s", view.Category, view.Severity, view.ReporterName),
		Data:    map[string]any{"incidentId": view.ID, "severity": view.Severity},
	})

	if s.deps.Webhooks.Enabled() {
		s.deps.outbound("webhook:incident_reported", func(ctx context.Context) error {
			return s.deps.Webhooks.IncidentReported(ctx, view)
		})
	}

	log.Printf("Incident %d reported by user %d", view.ID, actor.ID)
	return view, nil
}

// List returns the incidents visible to the actor, newest first. Agencies
// only see incidents that currently hold one of their resources.
func (s *IncidentService) List(ctx context.Context, actor types.AuthenticatedUser) ([]types.IncidentView, error) {
	var agencyID uint
	if actor.Role == types.RoleAgency {
		agencyID = actor.ID
	}

	var rows []incidentRow
	if err := incidentViews(s.deps.conn(ctx), agencyID).
		Order("i.created_at DESC, i.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch incidents", err)
	}

	views := make([]types.IncidentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

func (s *IncidentService) Get(ctx context.Context, id uint) (types.IncidentView, error) {
	view, err := loadIncidentView(s.deps.conn(ctx), id)
	if err != nil {
		return view, apperrors.FromStore(err, "Incident not found")
	}
	return view, nil
}
