package services

import (
	"context"
	"math"
	"sort"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/geo"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/types"
)

const DefaultNearbyRadiusKm = 5.0

type NearbyService struct {
	deps Deps
}

// Find returns incidents and resources within radiusKm of the point,
// nearest first. Rows without coordinates never match.
func (s *NearbyService) Find(ctx context.Context, lat, lng, radiusKm float64) (types.NearbyResponse, error) {
	resp := types.NearbyResponse{
		Center:    types.Coordinates{Lat: lat, Lng: lng},
		Incidents: []types.NearbyIncident{},
		Resources: []types.NearbyResource{},
	}

	if !finite(lat) || !finite(lng) || !finite(radiusKm) {
		return resp, apperrors.Validation("Coordinates and radius must be finite numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return resp, apperrors.Validation("Coordinates are out of range")
	}
	if radiusKm <= 0 {
		return resp, apperrors.Validation("Radius must be positive")
	}

	conn := s.deps.conn(ctx)

	var incidents []models.Incident
	if err := conn.Where("latitude IS NOT NULL AND longitude IS NOT NULL").Find(&incidents).Error; err != nil {
		return resp, apperrors.Internal("Failed to fetch nearby incidents", err)
	}

	for _, i := range incidents {
		d, ok := geo.Within(lat, lng, *i.Latitude, *i.Longitude, radiusKm)
		if !ok {
			continue
		}
		resp.Incidents = append(resp.Incidents, types.NearbyIncident{
			ID:         i.ID,
			Category:   i.Category,
			Severity:   i.Severity,
			Status:     i.Status,
			Latitude:   *i.Latitude,
			Longitude:  *i.Longitude,
			DistanceKm: d,
			CreatedAt:  i.CreatedAt,
		})
	}

	var resources []models.Resource
	if err := conn.Where("latitude IS NOT NULL AND longitude IS NOT NULL").Find(&resources).Error; err != nil {
		return resp, apperrors.Internal("Failed to fetch nearby resources", err)
	}

	for _, r := range resources {
		d, ok := geo.Within(lat, lng, *r.Latitude, *r.Longitude, radiusKm)
		if !ok {
			continue
		}
		resp.Resources = append(resp.Resources, types.NearbyResource{
			ID:         r.ID,
			Name:       r.Name,
			Type:       r.Type,
			Status:     r.Status,
			Latitude:   *r.Latitude,
			Longitude:  *r.Longitude,
			DistanceKm: d,
		})
	}

	sort.SliceStable(resp.Incidents, func(a, b int) bool { return resp.Incidents[a].DistanceKm < resp.Incidents[b].DistanceKm })
	sort.SliceStable(resp.Resources, func(a, b int) bool { return resp.Resources[a].DistanceKm < resp.Resources[b].DistanceKm })

	return resp, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
