package types

import (
	"encoding/json"
	"time"
)

// IncidentView is an incident joined with its reporter's name and the ids of
// the resources currently linked to it.
type IncidentView struct {
	ID                uint      `json:"id"`
	Category          string    `json:"category"`
	Severity          string    `json:"severity"`
	Status            string    `json:"status"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	Description       *string   `json:"description"`
	ReportedBy        uint      `json:"reported_by"`
	ReporterName      string    `json:"reporter_name"`
	AssignedResources []uint    `json:"assigned_resources"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type MessageView struct {
	ID           uint      `json:"id"`
	SenderID     uint      `json:"sender_id"`
	ReceiverID   uint      `json:"receiver_id"`
	IncidentID   *uint     `json:"incident_id"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
	SenderName   string    `json:"sender_name"`
	SenderRole   string    `json:"sender_role"`
	ReceiverName string    `json:"receiver_name"`
	ReceiverRole string    `json:"receiver_role"`
}

type UserResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationUpdate is ephemeral telemetry for a resource moving toward an
// incident. It is relayed, never stored.
type LocationUpdate struct {
	ResourceID uint            `json:"resourceId"`
	IncidentID uint            `json:"incidentId"`
	Location   Coordinates     `json:"location"`
	ETA        json.RawMessage `json:"eta,omitempty"`
}

type NearbyIncident struct {
	ID         uint      `json:"id"`
	Category   string    `json:"category"`
	Severity   string    `json:"severity"`
	Status     string    `json:"status"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	DistanceKm float64   `json:"distance_km"`
	CreatedAt  time.Time `json:"created_at"`
}

type NearbyResource struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

type NearbyResponse struct {
	Center    Coordinates      `json:"center"`
	Incidents []NearbyIncident `json:"incidents"`
	Resources []NearbyResource `json:"resources"`
}
