package types

const ContextUserKey = "user"

// Actor roles carried in the bearer credential.
const (
	RoleCommunity   = "community"
	RoleAgency      = "agency"
	RoleCoordinator = "coordinator"
)

const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

const (
	IncidentPending  = "pending"
	IncidentActive   = "active"
	IncidentResolved = "resolved"
)

const (
	ResourceAvailable   = "Available"
	ResourceEngaged     = "Engaged"
	ResourceUnavailable = "Unavailable"
)

const (
	NotificationIncidentReported = "incident_reported"
	NotificationResourceAssigned = "resource_assigned"
	NotificationResourceAdded    = "resource_added"
	NotificationIncidentResolved = "incident_resolved"
)

// Server → client events.
const (
	EventConnected               = "connected"
	EventIncidentNew             = "incident:new"
	EventIncidentUpdated         = "incident:updated"
	EventResourceNew             = "resource:new"
	EventResourceUpdated         = "resource:updated"
	EventResourceAssigned        = "resource:assigned"
	EventNewMessage              = "new_message"
	EventNotificationNew         = "notification:new"
	EventResourceLocationUpdated = "resource:location_updated"
	EventError                   = "error"
)

// Client → server events.
const (
	EventJoin                   = "join"
	EventLeave                  = "leave"
	EventResourceUpdateLocation = "resource:update_location"
)

const SystemMessageChatUnlocked = "A resource has been assigned to your incident. You can now chat with the coordinator."

var Roles = []string{RoleCommunity, RoleAgency, RoleCoordinator}

var Severities = []string{SeverityLow, SeverityMedium, SeverityHigh}

var ResourceStatuses = []string{ResourceAvailable, ResourceEngaged, ResourceUnavailable}

func IsRole(role string) bool {
	return contains(Roles, role)
}

func IsSeverity(severity string) bool {
	return contains(Severities, severity)
}

func IsResourceStatus(status string) bool {
	return contains(ResourceStatuses, status)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// AuthenticatedUser is the typed request identity set by the auth middleware.
type AuthenticatedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
