package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type incidentRow struct {
	ID                uint
	Category          string
	Severity          string
	Status            string
	Latitude          *float64
	Longitude         *float64
	Description       *string
	ReportedBy        uint
	ReporterName      string
	AssignedResources *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r incidentRow) view() types.IncidentView {
	return types.IncidentView{
		ID:                r.ID,
		Category:          r.Category,
		Severity:          r.Severity,
		Status:            r.Status,
		Latitude:          r.Latitude,
		Longitude:         r.Longitude,
		Description:       r.Description,
		ReportedBy:        r.ReportedBy,
		ReporterName:      r.ReporterName,
		AssignedResources: parseIDList(r.AssignedResources),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func parseIDList(raw *string) []uint {
	ids := []uint{}
	if raw == nil || *raw == "" {
		return ids
	}

	for _, part := range strings.Split(*raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

func idAggregate(conn *gorm.DB) string {
	if conn.Dialector.Name() == "postgres" {
		return "STRING_AGG(r.id::text, ',' ORDER BY r.id)"
	}
	return "GROUP_CONCAT(r.id)"
}

// incidentViews builds the grouped incident query. With agencyID set only
// incidents holding at least one of that agency's resources survive the
// inner join; otherwise every incident is returned with a possibly empty
// resource list.
func incidentViews(conn *gorm.DB, agencyID uint) *gorm.DB {
	q := conn.Table("incidents AS i").
		Select("i.id, i.category, i.severity, i.status, i.latitude, i.longitude, i.description, " +
			"i.reported_by, i.created_at, i.updated_at, u.name AS reporter_name, " +
			idAggregate(conn) + " AS assigned_resources").
		Joins("JOIN users u ON u.id = i.reported_by")

	if agencyID != 0 {
		q = q.Joins("JOIN resources r ON r.incident_id = i.id AND r.agency_id = ?", agencyID)
	} else {
		q = q.Joins("LEFT JOIN resources r ON r.incident_id = i.id")
	}

	return q.Group("i.id, u.name")
}

func loadIncidentView(conn *gorm.DB, id uint) (types.IncidentView, error) {
	var rows []incidentRow
	if err := incidentViews(conn, 0).Where("i.id = ?", id).Scan(&rows).Error; err != nil {
		return types.IncidentView{}, err
	}
	if len(rows) == 0 {
		return types.IncidentView{}, gorm.ErrRecordNotFound
	}
	return rows[0].view(), nil
}
