// Package testutil provides a migrated in-memory store, fixtures and a
// recording publisher for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/readyresponse/dispatch/db"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// NewDB returns a fresh, migrated in-memory SQLite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))

	conn, err := db.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

func CreateUser(t testing.TB, conn *gorm.DB, name, role string) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.test", strings.ToLower(strings.ReplaceAll(name, " ", ".")), dbCounter.Add(1)),
		PasswordHash: "x",
		Role:         role,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func Actor(u models.User) types.AuthenticatedUser {
	return types.AuthenticatedUser{ID: u.ID, Name: u.Name, Role: u.Role}
}

func CreateIncident(t testing.TB, conn *gorm.DB, reporterID uint, status string) models.Incident {
	t.Helper()

	lat, lng := 6.5244, 3.3792
	incident := models.Incident{
		Category:   "Fire",
		Severity:   types.SeverityHigh,
		Status:     status,
		Latitude:   &lat,
		Longitude:  &lng,
		ReportedBy: reporterID,
	}
	if err := conn.Create(&incident).Error; err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return incident
}

func CreateResource(t testing.TB, conn *gorm.DB, agencyID uint, name string) models.Resource {
	t.Helper()

	lat, lng := 6.5300, 3.3800
	resource := models.Resource{
		Name:      name,
		Type:      "Ambulance",
		Status:    types.ResourceAvailable,
		Latitude:  &lat,
		Longitude: &lng,
		AgencyID:  agencyID,
	}
	if err := conn.Create(&resource).Error; err != nil {
		t.Fatalf("create resource: %v", err)
	}
	return resource
}

// Published is one recorded emission. Topic is empty for broadcasts.
type Published struct {
	Topic   string
	Event   string
	Payload any
	At      time.Time
}

type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

func (p *RecordingPublisher) Publish(topic, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event, Payload: payload, At: time.Now()})
}

func (p *RecordingPublisher) Broadcast(event string, payload any) {
	p.Publish("", event, payload)
}

func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.events))
	copy(out, p.events)
	return out
}

func (p *RecordingPublisher) Named(event string) []Published {
	var out []Published
	for _, e := range p.Events() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
