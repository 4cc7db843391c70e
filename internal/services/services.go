// Package services holds the dispatch engine: incident reporting, the
// assignment and resolution transactions, gated messaging, role-scoped
// queries and notifications. State changes commit first; realtime events,
// notifications and webhooks run afterwards on the post-commit runner.
package services

import (
	"context"
	"log"

	"github.com/readyresponse/dispatch/internal/postcommit"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/realtime"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Effects carries realtime events and notification inserts. Outbound carries
// calls to external services so they never hold up Effects; it falls back to
// Effects when unset.
type Deps struct {
	DB        *gorm.DB
	Publisher realtime.Publisher
	Effects   postcommit.Runner
	Outbound  postcommit.Runner
	Policy    *rbac.Policy
	Webhooks  *WebhookNotifier
}

type Services struct {
	Incidents     *IncidentService
	Resources     *ResourceService
	Messages      *MessageService
	Notifications *NotificationService
	Users         *UserService
	Nearby        *NearbyService
}

func New(deps Deps) *Services {
	if deps.Effects == nil {
		deps.Effects = postcommit.Inline{}
	}
	if deps.Outbound == nil {
		deps.Outbound = deps.Effects
	}
	if deps.Policy == nil {
		deps.Policy = rbac.MustPolicy()
	}

	notifications := &NotificationService{deps: deps}

	return &Services{
		Incidents:     &IncidentService{deps: deps, notifications: notifications},
		Resources:     &ResourceService{deps: deps, notifications: notifications},
		Messages:      &MessageService{deps: deps},
		Notifications: notifications,
		Users:         &UserService{deps: deps},
		Nearby:        &NearbyService{deps: deps},
	}
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// after schedules fn to run once the surrounding transaction has committed.
func (d Deps) after(name string, fn postcommit.Effect) {
	if err := d.Effects.Enqueue(name, fn); err != nil {
		log.Printf("Failed to schedule %s: %v", name, err)
	}
}

// outbound schedules a call to an external service after commit.
func (d Deps) outbound(name string, fn postcommit.Effect) {
	if err := d.Outbound.Enqueue(name, fn); err != nil {
		log.Printf("Failed to schedule %s: %v", name, err)
	}
}

func (d Deps) broadcast(event string, payload any) {
	if d.Publisher != nil {
		d.Publisher.Broadcast(event, payload)
	}
}

func (d Deps) publish(topic, event string, payload any) {
	if d.Publisher != nil {
		d.Publisher.Publish(topic, event, payload)
	}
}

func (d Deps) conn(ctx context.Context) *gorm.DB {
	return d.DB.WithContext(ctx)
}
