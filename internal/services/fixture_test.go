package services

import (
	"testing"

	"github.com/readyresponse/dispatch/internal/apperrors"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/postcommit"
	"github.com/readyresponse/dispatch/internal/testutil"
	"github.com/readyresponse/dispatch/internal/types"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	pub *testutil.RecordingPublisher
	svc *Services

	community   models.User
	community2  models.User
	coordinator models.User
	agency      models.User
	agency2     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	pub := &testutil.RecordingPublisher{}

	f := &fixture{
		db:  conn,
		pub: pub,
		svc: New(Deps{DB: conn, Publisher: pub, Effects: postcommit.Inline{}}),
	}

	f.community = testutil.CreateUser(t, conn, "Ada Reporter", types.RoleCommunity)
	f.community2 = testutil.CreateUser(t, conn, "Bo Neighbour", types.RoleCommunity)
	f.coordinator = testutil.CreateUser(t, conn, "Cy Coordinator", types.RoleCoordinator)
	f.agency = testutil.CreateUser(t, conn, "Fire Service", types.RoleAgency)
	f.agency2 = testutil.CreateUser(t, conn, "Ambulance Corps", types.RoleAgency)

	return f
}

func as(u models.User) types.AuthenticatedUser {
	return testutil.Actor(u)
}

func expectKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func (f *fixture) resource(t *testing.T, id uint) models.Resource {
	t.Helper()

	var r models.Resource
	if err := f.db.First(&r, id).Error; err != nil {
		t.Fatalf("load resource %d: %v", id, err)
	}
	return r
}

func (f *fixture) incident(t *testing.T, id uint) models.Incident {
	t.Helper()

	var i models.Incident
	if err := f.db.First(&i, id).Error; err != nil {
		t.Fatalf("load incident %d: %v", id, err)
	}
	return i
}
