package realtime

import (
	"encoding/json"
	"testing"

	"github.com/readyresponse/dispatch/internal/types"
)

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case frame, ok := <-c.Send():
		if !ok {
			t.Fatal("client channel closed")
		}
		var ev Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return ev
	default:
		t.Fatal("expected a queued frame")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case frame := <-c.Send():
		t.Fatalf("unexpected frame %s", frame)
	default:
	}
}

func TestRegisterJoinsIdentityTopics(t *testing.T) {
	h := NewHub(8)
	c := h.NewClient(7, types.RoleCoordinator)
	h.Register(c)

	if h.TopicSize(UserTopic(7)) != 1 {
		t.Fatal("expected user topic subscription")
	}
	if h.TopicSize(RoleTopic(types.RoleCoordinator)) != 1 {
		t.Fatal("expected role topic subscription")
	}

	h.Unregister(c)
	if h.TopicSize(UserTopic(7)) != 0 || h.ClientCount() != 0 {
		t.Fatal("expected unregister to clear subscriptions")
	}
	h.Unregister(c)
}

func TestPublishReachesOnlySubscribers(t *testing.T) {
	h := NewHub(8)
	coord := h.NewClient(1, types.RoleCoordinator)
	agency := h.NewClient(2, types.RoleAgency)
	h.Register(coord)
	h.Register(agency)

	h.Publish(RoleTopic(types.RoleCoordinator), types.EventNotificationNew, map[string]string{"title": "x"})

	ev := readEvent(t, coord)
	if ev.Event != types.EventNotificationNew {
		t.Fatalf("unexpected event %q", ev.Event)
	}
	expectNoEvent(t, agency)
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := NewHub(8)
	a := h.NewClient(1, types.RoleCommunity)
	b := h.NewClient(2, types.RoleAgency)
	h.Register(a)
	h.Register(b)

	h.Broadcast(types.EventIncidentUpdated, map[string]uint{"id": 3})

	if readEvent(t, a).Event != types.EventIncidentUpdated || readEvent(t, b).Event != types.EventIncidentUpdated {
		t.Fatal("expected both clients to receive broadcast")
	}
}

func TestPublishPreservesOrderPerTopic(t *testing.T) {
	h := NewHub(16)
	c := h.NewClient(1, types.RoleCommunity)
	h.Register(c)

	for i := 0; i < 5; i++ {
		h.Publish(UserTopic(1), types.EventNewMessage, map[string]int{"seq": i})
	}

	for i := 0; i < 5; i++ {
		ev := readEvent(t, c)
		var data map[string]int
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if data["seq"] != i {
			t.Fatalf("expected seq %d, got %d", i, data["seq"])
		}
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(1)
	c := h.NewClient(1, types.RoleCommunity)
	h.Register(c)

	h.Publish(UserTopic(1), types.EventNewMessage, "first")
	h.Publish(UserTopic(1), types.EventNewMessage, "second")

	if h.ClientCount() != 0 {
		t.Fatal("expected slow client to be dropped")
	}

	<-c.Send()
	if _, ok := <-c.Send(); ok {
		t.Fatal("expected send channel to be closed")
	}
}

func TestJoinLeaveIncidentTopic(t *testing.T) {
	h := NewHub(8)
	c := h.NewClient(5, types.RoleCommunity)
	h.Register(c)

	incident := uint(12)
	data, _ := json.Marshal(map[string]any{"userId": 5, "role": "community", "incidentId": incident})
	if err := h.HandleClientEvent(c, Event{Event: types.EventJoin, Data: data}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if h.TopicSize(IncidentTopic(incident)) != 1 {
		t.Fatal("expected incident subscription")
	}

	data, _ = json.Marshal(map[string]any{"incidentId": incident})
	if err := h.HandleClientEvent(c, Event{Event: types.EventLeave, Data: data}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if h.TopicSize(IncidentTopic(incident)) != 0 {
		t.Fatal("expected incident subscription to be removed")
	}
}

func TestJoinIgnoresClaimedIdentity(t *testing.T) {
	h := NewHub(8)
	c := h.NewClient(5, types.RoleCommunity)
	h.Register(c)

	data, _ := json.Marshal(map[string]any{"userId": 99, "role": "coordinator"})
	if err := h.HandleClientEvent(c, Event{Event: types.EventJoin, Data: data}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if h.TopicSize(RoleTopic(types.RoleCoordinator)) != 0 || h.TopicSize(UserTopic(99)) != 0 {
		t.Fatal("claimed identity must not grant topics")
	}
}

func TestLocationRelayScopedToIncident(t *testing.T) {
	h := NewHub(8)
	watcher := h.NewClient(1, types.RoleCommunity)
	other := h.NewClient(2, types.RoleCommunity)
	sender := h.NewClient(3, types.RoleAgency)
	h.Register(watcher)
	h.Register(other)
	h.Register(sender)
	h.Join(watcher, IncidentTopic(4))

	data, _ := json.Marshal(types.LocationUpdate{
		ResourceID: 9,
		IncidentID: 4,
		Location:   types.Coordinates{Lat: 6.5, Lng: 3.4},
	})
	if err := h.HandleClientEvent(sender, Event{Event: types.EventResourceUpdateLocation, Data: data}); err != nil {
		t.Fatalf("relay: %v", err)
	}

	ev := readEvent(t, watcher)
	if ev.Event != types.EventResourceLocationUpdated {
		t.Fatalf("unexpected event %q", ev.Event)
	}
	var got types.LocationUpdate
	if err := json.Unmarshal(ev.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ResourceID != 9 || got.Location.Lat != 6.5 {
		t.Fatalf("unexpected relay payload %+v", got)
	}
	expectNoEvent(t, other)
	expectNoEvent(t, sender)
}

func TestCommunityCannotPublishLocation(t *testing.T) {
	h := NewHub(8)
	watcher := h.NewClient(1, types.RoleCoordinator)
	spoofer := h.NewClient(2, types.RoleCommunity)
	h.Register(watcher)
	h.Register(spoofer)
	h.Join(watcher, IncidentTopic(4))

	data, _ := json.Marshal(types.LocationUpdate{
		ResourceID: 9,
		IncidentID: 4,
		Location:   types.Coordinates{Lat: 6.5, Lng: 3.4},
	})
	if err := h.HandleClientEvent(spoofer, Event{Event: types.EventResourceUpdateLocation, Data: data}); err == nil {
		t.Fatal("expected community location write to be refused")
	}
	expectNoEvent(t, watcher)

	coordinator := h.NewClient(3, types.RoleCoordinator)
	h.Register(coordinator)
	if err := h.HandleClientEvent(coordinator, Event{Event: types.EventResourceUpdateLocation, Data: data}); err != nil {
		t.Fatalf("coordinator relay: %v", err)
	}
	if ev := readEvent(t, watcher); ev.Event != types.EventResourceLocationUpdated {
		t.Fatalf("unexpected event %q", ev.Event)
	}
}

func TestRelayRejectsMissingIDs(t *testing.T) {
	h := NewHub(8)
	if err := h.RelayLocation(types.LocationUpdate{IncidentID: 1}); err == nil {
		t.Fatal("expected error without resource id")
	}
}

func TestUnknownEvent(t *testing.T) {
	h := NewHub(8)
	c := h.NewClient(1, types.RoleCommunity)
	h.Register(c)

	if err := h.HandleClientEvent(c, Event{Event: "bogus"}); err == nil {
		t.Fatal("expected unknown event error")
	}
}
