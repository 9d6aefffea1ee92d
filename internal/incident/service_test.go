package incident_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/contacts"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/location"
	"github.com/safepath/safepath/internal/validation"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []*incident.Alert
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, alert *incident.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

type fixture struct {
	svc       *incident.Service
	contacts  *contacts.Service
	locations *location.Service
	notifier  *recordingNotifier
}

func newFixture() *fixture {
	tick := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	f := &fixture{notifier: &recordingNotifier{}}
	f.contacts = contacts.NewService(contacts.ServiceConfig{
		Repository: contacts.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
		Now:        now,
	})
	f.locations = location.NewService(location.ServiceConfig{
		Repository: location.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
		Now:        now,
	})
	f.svc = incident.NewService(incident.ServiceConfig{
		Repository: incident.NewInMemoryRepository(),
		Contacts:   f.contacts,
		Locations:  f.locations,
		Notifier:   f.notifier,
		Logger:     zerolog.Nop(),
		Now:        now,
	})
	return f
}

func TestService_Trigger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.contacts.Add(ctx, "usr_1", &contacts.CreateInput{Name: "Asha", Phone: "9876543210", Relation: "sister"})
	require.NoError(t, err)
	_, err = f.contacts.Add(ctx, "usr_1", &contacts.CreateInput{Name: "Ravi", Phone: "9876500000"})
	require.NoError(t, err)

	inc, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{
		Lat: 28.6139, Lng: 77.2090, Address: "Connaught Place",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^inc_`, inc.ID)
	assert.Equal(t, incident.TypeSOS, inc.Type)
	assert.Equal(t, incident.StatusActive, inc.Status)
	assert.Equal(t, 2, inc.ContactsNotified)
	require.NotNil(t, inc.Address)
	assert.Equal(t, "Connaught Place", *inc.Address)
	assert.Nil(t, inc.Note)

	require.Len(t, f.notifier.alerts, 1)
	alert := f.notifier.alerts[0]
	assert.Equal(t, inc.ID, alert.IncidentID)
	assert.Equal(t, 28.6139, alert.Lat)
	assert.Equal(t, []incident.Recipient{
		{Name: "Asha", Phone: "9876543210", Relation: "sister"},
		{Name: "Ravi", Phone: "9876500000"},
	}, alert.Recipients)

	last, err := f.locations.LastKnown(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 28.6139, Lng: 77.2090}, last.Point)

	stored, err := f.svc.Get(ctx, "usr_1", inc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ContactsNotified)
}

func TestService_Trigger_NoContacts(t *testing.T) {
	f := newFixture()

	inc, err := f.svc.Trigger(context.Background(), "usr_1", &incident.TriggerInput{Type: incident.TypeStalking, Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.Equal(t, incident.TypeStalking, inc.Type)
	assert.Zero(t, inc.ContactsNotified)
	assert.Empty(t, f.notifier.alerts)
}

func TestService_Trigger_NotifierFailureKeepsIncident(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("topic unavailable")
	ctx := context.Background()

	_, err := f.contacts.Add(ctx, "usr_1", &contacts.CreateInput{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)

	inc, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.Zero(t, inc.ContactsNotified)

	list, err := f.svc.List(ctx, "usr_1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, incident.StatusActive, list[0].Status)
}

func TestService_Trigger_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Trigger(context.Background(), "usr_1", &incident.TriggerInput{Type: "fire", Lat: 91})

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"type", "lat"}, fields)

	list, err := f.svc.List(context.Background(), "usr_1", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{Lat: 1, Lng: 1})
	require.NoError(t, err)
	second, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{Lat: 1, Lng: 1})
	require.NoError(t, err)
	other, err := f.svc.Trigger(ctx, "usr_2", &incident.TriggerInput{Lat: 1, Lng: 1})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, "usr_1")
	require.NoError(t, err)
	require.Len(t, cancelled, 2)
	assert.Equal(t, first.ID, cancelled[0].ID)
	assert.Equal(t, second.ID, cancelled[1].ID)
	for _, inc := range cancelled {
		assert.Equal(t, incident.StatusCancelled, inc.Status)
		assert.NotNil(t, inc.ClosedAt)
	}

	again, err := f.svc.Cancel(ctx, "usr_1")
	require.NoError(t, err)
	assert.Empty(t, again)

	untouched, err := f.svc.Get(ctx, "usr_2", other.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.StatusActive, untouched.Status)
}

func TestService_Resolve(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inc, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{Lat: 1, Lng: 1})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, "usr_2", inc.ID)
	assert.ErrorIs(t, err, incident.ErrIncidentNotFound)

	resolved, err := f.svc.Resolve(ctx, "usr_1", inc.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.StatusResolved, resolved.Status)

	_, err = f.svc.Resolve(ctx, "usr_1", inc.ID)
	assert.ErrorIs(t, err, incident.ErrIncidentClosed)
}

func TestService_List_NewestFirstAndLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var last *incident.Incident
	for i := 0; i < 3; i++ {
		inc, err := f.svc.Trigger(ctx, "usr_1", &incident.TriggerInput{Lat: 1, Lng: 1})
		require.NoError(t, err)
		last = inc
	}

	list, err := f.svc.List(ctx, "usr_1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, last.ID, list[0].ID)
}
