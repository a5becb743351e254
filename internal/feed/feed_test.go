package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/model"
)

type fakeLister struct {
	mu    sync.Mutex
	items []model.Notification
	err   error
}

func (f *fakeLister) ListNotifications(_ context.Context, _ string, _ int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeLister) prepend(n model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]model.Notification{n}, f.items...)
}

func (f *fakeLister) markRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
		}
	}
}

var epoch = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

// note builds a notification created minute minutes after epoch.
func note(id string, read bool, minute int) model.Notification {
	return model.Notification{
		ID: id, UserID: "u1", Title: id, Read: read,
		CreatedAt: epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func TestDiffReportsInsertsOldestFirst(t *testing.T) {
	prev := []model.Notification{note("a", false, 1)}
	next := []model.Notification{note("c", false, 3), note("b", false, 2), note("a", false, 1)}

	events := Diff(prev, next)
	require.Len(t, events, 2)
	assert.Equal(t, OpInsert, events[0].Op)
	assert.Equal(t, "b", events[0].Notification.ID)
	assert.Equal(t, "c", events[1].Notification.ID)
}

func TestDiffReportsReadChanges(t *testing.T) {
	prev := []model.Notification{note("b", false, 2), note("a", false, 1)}
	next := []model.Notification{note("b", true, 2), note("a", false, 1)}

	events := Diff(prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, OpUpdate, events[0].Op)
	assert.Equal(t, "b", events[0].Notification.ID)
	assert.True(t, events[0].Notification.Read)
}

func TestDiffIgnoresRemovals(t *testing.T) {
	prev := []model.Notification{note("b", false, 2), note("a", false, 1)}
	next := []model.Notification{note("a", false, 1)}

	assert.Empty(t, Diff(prev, next))
}

func TestDiffSkipsRowsShiftedIntoPage(t *testing.T) {
	// Page of three over five rows; the newest is deleted and n1 moves up.
	prev := []model.Notification{note("n4", false, 4), note("n3", false, 3), note("n2", false, 2)}
	next := []model.Notification{note("n3", false, 3), note("n2", false, 2), note("n1", false, 1)}

	assert.Empty(t, Diff(prev, next))

	// A real insert in the same poll is still reported.
	next = append([]model.Notification{note("n5", false, 5)}, next...)
	events := Diff(prev, next)
	require.Len(t, events, 1)
	assert.Equal(t, OpInsert, events[0].Op)
	assert.Equal(t, "n5", events[0].Notification.ID)
}

func TestDiffFromEmptyPageReportsEverything(t *testing.T) {
	events := Diff(nil, []model.Notification{note("b", false, 2), note("a", false, 1)})
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Notification.ID)
	assert.Equal(t, "b", events[1].Notification.ID)
}

func TestPollerEmitsChangesAfterBaseline(t *testing.T) {
	lister := &fakeLister{items: []model.Notification{note("old", false, 1)}}
	p := NewPoller(lister, 5*time.Millisecond, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Subscribe(ctx, "u1")
	require.NoError(t, err)

	lister.prepend(note("new", false, 2))
	ev := receive(t, ch)
	assert.Equal(t, OpInsert, ev.Op)
	assert.Equal(t, "new", ev.Notification.ID)

	lister.markRead("old")
	ev = receive(t, ch)
	assert.Equal(t, OpUpdate, ev.Op)
	assert.Equal(t, "old", ev.Notification.ID)
}

func TestPollerClosesOnCancel(t *testing.T) {
	p := NewPoller(&fakeLister{}, 5*time.Millisecond, 50)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.Subscribe(ctx, "u1")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel was not closed")
	}
}

func TestPollerSubscribeFailsWithoutBaseline(t *testing.T) {
	p := NewPoller(&fakeLister{err: fmt.Errorf("boom")}, time.Second, 50)

	_, err := p.Subscribe(context.Background(), "u1")
	assert.Error(t, err)
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan Event, 1)
	ch <- Event{Op: OpInsert, Notification: note("x", false, 1)}

	msg := WaitForEvent(ch)()
	require.IsType(t, EventMsg{}, msg)
	assert.Equal(t, "x", msg.(EventMsg).Event.Notification.ID)

	close(ch)
	assert.Equal(t, ClosedMsg{}, WaitForEvent(ch)())
	assert.Nil(t, WaitForEvent(nil))
}

type fakeLoader struct {
	rows map[string]model.Notification
}

func (f fakeLoader) GetNotification(_ context.Context, id string) (*model.Notification, error) {
	n, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("notification %s not found", id)
	}
	return &n, nil
}

func TestListenerDecodeFiltersByUser(t *testing.T) {
	l := NewPGListener("", fakeLoader{rows: map[string]model.Notification{
		"n1": {ID: "n1", UserID: "u1", Title: "Halo"},
	}})
	ctx := context.Background()

	ev, ok, err := l.decode(ctx, `{"op":"INSERT","id":"n1","user_id":"u1"}`, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OpInsert, ev.Op)
	assert.Equal(t, "Halo", ev.Notification.Title)
	assert.Equal(t, model.CategorySystem, ev.Notification.Category)

	_, ok, err = l.decode(ctx, `{"op":"INSERT","id":"n1","user_id":"u2"}`, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = l.decode(ctx, `not json`, "u1")
	assert.Error(t, err)
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}
