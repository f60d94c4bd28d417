package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calistree/progression-api/internal/notify"
)

func TestSubscribeAndPublish(t *testing.T) {
	hub := notify.NewHub()

	var got []notify.Event
	hub.Subscribe(func(e notify.Event) {
		got = append(got, e)
	})

	hub.Publish(notify.Event{Kind: notify.KindSkillUnlocked, Field: "pullup"})
	hub.Publish(notify.Event{Kind: notify.KindSkillsReset})

	assert.Len(t, got, 2)
	assert.Equal(t, notify.KindSkillUnlocked, got[0].Kind)
	assert.Equal(t, "pullup", got[0].Field)
	assert.Equal(t, notify.KindSkillsReset, got[1].Kind)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := notify.NewHub()

	count := 0
	unsubscribe := hub.Subscribe(func(notify.Event) { count++ })

	hub.Publish(notify.Event{Kind: notify.KindQuestsChanged})
	unsubscribe()
	hub.Publish(notify.Event{Kind: notify.KindQuestsChanged})

	assert.Equal(t, 1, count)
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	hub := notify.NewHub()

	a, b := 0, 0
	hub.Subscribe(func(notify.Event) { a++ })
	hub.Subscribe(func(notify.Event) { b++ })

	hub.Publish(notify.Event{Kind: notify.KindLedgerChanged})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestPublishWithNoSubscribersIsSafe(t *testing.T) {
	hub := notify.NewHub()
	assert.NotPanics(t, func() {
		hub.Publish(notify.Event{Kind: notify.KindSkillsReset})
	})
}
