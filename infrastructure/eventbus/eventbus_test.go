package eventbus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(TopicRepositoryReady)
	defer sub.Unsubscribe()

	bus.Publish(TopicRepositoryReady, 42)

	select {
	case event := <-sub.Events():
		if event.Topic != TopicRepositoryReady {
			t.Errorf("Topic = %v, want %v", event.Topic, TopicRepositoryReady)
		}
		if event.Payload != 42 {
			t.Errorf("Payload = %v, want 42", event.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(nil)
	sub1 := bus.Subscribe(TopicMessageDelta)
	sub2 := bus.Subscribe(TopicMessageDelta)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	bus.Publish(TopicMessageDelta, "chunk")

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case event := <-sub.Events():
			if event.Payload != "chunk" {
				t.Errorf("Payload = %v, want chunk", event.Payload)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_NoSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(TopicDocumentationCompleted, "noop")
}

func TestBus_DropsWhenSubscriberFull(t *testing.T) {
	bus := NewBusWithBufferSize(nil, 1)
	sub := bus.Subscribe(TopicGraphStatusChanged)
	defer sub.Unsubscribe()

	bus.Publish(TopicGraphStatusChanged, 1)
	bus.Publish(TopicGraphStatusChanged, 2) // dropped, buffer full

	event := <-sub.Events()
	if event.Payload != 1 {
		t.Errorf("Payload = %v, want 1", event.Payload)
	}
	select {
	case <-sub.Events():
		t.Fatal("expected no second event, buffer should have dropped it")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(TopicMessageComplete)
	if got := bus.SubscriberCount(TopicMessageComplete); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}
	sub.Unsubscribe()
	if got := bus.SubscriberCount(TopicMessageComplete); got != 0 {
		t.Fatalf("SubscriberCount() after Unsubscribe = %d, want 0", got)
	}
}
