package webui

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSSEManager(t *testing.T) {
	manager := NewSSEManager(nil, nil)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.config)
	assert.Equal(t, 30*time.Second, manager.config.HeartbeatInterval)
	assert.Equal(t, 16, manager.config.BufferSize)
	assert.Equal(t, 100, manager.config.MaxClients)
	assert.Equal(t, 0, manager.GetClientCount())
}

func TestNewSSEManagerWithConfig(t *testing.T) {
	config := &SSEConfig{
		HeartbeatInterval: 10 * time.Second,
		BufferSize:        50,
		MaxClients:        25,
	}
	logger := log.New(io.Discard, "", 0)

	manager := NewSSEManager(config, logger)

	assert.Equal(t, 10*time.Second, manager.config.HeartbeatInterval)
	assert.Equal(t, 50, manager.config.BufferSize)
	assert.Equal(t, 25, manager.config.MaxClients)
}

func TestSSEManagerStartStop(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)

	manager.Start(context.Background())
	assert.NotNil(t, manager.ctx)
	assert.NotNil(t, manager.cancel)

	manager.Stop()
	// Stop should be idempotent
	manager.Stop()
}

func TestSSEManagerRegisterClient(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	client, err := manager.RegisterClient("client1", nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, "client1", client.ID)
	assert.NotNil(t, client.Events)
	assert.NotNil(t, client.Done)
	assert.Equal(t, 1, manager.GetClientCount())
}

func TestSSEManagerRegisterClientWithFilters(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	filters := []string{EventTypeMessagePosted, EventTypeReplyPosted}
	client, err := manager.RegisterClient("client1", filters)

	require.NoError(t, err)
	assert.Equal(t, filters, client.Filters)
}

func TestSSEManagerMaxClients(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        2,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	_, err := manager.RegisterClient("client1", nil)
	require.NoError(t, err)

	_, err = manager.RegisterClient("client2", nil)
	require.NoError(t, err)

	_, err = manager.RegisterClient("client3", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "maximum")
}

func TestSSEManagerUnregisterClient(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	_, err := manager.RegisterClient("client1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, manager.GetClientCount())

	manager.UnregisterClient("client1")
	assert.Equal(t, 0, manager.GetClientCount())

	// Should be idempotent
	manager.UnregisterClient("client1")
	assert.Equal(t, 0, manager.GetClientCount())
}

func TestSSEManagerSendEvent(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	client, err := manager.RegisterClient("client1", nil)
	require.NoError(t, err)

	manager.SendEvent(EventTypeMessagePosted, map[string]interface{}{
		"channel_id": "C123",
	})

	// Wait for event to be dispatched
	select {
	case msg := <-client.Events:
		assert.Contains(t, string(msg), "event: message_posted")
		assert.Contains(t, string(msg), "C123")
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestSSEManagerSendEventWithFilters(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	// Client 1 only wants message events
	client1, _ := manager.RegisterClient("client1", []string{EventTypeMessagePosted})
	// Client 2 wants all events
	client2, _ := manager.RegisterClient("client2", nil)

	// Send an error event (should only go to client2)
	manager.SendEvent(EventTypeConsoleError, map[string]interface{}{})

	// Wait for event processing
	time.Sleep(50 * time.Millisecond)

	select {
	case <-client1.Events:
		t.Fatal("client1 should not receive console_error event")
	default:
		// Expected
	}

	select {
	case msg := <-client2.Events:
		assert.Contains(t, string(msg), "console_error")
	default:
		t.Fatal("client2 should receive console_error event")
	}
}

func TestSSEManagerBroadcastToMultipleClients(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	client1, _ := manager.RegisterClient("client1", nil)
	client2, _ := manager.RegisterClient("client2", nil)

	manager.SendEvent(EventTypeMessagePosted, map[string]interface{}{"test": "data"})

	// Wait for event processing
	time.Sleep(50 * time.Millisecond)

	select {
	case msg := <-client1.Events:
		assert.Contains(t, string(msg), "message_posted")
	default:
		t.Fatal("client1 should receive event")
	}

	select {
	case msg := <-client2.Events:
		assert.Contains(t, string(msg), "message_posted")
	default:
		t.Fatal("client2 should receive event")
	}
}

func TestSSEManagerFullQueueDropsEvent(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	// Not started: no dispatcher drains the queue.
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        2,
		MaxClients:        10,
	}, logger)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			manager.SendEvent(EventTypeMessagePosted, map[string]interface{}{"i": i})
		}
		close(done)
	}()

	select {
	case <-done:
		// Expected: overflow is dropped, never blocks
	case <-time.After(2 * time.Second):
		t.Fatal("SendEvent blocked on a full queue")
	}
}

func TestFormatSSEMessage(t *testing.T) {
	data := []byte(`{"channel_id":"C123"}`)
	message := formatSSEMessage("test_event", data)

	assert.Contains(t, string(message), "event: test_event")
	assert.Contains(t, string(message), `data: {"channel_id":"C123"}`)
	assert.Contains(t, string(message), "\n\n")
}

func TestSSEManagerShouldSendToClient(t *testing.T) {
	manager := NewSSEManager(nil, nil)

	tests := []struct {
		name      string
		filters   []string
		eventType string
		expected  bool
	}{
		{
			name:      "no filters receives all",
			filters:   nil,
			eventType: EventTypeMessagePosted,
			expected:  true,
		},
		{
			name:      "empty filters receives all",
			filters:   []string{},
			eventType: EventTypeMessagePosted,
			expected:  true,
		},
		{
			name:      "matching filter",
			filters:   []string{EventTypeMessagePosted},
			eventType: EventTypeMessagePosted,
			expected:  true,
		},
		{
			name:      "non-matching filter",
			filters:   []string{EventTypeMessagePosted},
			eventType: EventTypeTokenAdded,
			expected:  false,
		},
		{
			name:      "multiple filters match",
			filters:   []string{EventTypeMessagePosted, EventTypeReplyPosted},
			eventType: EventTypeReplyPosted,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &SSEClient{Filters: tt.filters}
			result := manager.shouldSendToClient(client, tt.eventType)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSSEManagerClientClosesSafely(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        10,
		MaxClients:        10,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	client, _ := manager.RegisterClient("client1", nil)

	// Unregister closes channels
	manager.UnregisterClient("client1")

	// Verify Done channel is closed
	select {
	case <-client.Done:
		// Expected
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestSSEManagerConcurrentAccess(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	manager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 1 * time.Hour,
		BufferSize:        100,
		MaxClients:        100,
	}, logger)
	manager.Start(context.Background())
	defer manager.Stop()

	done := make(chan bool)

	// Concurrent register/unregister
	go func() {
		for i := 0; i < 20; i++ {
			client, _ := manager.RegisterClient("goroutine1", nil)
			if client != nil {
				manager.UnregisterClient("goroutine1")
			}
		}
		done <- true
	}()

	// Concurrent send events
	go func() {
		for i := 0; i < 50; i++ {
			manager.SendEvent(EventTypeMessagePosted, map[string]interface{}{"i": i})
		}
		done <- true
	}()

	// Concurrent get client count
	go func() {
		for i := 0; i < 50; i++ {
			_ = manager.GetClientCount()
		}
		done <- true
	}()

	<-done
	<-done
	<-done
}
