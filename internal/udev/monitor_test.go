// SPDX-License-Identifier: GPL-3.0-only

package udev

import (
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/stretchr/testify/assert"
)

const card0 = "/devices/pci0000:00/0000:00:02.0/drm/card0"

func TestNewMonitor(t *testing.T) {
	handlerCalled := false
	handler := func(event Event) {
		handlerCalled = true
	}

	monitor := NewMonitor(handler)
	assert.NotNil(t, monitor)
	assert.NotNil(t, monitor.handler)

	monitor.handler(Event{Type: EventAdd})
	assert.True(t, handlerCalled)
}

func TestNewMonitor_NilHandler(t *testing.T) {
	monitor := NewMonitor(nil)
	assert.NotNil(t, monitor)
	assert.Nil(t, monitor.handler)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, EventType(0), EventAdd)
	assert.Equal(t, EventType(1), EventRemove)
	assert.Equal(t, EventType(2), EventChange)

	assert.Equal(t, "add", EventAdd.String())
	assert.Equal(t, "remove", EventRemove.String())
	assert.Equal(t, "change", EventChange.String())
	assert.Equal(t, "EventType(7)", EventType(7).String())
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	monitor := NewMonitor(nil)
	err := monitor.Stop()
	assert.NoError(t, err)
}

func TestMonitor_HandleEvent(t *testing.T) {
	tests := []struct {
		name          string
		uevent        netlink.UEvent
		expectHandler bool
		expectedType  EventType
	}{
		{
			name: "card add triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   card0,
				Env:    map[string]string{"DEVNAME": "dri/card0", "DEVTYPE": "drm_minor"},
			},
			expectHandler: true,
			expectedType:  EventAdd,
		},
		{
			name: "connector add triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   card0 + "/card0-DP-1",
				Env:    map[string]string{},
			},
			expectHandler: true,
			expectedType:  EventAdd,
		},
		{
			name: "card remove triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.REMOVE,
				KObj:   card0,
				Env:    map[string]string{"DEVNAME": "dri/card0"},
			},
			expectHandler: true,
			expectedType:  EventRemove,
		},
		{
			name: "hotplug change triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.CHANGE,
				KObj:   card0,
				Env:    map[string]string{"DEVNAME": "dri/card0", "HOTPLUG": "1"},
			},
			expectHandler: true,
			expectedType:  EventChange,
		},
		{
			name: "change without HOTPLUG is ignored",
			uevent: netlink.UEvent{
				Action: netlink.CHANGE,
				KObj:   card0,
				Env:    map[string]string{"DEVNAME": "dri/card0", "LEASE": "1"},
			},
			expectHandler: false,
		},
		{
			name: "render node is ignored",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   "/devices/pci0000:00/0000:00:02.0/drm/renderD128",
				Env:    map[string]string{"DEVNAME": "dri/renderD128"},
			},
			expectHandler: false,
		},
		{
			name: "bind action is ignored",
			uevent: netlink.UEvent{
				Action: netlink.BIND,
				KObj:   card0,
				Env:    map[string]string{"DEVNAME": "dri/card0"},
			},
			expectHandler: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			handlerCalled := false
			var receivedEvent Event

			handler := func(event Event) {
				mu.Lock()
				defer mu.Unlock()
				handlerCalled = true
				receivedEvent = event
			}

			monitor := NewMonitor(handler)
			monitor.handleEvent(tt.uevent)

			mu.Lock()
			defer mu.Unlock()

			if tt.expectHandler {
				assert.True(t, handlerCalled, "handler should have been called")
				assert.Equal(t, tt.expectedType, receivedEvent.Type)
				assert.Equal(t, tt.uevent.KObj, receivedEvent.Device)
			} else {
				assert.False(t, handlerCalled, "handler should not have been called")
			}
		})
	}
}

func TestMonitor_HandleEvent_NilHandler(t *testing.T) {
	monitor := NewMonitor(nil)
	uevent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   card0,
		Env:    map[string]string{"DEVNAME": "dri/card0"},
	}

	assert.NotPanics(t, func() {
		monitor.handleEvent(uevent)
	})
}

func TestMonitor_CreateMatcher(t *testing.T) {
	monitor := NewMonitor(nil)
	matcher := monitor.createMatcher()

	assert.NotNil(t, matcher)
	assert.Len(t, matcher.Rules, 3) // add, remove and change rules

	err := matcher.Compile()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		uevent   netlink.UEvent
		expected bool
	}{
		{
			name:     "matches drm add",
			uevent:   netlink.UEvent{Action: netlink.ADD, KObj: card0, Env: map[string]string{"SUBSYSTEM": "drm"}},
			expected: true,
		},
		{
			name:     "matches drm remove",
			uevent:   netlink.UEvent{Action: netlink.REMOVE, KObj: card0, Env: map[string]string{"SUBSYSTEM": "drm"}},
			expected: true,
		},
		{
			name:     "matches drm change",
			uevent:   netlink.UEvent{Action: netlink.CHANGE, KObj: card0, Env: map[string]string{"SUBSYSTEM": "drm", "HOTPLUG": "1"}},
			expected: true,
		},
		{
			name:     "does not match bind",
			uevent:   netlink.UEvent{Action: netlink.BIND, KObj: card0, Env: map[string]string{"SUBSYSTEM": "drm"}},
			expected: false,
		},
		{
			name:     "does not match usb subsystem",
			uevent:   netlink.UEvent{Action: netlink.ADD, KObj: "/devices/pci0000:00/usb1/1-1", Env: map[string]string{"SUBSYSTEM": "usb"}},
			expected: false,
		},
		{
			name:     "does not match subsystem containing drm",
			uevent:   netlink.UEvent{Action: netlink.ADD, KObj: card0, Env: map[string]string{"SUBSYSTEM": "drm_dp_aux_dev"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matcher.Evaluate(tt.uevent)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMonitor_SetRecoveryHandler(t *testing.T) {
	monitor := NewMonitor(nil)
	assert.Nil(t, monitor.recoveryHandler)

	handlerCalled := false
	handler := func() {
		handlerCalled = true
	}

	monitor.SetRecoveryHandler(handler)
	assert.NotNil(t, monitor.recoveryHandler)

	monitor.recoveryHandler()
	assert.True(t, handlerCalled)
}

func TestIsBufferOverflowError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error returns false",
			err:      nil,
			expected: false,
		},
		{
			name:     "ENOBUFS syscall error returns true",
			err:      syscall.ENOBUFS,
			expected: true,
		},
		{
			name:     "error message with 'no buffer space available' returns true",
			err:      errors.New("unable to check available uevent, err: no buffer space available"),
			expected: true,
		},
		{
			name:     "generic error returns false",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "different syscall error returns false",
			err:      syscall.EINVAL,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isBufferOverflowError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMonitor_ChangeEventDebouncing(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	monitor := NewMonitor(handler)
	monitor.now = func() time.Time { return now }

	uevent := netlink.UEvent{
		Action: netlink.CHANGE,
		KObj:   card0,
		Env:    map[string]string{"DEVNAME": "dri/card0", "HOTPLUG": "1"},
	}

	monitor.handleEvent(uevent)
	now = now.Add(100 * time.Millisecond)
	monitor.handleEvent(uevent)
	now = now.Add(100 * time.Millisecond)
	monitor.handleEvent(uevent)

	mu.Lock()
	assert.Equal(t, 1, callCount, "burst of change events should trigger handler once")
	mu.Unlock()

	now = now.Add(time.Second)
	monitor.handleEvent(uevent)

	mu.Lock()
	assert.Equal(t, 2, callCount, "change after the debounce window should trigger handler")
	mu.Unlock()
}

func TestMonitor_ChangeEventDebouncing_DifferentCards(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	monitor := NewMonitor(handler)

	monitor.handleEvent(netlink.UEvent{
		Action: netlink.CHANGE,
		KObj:   card0,
		Env:    map[string]string{"HOTPLUG": "1"},
	})
	monitor.handleEvent(netlink.UEvent{
		Action: netlink.CHANGE,
		KObj:   "/devices/pci0000:00/0000:01:00.0/drm/card1",
		Env:    map[string]string{"HOTPLUG": "1"},
	})

	mu.Lock()
	assert.Equal(t, 2, callCount, "change events for different cards should both trigger handler")
	mu.Unlock()
}

func TestMonitor_ShouldDebounceChange_Cleanup(t *testing.T) {
	monitor := NewMonitor(nil)

	oldDevice := "/devices/old/drm/card9"
	monitor.mu.Lock()
	monitor.lastChangeTime[oldDevice] = time.Now().Add(-2 * time.Minute)
	monitor.mu.Unlock()

	assert.False(t, monitor.shouldDebounceChange(card0), "first call should not debounce")
	assert.True(t, monitor.shouldDebounceChange(card0), "immediate second call should debounce")

	monitor.mu.Lock()
	_, oldExists := monitor.lastChangeTime[oldDevice]
	_, newExists := monitor.lastChangeTime[card0]
	monitor.mu.Unlock()

	assert.False(t, oldExists, "old entry should be cleaned up")
	assert.True(t, newExists, "new entry should exist")
}

func TestMonitor_AddEventsNotDebounced(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	monitor := NewMonitor(handler)
	uevent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   card0,
		Env:    map[string]string{"DEVNAME": "dri/card0"},
	}

	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)

	mu.Lock()
	assert.Equal(t, 3, callCount, "ADD events should not be debounced")
	mu.Unlock()
}
