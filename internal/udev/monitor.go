// Package udev provides display hot-plug detection via netlink/udev DRM events.
package udev

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog/log"
)

const (
	// netlinkBufferSize is the receive buffer size for the netlink socket.
	// A larger buffer prevents ENOBUFS errors when a dock attaches several outputs at once.
	netlinkBufferSize = 2 * 1024 * 1024 // 2 MB

	// changeDebounceWindow collapses the burst of hotplug change events a single
	// plug or unplug produces on one card.
	changeDebounceWindow = 500 * time.Millisecond

	// debounceRetention is how long debounce timestamps are kept before cleanup.
	debounceRetention = time.Minute
)

// DRMSubsystem is the kernel subsystem of display connectors and cards.
const DRMSubsystem = "drm"

// EventType represents the type of device event.
type EventType int

const (
	// EventAdd indicates a card or connector appeared.
	EventAdd EventType = iota
	// EventRemove indicates a card or connector disappeared.
	EventRemove
	// EventChange indicates a connector status changed (monitor plugged or unplugged).
	EventChange
)

// String returns the udev action name.
func (t EventType) String() string {
	switch t {
	case EventAdd:
		return "add"
	case EventRemove:
		return "remove"
	case EventChange:
		return "change"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event represents a display hot-plug event.
type Event struct {
	Type EventType
	// Device is the kernel object path, e.g. /devices/pci0000:00/0000:00:02.0/drm/card0.
	Device string
}

// EventHandler is called when a device event occurs.
type EventHandler func(event Event)

// RecoveryHandler is called when the monitor recovers from an error condition
// (e.g., netlink buffer overflow) and needs to trigger a refresh.
type RecoveryHandler func()

// Monitor watches for DRM connect/disconnect events.
type Monitor struct {
	conn            *netlink.UEventConn
	handler         EventHandler
	recoveryHandler RecoveryHandler
	quit            chan struct{}
	stopped         bool
	lastChangeTime  map[string]time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewMonitor creates a new udev monitor with the given event handler.
func NewMonitor(handler EventHandler) *Monitor {
	return &Monitor{
		handler:        handler,
		lastChangeTime: make(map[string]time.Time),
		now:            time.Now,
	}
}

// SetRecoveryHandler sets the handler called when the monitor recovers from errors.
// This should trigger a display refresh to recover from potentially missed events.
func (m *Monitor) SetRecoveryHandler(handler RecoveryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryHandler = handler
}

// Start begins monitoring for device events.
// This method is non-blocking; events are processed in a background goroutine.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("monitor already started")
	}

	m.conn = &netlink.UEventConn{}
	if err := m.conn.Connect(netlink.UdevEvent); err != nil {
		m.conn = nil
		return fmt.Errorf("failed to connect to netlink: %w", err)
	}

	if err := setSocketBufferSize(m.conn.Fd, netlinkBufferSize); err != nil {
		log.Warn().Err(err).Int("size", netlinkBufferSize).Msg("Failed to set netlink buffer size")
		// The default buffer is usually enough for a single monitor
	} else {
		log.Debug().Int("size", netlinkBufferSize).Msg("Netlink socket buffer size configured")
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.quit = m.conn.Monitor(queue, errs, m.createMatcher())
	m.stopped = false

	go m.processEvents(queue, errs)

	log.Info().Msg("udev monitor started")
	return nil
}

// Stop stops the monitor and releases resources.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.stopped {
		return nil
	}

	m.stopped = true

	select {
	case m.quit <- struct{}{}:
	default:
	}

	if err := m.conn.Close(); err != nil {
		return fmt.Errorf("failed to close netlink connection: %w", err)
	}

	m.conn = nil
	log.Info().Msg("udev monitor stopped")
	return nil
}

// createMatcher matches add, remove and change actions in the DRM subsystem.
func (m *Monitor) createMatcher() *netlink.RuleDefinitions {
	rules := &netlink.RuleDefinitions{}
	subsystem := fmt.Sprintf("^%s$", DRMSubsystem)

	for _, action := range []string{"add", "remove", "change"} {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": subsystem,
			},
		})
	}

	return rules
}

// processEvents handles incoming udev events.
func (m *Monitor) processEvents(queue chan netlink.UEvent, errs chan error) {
	for {
		select {
		case event, ok := <-queue:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.mu.Lock()
			stopped := m.stopped
			recoveryHandler := m.recoveryHandler
			m.mu.Unlock()
			if stopped {
				return
			}

			// Events may have been dropped, re-probe displays.
			if isBufferOverflowError(err) {
				log.Warn().Msg("Netlink buffer overflow detected, triggering recovery refresh")
				if recoveryHandler != nil {
					go recoveryHandler()
				}
				continue
			}

			log.Error().Err(err).Msg("udev monitor error")
		}
	}
}

// setSocketBufferSize sets the receive buffer size for a socket.
// It first tries SO_RCVBUFFORCE (requires CAP_NET_ADMIN), then falls back to SO_RCVBUF.
func setSocketBufferSize(fd int, size int) error {
	err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUFFORCE, size)
	if err == nil {
		return nil
	}

	// Capped at net.core.rmem_max
	return syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size)
}

// isBufferOverflowError checks if the error is a netlink buffer overflow (ENOBUFS).
func isBufferOverflowError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENOBUFS) {
		return true
	}
	// The udev library does not always wrap the errno
	return strings.Contains(strings.ToLower(err.Error()), "no buffer space available")
}

// isRenderNode reports whether the event is for a render-only node (dri/renderD128),
// which has no connectors.
func isRenderNode(uevent netlink.UEvent) bool {
	return strings.HasPrefix(uevent.Env["DEVNAME"], "dri/renderD")
}

// shouldDebounceChange reports whether a change event for device arrived within
// changeDebounceWindow of the previous one, and records the current time.
func (m *Monitor) shouldDebounceChange(device string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for d, ts := range m.lastChangeTime {
		if now.Sub(ts) > debounceRetention {
			delete(m.lastChangeTime, d)
		}
	}

	last, seen := m.lastChangeTime[device]
	m.lastChangeTime[device] = now
	return seen && now.Sub(last) < changeDebounceWindow
}

// handleEvent processes a single udev event.
func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	if isRenderNode(uevent) {
		return
	}

	log.Debug().
		Str("action", string(uevent.Action)).
		Str("devpath", uevent.KObj).
		Str("devname", uevent.Env["DEVNAME"]).
		Msg("DRM device event")

	var eventType EventType
	switch uevent.Action {
	case netlink.ADD:
		eventType = EventAdd
		log.Info().Str("devpath", uevent.KObj).Msg("Display device added")
	case netlink.REMOVE:
		eventType = EventRemove
		log.Info().Str("devpath", uevent.KObj).Msg("Display device removed")
	case netlink.CHANGE:
		// Only connector status changes matter; other change events are e.g. lease updates.
		if uevent.Env["HOTPLUG"] != "1" {
			return
		}
		if m.shouldDebounceChange(uevent.KObj) {
			log.Debug().Str("devpath", uevent.KObj).Msg("Debounced hotplug event")
			return
		}
		eventType = EventChange
		log.Info().Str("devpath", uevent.KObj).Msg("Display hotplug detected")
	default:
		return
	}

	if m.handler != nil {
		m.handler(Event{Type: eventType, Device: uevent.KObj})
	}
}
