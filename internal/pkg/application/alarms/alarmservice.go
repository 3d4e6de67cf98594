package alarms

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diwise/iot-device-gateway/pkg/types"
	"github.com/google/uuid"
)

var ErrAlertNotFound = fmt.Errorf("alert not found")

//go:generate moq -rm -out alarmservice_mock.go . AlarmService

// AlarmService is the in-memory alert store. Alerts are kept for the lifetime of the process.
type AlarmService interface {
	// Add stores a new alert, or refreshes an unacknowledged alert with the same device, type
	// and severity. Emergency alerts are never merged. The returned bool reports whether a new
	// alert was created.
	Add(ctx context.Context, alert types.Alert) (types.Alert, bool, error)
	Get(ctx context.Context, acknowledged *bool) []types.Alert
	GetByID(ctx context.Context, alertID string) (types.Alert, error)
	GetByDeviceID(ctx context.Context, deviceID string) []types.Alert
	// Acknowledge transitions an alert to acknowledged once. Acknowledging an already
	// acknowledged alert keeps the first actor and timestamp.
	Acknowledge(ctx context.Context, alertID, actor string) (types.Alert, bool, error)
	CountUnacknowledged(ctx context.Context) int
	Clear(ctx context.Context)
}

type alarmSvc struct {
	mu     sync.RWMutex
	alerts map[string]*types.Alert
	open   map[string]string
	now    func() time.Time
}

func New() AlarmService {
	return &alarmSvc{
		alerts: make(map[string]*types.Alert),
		open:   make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func dedupKey(a types.Alert) string {
	return fmt.Sprintf("%s|%s|%d", a.DeviceID, a.Type, a.Severity)
}

func (svc *alarmSvc) Add(ctx context.Context, alert types.Alert) (types.Alert, bool, error) {
	if alert.DeviceID == "" {
		return types.Alert{}, false, fmt.Errorf("no device id is set on alert")
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = svc.now()
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	key := dedupKey(alert)

	if alert.Severity < types.AlertLevelEmergency {
		if id, ok := svc.open[key]; ok {
			existing := svc.alerts[id]
			if alert.Timestamp.After(existing.Timestamp) {
				existing.Timestamp = alert.Timestamp
				existing.Message = alert.Message
				if alert.Location != nil {
					existing.Location = alert.Location
				}
			}
			return *existing, false, nil
		}
	}

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	alert.Acknowledged = false
	alert.AcknowledgedBy = ""
	alert.AcknowledgedAt = nil

	a := alert
	svc.alerts[a.ID] = &a
	if a.Severity < types.AlertLevelEmergency {
		svc.open[key] = a.ID
	}

	return a, true, nil
}

func (svc *alarmSvc) Get(ctx context.Context, acknowledged *bool) []types.Alert {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	result := make([]types.Alert, 0, len(svc.alerts))
	for _, a := range svc.alerts {
		if acknowledged != nil && a.Acknowledged != *acknowledged {
			continue
		}
		result = append(result, *a)
	}

	sortByTimestamp(result)
	return result
}

func (svc *alarmSvc) GetByID(ctx context.Context, alertID string) (types.Alert, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	a, ok := svc.alerts[alertID]
	if !ok {
		return types.Alert{}, ErrAlertNotFound
	}
	return *a, nil
}

func (svc *alarmSvc) GetByDeviceID(ctx context.Context, deviceID string) []types.Alert {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	result := []types.Alert{}
	for _, a := range svc.alerts {
		if a.DeviceID == deviceID {
			result = append(result, *a)
		}
	}

	sortByTimestamp(result)
	return result
}

// Acknowledge returns the alert and whether this call performed the transition.
func (svc *alarmSvc) Acknowledge(ctx context.Context, alertID, actor string) (types.Alert, bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	a, ok := svc.alerts[alertID]
	if !ok {
		return types.Alert{}, false, ErrAlertNotFound
	}

	if a.Acknowledged {
		return *a, false, nil
	}

	now := svc.now()
	a.Acknowledged = true
	a.AcknowledgedBy = actor
	a.AcknowledgedAt = &now

	key := dedupKey(*a)
	if svc.open[key] == a.ID {
		delete(svc.open, key)
	}

	return *a, true, nil
}

func (svc *alarmSvc) CountUnacknowledged(ctx context.Context) int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	n := 0
	for _, a := range svc.alerts {
		if !a.Acknowledged {
			n++
		}
	}
	return n
}

func (svc *alarmSvc) Clear(ctx context.Context) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.alerts = make(map[string]*types.Alert)
	svc.open = make(map[string]string)
}

func sortByTimestamp(alerts []types.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].ID < alerts[j].ID
		}
		return alerts[i].Timestamp.Before(alerts[j].Timestamp)
	})
}
