// Package store provides Gateway implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/timesheet"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

var ErrNotFound = errors.New("timesheet not found")

type Memory struct {
	mu      sync.RWMutex
	records map[timesheet.TimesheetID]reconcile.Record
	nextID  int
	nextInv int

	// FailInvoice / FailWrites simulate gateway outages in tests.
	FailInvoice bool
	FailWrites  bool
}

func NewMemory() *Memory {
	return &Memory{records: make(map[timesheet.TimesheetID]reconcile.Record)}
}

func (m *Memory) LookupByJobseekerAndWeek(_ context.Context, userID timesheet.JobseekerUserID, weekStart, weekEnd timesheet.Date) ([]reconcile.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []reconcile.Record
	for _, r := range m.records {
		if r.JobseekerUserID != userID {
			continue
		}
		if r.WeekStart.Before(weekStart) || r.WeekStart.After(weekEnd) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out, nil
}

func (m *Memory) GenerateInvoiceNumber(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailInvoice {
		return "", errors.New("invoice generator unavailable")
	}
	m.nextInv++
	return fmt.Sprintf("INV-%06d", m.nextInv), nil
}

func (m *Memory) Create(_ context.Context, payload reconcile.Record) (reconcile.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return reconcile.Record{}, errors.New("gateway write failed")
	}

	m.nextID++
	payload.ID = timesheet.TimesheetID(fmt.Sprintf("ts-%d", m.nextID))
	if payload.InvoiceNumber == "" || payload.InvoiceNumber == reconcile.InvoicePlaceholder {
		m.nextInv++
		payload.InvoiceNumber = fmt.Sprintf("INV-%06d", m.nextInv)
	}
	m.records[payload.ID] = payload
	return payload, nil
}

func (m *Memory) Update(_ context.Context, id timesheet.TimesheetID, payload reconcile.Record) (reconcile.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return reconcile.Record{}, errors.New("gateway write failed")
	}

	existing, ok := m.records[id]
	if !ok {
		return reconcile.Record{}, ErrNotFound
	}

	// Full replace, but identity and invoice number are stable.
	payload.ID = id
	payload.InvoiceNumber = existing.InvoiceNumber
	m.records[id] = payload
	return payload, nil
}

// Get returns a stored record by ID, for test assertions.
func (m *Memory) Get(id timesheet.TimesheetID) (reconcile.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
