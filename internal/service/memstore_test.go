package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

// memState is the full contents of the fake database.
type memState struct {
	rooms        map[uint64]model.Room
	reservations map[uint64]model.Reservation
	clients      map[uint64]bool
	audit        []model.RoomAuditLog
	nextResID    uint64
}

func (s *memState) clone() *memState {
	c := &memState{
		rooms:        make(map[uint64]model.Room, len(s.rooms)),
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		clients:      make(map[uint64]bool, len(s.clients)),
		audit:        append([]model.RoomAuditLog(nil), s.audit...),
		nextResID:    s.nextResID,
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.reservations {
		v.RoomIDs = append([]uint64(nil), v.RoomIDs...)
		c.reservations[k] = v
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	return c
}

// memStore is a BookingStore whose transactions work on a copy of the
// state that replaces the original only when fn succeeds.  Transactions
// are serialized by a mutex, which is what SERIALIZABLE promises.
type memStore struct {
	mu    sync.Mutex
	state *memState
	// fail makes the named BookingTx method return the error.
	fail map[string]error
	// afterFail runs on the committed state when an injected failure
	// fires, to simulate what a concurrent writer did.
	afterFail func(*memState)
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			rooms:        map[uint64]model.Room{},
			reservations: map[uint64]model.Reservation{},
			clients:      map[uint64]bool{},
			nextResID:    1,
		},
		fail: map[string]error{},
	}
}

func (m *memStore) addRoom(id uint64, number string, status model.RoomStatus) {
	m.state.rooms[id] = model.Room{RoomID: id, RoomNumber: number, Status: status, IsAvailable: true, Capacity: 2}
}

func (m *memStore) addClient(id uint64) { m.state.clients[id] = true }

func (m *memStore) addReservation(r model.Reservation) uint64 {
	if r.ID == 0 {
		r.ID = m.state.nextResID
	}
	if r.ID >= m.state.nextResID {
		m.state.nextResID = r.ID + 1
	}
	if r.Version == 0 {
		r.Version = 1
	}
	m.state.reservations[r.ID] = r
	return r.ID
}

func (m *memStore) room(id uint64) model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.rooms[id]
}

func (m *memStore) reservation(id uint64) (model.Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	return r, ok
}

func (m *memStore) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.audit)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	tx := &memTx{store: m, s: work}
	if err := fn(tx); err != nil {
		if tx.injected && m.afterFail != nil {
			m.afterFail(m.state)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) ReservationExists(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.state.reservations[id]
	return ok, nil
}

type memTx struct {
	store    *memStore
	s        *memState
	injected bool
}

func (t *memTx) check(op string) error {
	if err, ok := t.store.fail[op]; ok {
		t.injected = true
		return err
	}
	return nil
}

func (t *memTx) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	if err := t.check("GetRoom"); err != nil {
		return nil, err
	}
	rm, ok := t.s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &rm, nil
}

func (t *memTx) LockRoom(ctx context.Context, id uint64) (*model.Room, error) {
	if err := t.check("LockRoom"); err != nil {
		return nil, err
	}
	return t.GetRoom(ctx, id)
}

func (t *memTx) sortedRooms(keep func(model.Room) bool) []model.Room {
	var out []model.Room
	for _, rm := range t.s.rooms {
		if keep(rm) {
			out = append(out, rm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out
}

func (t *memTx) ListRooms(context.Context) ([]model.Room, error) {
	if err := t.check("ListRooms"); err != nil {
		return nil, err
	}
	return t.sortedRooms(func(model.Room) bool { return true }), nil
}

func (t *memTx) RoomsInStatus(_ context.Context, status model.RoomStatus) ([]model.Room, error) {
	return t.sortedRooms(func(rm model.Room) bool { return rm.Status == status }), nil
}

func (t *memTx) SetRoomStatus(_ context.Context, id uint64, status model.RoomStatus, actor string) error {
	if err := t.check("SetRoomStatus"); err != nil {
		return err
	}
	rm, ok := t.s.rooms[id]
	if !ok {
		return repository.ErrRoomNotFound
	}
	rm.Status = status
	rm.ModifiedBy = &actor
	t.s.rooms[id] = rm
	return nil
}

func (t *memTx) ClientExists(_ context.Context, id uint64) (bool, error) {
	return t.s.clients[id], nil
}

func (t *memTx) holds(r model.Reservation, roomID uint64) bool {
	for _, id := range r.RoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}

func (t *memTx) HasConflict(_ context.Context, roomID uint64, rng model.DateRange, excludeID *uint64) (bool, error) {
	if err := t.check("HasConflict"); err != nil {
		return false, err
	}
	for _, r := range t.s.reservations {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if r.Status.Blocking() && t.holds(r, roomID) && r.Range().Overlaps(rng) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) BlockedRoomIDs(_ context.Context, rng model.DateRange) (map[uint64]struct{}, error) {
	out := map[uint64]struct{}{}
	for _, r := range t.s.reservations {
		if r.Status.Blocking() && r.Range().Overlaps(rng) {
			for _, id := range r.RoomIDs {
				out[id] = struct{}{}
			}
		}
	}
	return out, nil
}

func (t *memTx) HasUpcomingPending(_ context.Context, roomID uint64, today time.Time, excludeID uint64) (bool, error) {
	for _, r := range t.s.reservations {
		if r.ID != excludeID && r.Status == model.ReservationPending && t.holds(r, roomID) && !r.CheckInDate.Before(today) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) HasOpenClaim(_ context.Context, roomID uint64, today time.Time) (bool, error) {
	for _, r := range t.s.reservations {
		if r.Status.Blocking() && t.holds(r, roomID) && r.CheckOutDate.After(today) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertReservation(_ context.Context, res *model.Reservation) error {
	if err := t.check("InsertReservation"); err != nil {
		return err
	}
	res.ID = t.s.nextResID
	t.s.nextResID++
	res.Version = 1
	cp := *res
	cp.RoomIDs = nil
	t.s.reservations[res.ID] = cp
	return nil
}

func (t *memTx) LinkRoom(_ context.Context, reservationID, roomID uint64) error {
	r := t.s.reservations[reservationID]
	r.RoomIDs = append(r.RoomIDs, roomID)
	t.s.reservations[reservationID] = r
	return nil
}

func (t *memTx) UnlinkRoom(_ context.Context, reservationID, roomID uint64) error {
	if err := t.check("UnlinkRoom"); err != nil {
		return err
	}
	r := t.s.reservations[reservationID]
	for i, id := range r.RoomIDs {
		if id == roomID {
			r.RoomIDs = append(r.RoomIDs[:i:i], r.RoomIDs[i+1:]...)
			t.s.reservations[reservationID] = r
			return nil
		}
	}
	return repository.ErrNotFound
}

func (t *memTx) LockReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	r.RoomIDs = append([]uint64(nil), r.RoomIDs...)
	return &r, nil
}

func (t *memTx) UpdateReservation(_ context.Context, res *model.Reservation, expectedVersion uint32) error {
	if err := t.check("UpdateReservation"); err != nil {
		return err
	}
	cur, ok := t.s.reservations[res.ID]
	if !ok || cur.Version != expectedVersion {
		return repository.ErrConcurrentUpdate
	}
	res.Version = expectedVersion + 1
	cp := *res
	cp.RoomIDs = append([]uint64(nil), res.RoomIDs...)
	t.s.reservations[res.ID] = cp
	return nil
}

func (t *memTx) DeleteReservation(_ context.Context, id uint64) error {
	if err := t.check("DeleteReservation"); err != nil {
		return err
	}
	if _, ok := t.s.reservations[id]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(t.s.reservations, id)
	return nil
}

func (t *memTx) RecordAudit(_ context.Context, entry *model.RoomAuditLog) error {
	if err := t.check("RecordAudit"); err != nil {
		return err
	}
	entry.AuditLogID = uint64(len(t.s.audit) + 1)
	t.s.audit = append(t.s.audit, *entry)
	return nil
}
