// Package session implements the room access controller: which room the
// user is in, how entry to locked rooms is gated, and which mutations the
// owner may perform from inside a room.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/javiortega/roomboard/internal/lastroom"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
	"github.com/javiortega/roomboard/internal/service"
)

// State is the position in the room entry state machine.
type State int

const (
	StateNoRoom State = iota
	StateAwaitingCode
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateAwaitingCode:
		return "awaiting_access_code"
	case StateInRoom:
		return "in_room"
	default:
		return "no_room_selected"
	}
}

var (
	// ErrNoPendingRoom is returned when an access code arrives without a
	// locked room awaiting one.
	ErrNoPendingRoom = errors.New("no room is awaiting an access code")
	// ErrEmptyAccessCode is rejected before any store request is issued.
	ErrEmptyAccessCode = errors.New("enter the access code")
	// ErrNotInRoom gates privacy and deletion to the currently entered room.
	ErrNotInRoom = errors.New("enter the room before changing it")
	// ErrNotOwner gates privacy and deletion to the room's creator.
	ErrNotOwner = errors.New("only the room owner can do this")
	// ErrLastRoomGone is the neutral, non-fatal outcome of a failed resume.
	ErrLastRoomGone = errors.New("saved room not found, pick another from the list")
)

// ChangeFeed is the subscription surface of the realtime change feed.
// Both methods return a disposer; disposers are idempotent.
type ChangeFeed interface {
	OnRoomsChanged(cb func()) (cancel func())
	OnRemindersChanged(roomCode string, cb func()) (cancel func())
}

// Session owns one user's view state: the fetched room list, the entry
// state machine, the active room's reminder list and the durable last-room
// pointer. All lists are transient, non-authoritative copies; realtime
// notifications trigger full re-fetches that overwrite them.
type Session struct {
	log    *logrus.Entry
	svc    *service.Service
	feed   ChangeFeed
	last   lastroom.Store
	userID string

	mu           sync.Mutex
	state        State
	pending      *models.Room
	current      *models.Room
	rooms        []*models.Room
	roomsMessage string
	reminders    []*models.Reminder

	// fetchGen stamps every reminder fetch so responses for a superseded
	// fetch, or for a room the user already left, are discarded.
	fetchGen        *atomic.Int64
	cancelRooms     func()
	cancelReminders func()
}

// New creates a session, subscribes to room-table changes and loads the
// initial room list.
func New(ctx context.Context, svc *service.Service, feed ChangeFeed, last lastroom.Store, userID string, logger *logrus.Logger) *Session {
	s := &Session{
		log:      logger.WithField("user_id", userID),
		svc:      svc,
		feed:     feed,
		last:     last,
		userID:   userID,
		fetchGen: atomic.NewInt64(0),
	}
	s.cancelRooms = feed.OnRoomsChanged(func() {
		if err := s.RefreshRooms(context.Background()); err != nil {
			s.log.WithError(err).Warn("room list refresh failed")
		}
	})
	if err := s.RefreshRooms(ctx); err != nil {
		s.log.WithError(err).Warn("initial room list fetch failed")
	}
	return s
}

// RefreshRooms re-fetches the room list. On failure the error is classified
// into a human-readable category kept alongside the (unchanged) list.
func (s *Session) RefreshRooms(ctx context.Context) error {
	rooms, err := s.svc.ListRooms(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.roomsMessage = repository.Describe(repository.Classify(err))
		return err
	}
	s.rooms = rooms
	s.roomsMessage = ""
	return nil
}

// SelectRoom starts entry into a room. Locked rooms park the machine in
// StateAwaitingCode; unlocked rooms are entered directly.
func (s *Session) SelectRoom(ctx context.Context, room *models.Room) (State, error) {
	s.mu.Lock()
	if room.IsLocked {
		s.state = StateAwaitingCode
		s.pending = room
		s.mu.Unlock()
		return StateAwaitingCode, nil
	}
	s.enterLocked(room)
	s.mu.Unlock()
	return StateInRoom, s.RefreshReminders(ctx)
}

// SelectRoomByCode resolves a typed room code against the cached list
// first, then the store, and proceeds as SelectRoom.
func (s *Session) SelectRoomByCode(ctx context.Context, code string) (State, error) {
	code = strings.TrimSpace(code)
	s.mu.Lock()
	var cached *models.Room
	for _, room := range s.rooms {
		if room.Code == code {
			cached = room
			break
		}
	}
	s.mu.Unlock()
	if cached != nil {
		return s.SelectRoom(ctx, cached)
	}
	room, err := s.svc.GetRoomByCode(ctx, code)
	if err != nil {
		return s.State(), err
	}
	return s.SelectRoom(ctx, room)
}

// SubmitAccessCode completes entry into a locked room. The code must match
// the stored secret exactly after trimming; any other input keeps the
// machine in StateAwaitingCode and issues no mutation.
func (s *Session) SubmitAccessCode(ctx context.Context, input string) error {
	s.mu.Lock()
	if s.state != StateAwaitingCode || s.pending == nil {
		s.mu.Unlock()
		return ErrNoPendingRoom
	}
	pending := s.pending
	s.mu.Unlock()

	if strings.TrimSpace(input) == "" {
		return ErrEmptyAccessCode
	}
	ok, err := s.svc.VerifyRoomAccess(ctx, pending.ID, input)
	if err != nil {
		return fmt.Errorf("could not verify the code: %w", err)
	}
	if !ok {
		return service.ErrWrongAccessCode
	}

	s.mu.Lock()
	if s.state != StateAwaitingCode || s.pending == nil || s.pending.ID != pending.ID {
		s.mu.Unlock()
		return ErrNoPendingRoom
	}
	s.enterLocked(pending)
	s.mu.Unlock()
	return s.RefreshReminders(ctx)
}

// CancelAccessPrompt abandons a pending locked-room entry.
func (s *Session) CancelAccessPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingCode {
		s.state = StateNoRoom
		s.pending = nil
	}
}

// enterLocked transitions to StateInRoom. The caller holds s.mu.
// Stale reminders from the previous room are cleared so they are never
// shown while the new room's data loads, the last-room pointer is
// persisted, and the reminder feed is re-keyed to the new room code.
func (s *Session) enterLocked(room *models.Room) {
	s.state = StateInRoom
	s.current = room
	s.pending = nil
	s.reminders = nil
	if err := s.last.Save(room.Code); err != nil {
		s.log.WithError(err).Warn("could not persist last room code")
	}
	if s.cancelReminders != nil {
		s.cancelReminders()
	}
	code := room.Code
	s.cancelReminders = s.feed.OnRemindersChanged(code, func() {
		if err := s.RefreshReminders(context.Background()); err != nil {
			s.log.WithError(err).WithField("room_code", code).Warn("reminder refresh failed")
		}
	})
	s.log.WithField("room_code", code).Info("Entered room")
}

// RefreshReminders re-fetches the active room's reminders. The fetch is
// keyed by the room code and a generation counter captured at call time;
// a response that is no longer the latest, or that belongs to a room the
// user has left, is discarded (last write wins).
func (s *Session) RefreshReminders(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	code := s.current.Code
	gen := s.fetchGen.Inc()
	s.mu.Unlock()

	reminders, err := s.svc.ListReminders(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen.Load() || s.current == nil || s.current.Code != code {
		return nil
	}
	if err != nil {
		return err
	}
	s.reminders = reminders
	return nil
}

// LeaveRoom returns to StateNoRoom and tears down the reminder feed
// subscription. With forget=true the durable last-room pointer is cleared
// as well.
func (s *Session) LeaveRoom(forget bool) {
	s.mu.Lock()
	if s.cancelReminders != nil {
		s.cancelReminders()
		s.cancelReminders = nil
	}
	s.state = StateNoRoom
	s.current = nil
	s.pending = nil
	s.reminders = nil
	s.mu.Unlock()
	if forget {
		if err := s.last.Clear(); err != nil {
			s.log.WithError(err).Warn("could not clear last room code")
		}
	}
}

// ResumeLastRoom re-enters the room stored from a previous session. The
// cached room list is checked first; otherwise the room is looked up by
// code. A failed lookup silently drops the stored pointer and reports
// ErrLastRoomGone, never a fatal error.
func (s *Session) ResumeLastRoom(ctx context.Context) (State, error) {
	code, ok := s.last.Load()
	if !ok {
		return s.State(), nil
	}
	s.mu.Lock()
	var cached *models.Room
	for _, room := range s.rooms {
		if room.Code == code {
			cached = room
			break
		}
	}
	s.mu.Unlock()
	if cached != nil {
		return s.SelectRoom(ctx, cached)
	}
	room, err := s.svc.GetRoomByCode(ctx, code)
	if err != nil {
		s.log.WithError(err).WithField("room_code", code).Warn("stored room could not be resumed")
		if err := s.last.Clear(); err != nil {
			s.log.WithError(err).Warn("could not clear last room code")
		}
		return s.State(), ErrLastRoomGone
	}
	return s.SelectRoom(ctx, room)
}

// requireOwnedCurrentLocked enforces the "owner, and currently inside the
// room" gate shared by privacy and deletion. The caller holds s.mu.
func (s *Session) requireOwnedCurrentLocked() (*models.Room, error) {
	if s.state != StateInRoom || s.current == nil {
		return nil, ErrNotInRoom
	}
	if !s.current.IsOwnedBy(s.userID) {
		return nil, ErrNotOwner
	}
	return s.current, nil
}

// SetPrivacy toggles the current room between public and private.
// Locking requires a new non-empty access code; unlocking requires the
// current code for confirmation. Only the owner, from inside the room.
func (s *Session) SetPrivacy(ctx context.Context, lock bool, accessCode string) error {
	s.mu.Lock()
	room, err := s.requireOwnedCurrentLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if lock {
		err = s.svc.LockRoom(ctx, room.ID, accessCode)
	} else {
		err = s.svc.UnlockRoom(ctx, room.ID, accessCode)
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.current != nil && s.current.ID == room.ID {
		s.current.IsLocked = lock
		if !lock {
			s.current.AccessCode = nil
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteCurrentRoom deletes the entered room. Owner-only, in-room-only;
// a locked room additionally requires its access code. Success forces the
// machine back to StateNoRoom and forgets the stored pointer.
func (s *Session) DeleteCurrentRoom(ctx context.Context, accessCode string) error {
	s.mu.Lock()
	room, err := s.requireOwnedCurrentLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.svc.DeleteRoom(ctx, room, accessCode); err != nil {
		return err
	}
	s.LeaveRoom(true)
	return nil
}

// Close tears down all feed subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRooms != nil {
		s.cancelRooms()
		s.cancelRooms = nil
	}
	if s.cancelReminders != nil {
		s.cancelReminders()
		s.cancelReminders = nil
	}
}

// State returns the current entry state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentRoom returns the entered room, or nil.
func (s *Session) CurrentRoom() *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PendingRoom returns the locked room awaiting an access code, or nil.
func (s *Session) PendingRoom() *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Rooms returns the last fetched room list and the current human-readable
// fetch problem, if any.
func (s *Session) Rooms() ([]*models.Room, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Room(nil), s.rooms...), s.roomsMessage
}

// Reminders returns a snapshot of the active room's reminder list.
func (s *Session) Reminders() []*models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Reminder(nil), s.reminders...)
}

// LastRoomCode exposes the stored resume pointer.
func (s *Session) LastRoomCode() (string, bool) {
	return s.last.Load()
}

// UserID returns the id of the user owning this session.
func (s *Session) UserID() string {
	return s.userID
}
