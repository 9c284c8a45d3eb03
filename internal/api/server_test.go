package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiortega/roomboard/internal/api"
	"github.com/javiortega/roomboard/internal/auth"
	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/repository"
	"github.com/javiortega/roomboard/internal/service"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memUsers struct{ byEmail map[string]*models.User }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.byEmail[u.Email] = u
	return u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memRooms struct {
	rooms   []*models.Room
	secrets map[string]*string
}

func (r *memRooms) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.rooms = append(r.rooms, room)
	r.secrets[room.ID] = room.AccessCode
	return room, nil
}

func (r *memRooms) List(_ context.Context) ([]*models.Room, error) { return r.rooms, nil }

func (r *memRooms) GetByID(_ context.Context, id string) (*models.Room, error) {
	for _, room := range r.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRooms) GetByCode(_ context.Context, code string) (*models.Room, error) {
	for _, room := range r.rooms {
		if room.Code == code {
			return room, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRooms) GetSecret(_ context.Context, id string) (*string, error) {
	return r.secrets[id], nil
}

func (r *memRooms) SetPrivacy(_ context.Context, id string, locked bool, accessCode *string) error {
	r.secrets[id] = accessCode
	for _, room := range r.rooms {
		if room.ID == id {
			room.IsLocked = locked
		}
	}
	return nil
}

func (r *memRooms) Delete(_ context.Context, id string) error {
	for i, room := range r.rooms {
		if room.ID == id {
			r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memReminders struct{ byRoom map[string][]*models.Reminder }

func (r *memReminders) Create(_ context.Context, m *models.Reminder) (*models.Reminder, error) {
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.byRoom[m.RoomCode] = append(r.byRoom[m.RoomCode], m)
	return m, nil
}

func (r *memReminders) GetByID(_ context.Context, id string) (*models.Reminder, error) {
	for _, list := range r.byRoom {
		for _, m := range list {
			if m.ID == id {
				return m, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memReminders) ListByRoom(_ context.Context, roomCode string) ([]*models.Reminder, error) {
	return r.byRoom[roomCode], nil
}

func (r *memReminders) Update(_ context.Context, m *models.Reminder) (*models.Reminder, error) {
	return m, nil
}

func (r *memReminders) UpdateProgress(_ context.Context, id string, progress int) (time.Time, error) {
	m, err := r.GetByID(context.Background(), id)
	if err != nil {
		return time.Time{}, err
	}
	m.Progress = progress
	m.UpdatedAt = time.Now()
	return m.UpdatedAt, nil
}

func (r *memReminders) Delete(_ context.Context, _ string) error       { return nil }
func (r *memReminders) DeleteByRoom(_ context.Context, code string) error {
	delete(r.byRoom, code)
	return nil
}

func (r *memReminders) BulkInsert(_ context.Context, reminders []*models.Reminder) error {
	for _, m := range reminders {
		r.byRoom[m.RoomCode] = append(r.byRoom[m.RoomCode], m)
	}
	return nil
}

func (r *memReminders) SetAssignees(_ context.Context, _ string, _ []string) error { return nil }

// noopFeed satisfies the change feed without a database.
type noopFeed struct{}

func (noopFeed) OnRoomsChanged(func()) func()                  { return func() {} }
func (noopFeed) OnRemindersChanged(string, func()) func()      { return func() {} }

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	users := &memUsers{byEmail: make(map[string]*models.User)}
	rooms := &memRooms{secrets: make(map[string]*string)}
	reminders := &memReminders{byRoom: make(map[string][]*models.Reminder)}

	svc := service.New(l, rooms, reminders, nil, nil, nil, nil, users)
	authMgr := auth.NewManager(users, "test-secret", time.Hour)
	server := api.NewServer(svc, authMgr, noopFeed{}, t.TempDir(), l)
	t.Cleanup(server.Close)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	}
	return resp.StatusCode, out
}

func register(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "ana@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	status, _ := doJSON(t, ts, http.MethodGet, "/api/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, ts, http.MethodGet, "/api/state", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterLoginAndWhoAmI(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	status, body := doJSON(t, ts, http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@example.com", body["email"])

	status, body = doJSON(t, ts, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "ana@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = doJSON(t, ts, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateRoomEntersIt(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	status, body := doJSON(t, ts, http.MethodPost, "/api/rooms", token,
		map[string]string{"name": "Ops", "access_code": "1234"})
	require.Equal(t, http.StatusCreated, status)

	state := body["state"].(map[string]any)
	assert.Equal(t, "in_room", state["state"], "the creator enters the room directly")

	room := body["room"].(map[string]any)
	assert.Equal(t, "Ops", room["name"])
	assert.Equal(t, true, room["is_locked"])
	assert.Len(t, room["code"], 6)
	assert.NotContains(t, room, "access_code", "the secret never serializes")
}

func TestLockedRoomEntryOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	_, body := doJSON(t, ts, http.MethodPost, "/api/rooms", token,
		map[string]string{"name": "Ops", "access_code": "1234"})
	code := body["room"].(map[string]any)["code"].(string)

	// Leave, then re-enter through the prompt.
	status, _ := doJSON(t, ts, http.MethodPost, "/api/rooms/leave", token,
		map[string]bool{"forget": true})
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, ts, http.MethodPost, "/api/rooms/enter", token,
		map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "awaiting_access_code", body["state"])

	status, _ = doJSON(t, ts, http.MethodPost, "/api/rooms/access-code", token,
		map[string]string{"code": "9999"})
	assert.Equal(t, http.StatusForbidden, status, "a wrong code is rejected")

	status, body = doJSON(t, ts, http.MethodPost, "/api/rooms/access-code", token,
		map[string]string{"code": "1234"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "in_room", body["state"])
}

func TestReminderLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	_, _ = doJSON(t, ts, http.MethodPost, "/api/rooms", token,
		map[string]string{"name": "Ops", "access_code": ""})

	status, created := doJSON(t, ts, http.MethodPost, "/api/reminders", token,
		map[string]any{"title": "Ship it", "priority": "high"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "high", created["priority"])
	id := created["id"].(string)

	status, view := doJSON(t, ts, http.MethodGet, "/api/reminders?refresh=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	active := view["active"].([]any)
	require.Len(t, active, 1)

	status, body := doJSON(t, ts, http.MethodPatch, "/api/reminders/"+id+"/progress", token,
		map[string]int{"progress": 150})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(100), body["progress"], "progress is clamped")
}

func TestRemindersRequireARoom(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	status, _ := doJSON(t, ts, http.MethodGet, "/api/reminders", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, ts, http.MethodPost, "/api/reminders", token,
		map[string]string{"title": "Nope"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestDestructiveEndpointsRequireConfirm(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	_, _ = doJSON(t, ts, http.MethodPost, "/api/rooms", token,
		map[string]string{"name": "Ops"})

	status, _ := doJSON(t, ts, http.MethodDelete, "/api/reminders", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/reminders?confirm=true", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/rooms/current", token,
		map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, ts, http.MethodDelete, "/api/rooms/current", token,
		map[string]any{"confirm": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no_room_selected", body["state"])
}

func TestImportOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts)

	_, _ = doJSON(t, ts, http.MethodPost, "/api/rooms", token,
		map[string]string{"name": "Ops"})

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/reminders/import",
		bytes.NewReader([]byte(`[{"title":"A","progress":150},{"title":""}]`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Imported int      `json:"imported"`
		Skipped  []string `json:"skipped"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Imported)
	assert.Len(t, out.Skipped, 1)
}
