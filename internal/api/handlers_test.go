package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/modulys/pax-chat/internal/api"
	"github.com/modulys/pax-chat/internal/presence"
	"github.com/modulys/pax-chat/internal/server"
	"github.com/modulys/pax-chat/internal/store"
)

type fakeChannelStore struct {
	channels []store.Channel
	channel  *store.Channel
	members  []store.Member
	member   *store.Member
	err      error

	createdTenant string
	created       *store.NewChannel
}

func (f *fakeChannelStore) ListChannels(_ context.Context, tenantID string) ([]store.Channel, error) {
	return f.channels, f.err
}

func (f *fakeChannelStore) CreateChannel(_ context.Context, tenantID string, in store.NewChannel) (*store.Channel, error) {
	f.createdTenant = tenantID
	f.created = &in
	return f.channel, f.err
}

func (f *fakeChannelStore) GetChannel(_ context.Context, tenantID, channelID string) (*store.Channel, error) {
	return f.channel, f.err
}

func (f *fakeChannelStore) ListMembers(_ context.Context, tenantID, channelID string) ([]store.Member, error) {
	return f.members, f.err
}

func (f *fakeChannelStore) AddMember(_ context.Context, tenantID, channelID, employeeID, role string) (*store.Member, error) {
	if f.member != nil {
		m := *f.member
		m.EmployeeID = employeeID
		m.Role = role
		return &m, f.err
	}
	return nil, f.err
}

type fakeMessageStore struct {
	messages []store.Message
	message  *store.Message
	err      error

	gotLimit  int
	gotOffset int
}

func (f *fakeMessageStore) ListMessages(_ context.Context, tenantID, channelID string, limit, offset int) ([]store.Message, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.messages, f.err
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, tenantID, channelID, employeeID, content string) (*store.Message, error) {
	return f.message, f.err
}

type fakeEmployeeStore struct {
	employees []store.Employee
	err       error
}

func (f *fakeEmployeeStore) ListActive(_ context.Context, tenantID, search string) ([]store.Employee, error) {
	return f.employees, f.err
}

type broadcastCall struct {
	tenantID  string
	channelID string
	payload   server.MessagePayload
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (f *fakeBroadcaster) BroadcastMessage(tenantID, channelID string, payload server.MessagePayload) {
	f.calls = append(f.calls, broadcastCall{tenantID: tenantID, channelID: channelID, payload: payload})
}

func doRequest(t *testing.T, h *api.Handler, method, target, tenant, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if tenant != "" {
		req.Header.Set("X-Tenant-Id", tenant)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestMissingTenantHeaderIsRejected(t *testing.T) {
	h := api.NewHandler(&fakeChannelStore{}, &fakeMessageStore{}, &fakeEmployeeStore{}, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	for _, target := range []string{
		"/channels",
		"/channels/C1/messages",
		"/users/online",
		"/users",
		"/conversations",
		"/unread-count",
	} {
		rec := doRequest(t, h, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Missing x-tenant-id header", body["error"], target)
	}
}

func TestStoreBackedRoutesAnswer503WithoutDatabase(t *testing.T) {
	h := api.NewHandler(nil, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/channels"},
		{http.MethodPost, "/channels"},
		{http.MethodGet, "/channels/C1"},
		{http.MethodGet, "/channels/C1/messages"},
		{http.MethodPost, "/channels/C1/messages"},
		{http.MethodGet, "/users"},
		{http.MethodGet, "/conversations"},
	} {
		rec := doRequest(t, h, tc.method, tc.target, "T1", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.target)
	}
}

func TestOnlineUsersWorksWithoutDatabase(t *testing.T) {
	registry := presence.NewRegistry()
	registry.AddConnection("T1", "E1", "conn-1", "Alice")
	h := api.NewHandler(nil, nil, nil, registry, &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/users/online", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var online []presence.OnlineEmployee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &online))
	require.Len(t, online, 1)
	require.Equal(t, "E1", online[0].EmployeeID)
	require.Equal(t, "Alice", online[0].DisplayName)
	require.Equal(t, "online", online[0].Status)
}

func TestOnlineUsersEmptyForUnknownTenant(t *testing.T) {
	h := api.NewHandler(nil, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/users/online", "T-unknown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestListChannels(t *testing.T) {
	channels := &fakeChannelStore{channels: []store.Channel{{ID: "C1", Name: "general"}}}
	h := api.NewHandler(channels, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/channels", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Channels []store.Channel `json:"channels"`
		Count    int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "general", body.Channels[0].Name)
}

func TestCreateChannelValidation(t *testing.T) {
	h := api.NewHandler(&fakeChannelStore{}, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels", "T1", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/channels", "T1", `{"name":"general"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "created_by_employee_id is required")

	rec = doRequest(t, h, http.MethodPost, "/channels", "T1", "not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateChannel(t *testing.T) {
	channels := &fakeChannelStore{channel: &store.Channel{ID: "C1", Name: "general", CreatedByEmployeeID: "E1"}}
	h := api.NewHandler(channels, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels", "T1", `{"name":"general","created_by_employee_id":"E1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "T1", channels.createdTenant)
	require.Equal(t, "general", channels.created.Name)
}

func TestGetChannelNotFound(t *testing.T) {
	h := api.NewHandler(&fakeChannelStore{}, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/channels/missing", "T1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Channel not found", body["error"])
}

func TestAddMemberDefaultsRole(t *testing.T) {
	channels := &fakeChannelStore{member: &store.Member{ID: "M1", ChannelID: "C1"}}
	h := api.NewHandler(channels, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels/C1/members", "T1", `{"employee_id":"E1","role":"superuser"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var member store.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &member))
	require.Equal(t, "member", member.Role, "unknown roles fall back to member")
}

func TestAddMemberUnknownChannel(t *testing.T) {
	h := api.NewHandler(&fakeChannelStore{}, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels/missing/members", "T1", `{"employee_id":"E1"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMessagesPassesPagination(t *testing.T) {
	messages := &fakeMessageStore{messages: []store.Message{{ID: "m1", Content: "hi"}}}
	h := api.NewHandler(nil, messages, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/channels/C1/messages?limit=20&offset=40", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 20, messages.gotLimit)
	require.Equal(t, 40, messages.gotOffset)
}

func TestCreateMessageBroadcastsAfterPersist(t *testing.T) {
	created := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	messages := &fakeMessageStore{message: &store.Message{
		ID:           "m1",
		ChannelID:    "C1",
		EmployeeID:   "E1",
		Content:      "hello",
		CreatedAt:    created,
		EmployeeName: "Alice",
	}}
	broadcaster := &fakeBroadcaster{}
	h := api.NewHandler(nil, messages, nil, presence.NewRegistry(), broadcaster, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels/C1/messages", "T1", `{"employee_id":"E1","content":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, broadcaster.calls, 1)
	call := broadcaster.calls[0]
	require.Equal(t, "T1", call.tenantID)
	require.Equal(t, "C1", call.channelID)
	require.Equal(t, "m1", call.payload.ID)
	require.Equal(t, "C1", call.payload.ConversationID)
	require.Equal(t, "Alice", call.payload.SenderName)
	require.Equal(t, "text", call.payload.Type)
	require.Equal(t, "2026-01-02T15:04:05Z", call.payload.CreatedAt)
	require.NotNil(t, call.payload.Attachments)
}

func TestCreateMessageUnknownChannelDoesNotBroadcast(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	h := api.NewHandler(nil, &fakeMessageStore{}, nil, presence.NewRegistry(), broadcaster, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels/missing/messages", "T1", `{"employee_id":"E1","content":"hello"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, broadcaster.calls)
}

func TestCreateMessageValidation(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	h := api.NewHandler(nil, &fakeMessageStore{}, nil, presence.NewRegistry(), broadcaster, zerolog.Nop())

	rec := doRequest(t, h, http.MethodPost, "/channels/C1/messages", "T1", `{"employee_id":"E1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, broadcaster.calls)
}

func TestStoreErrorsAnswer500(t *testing.T) {
	boom := errors.New("connection refused")
	h := api.NewHandler(&fakeChannelStore{err: boom}, &fakeMessageStore{err: boom}, &fakeEmployeeStore{err: boom}, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/channels", ""},
		{http.MethodGet, "/channels/C1/messages", ""},
		{http.MethodPost, "/channels/C1/messages", `{"employee_id":"E1","content":"x"}`},
		{http.MethodGet, "/users", ""},
	} {
		rec := doRequest(t, h, tc.method, tc.target, "T1", tc.body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)
	}
}

func TestListUsersReportsOfflineStatus(t *testing.T) {
	employees := &fakeEmployeeStore{employees: []store.Employee{{ID: "E1", Name: "Alice", Email: "alice@example.com"}}}
	h := api.NewHandler(nil, nil, employees, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/users", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	require.Equal(t, "offline", users[0]["status"])
}

func TestUsersStatusStub(t *testing.T) {
	h := api.NewHandler(nil, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/users/status?userIds=E1,E2,", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"E1":"offline","E2":"offline"}`, rec.Body.String())
}

func TestUnreadCountStub(t *testing.T) {
	h := api.NewHandler(nil, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/unread-count", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestListConversationsFiltersBySearch(t *testing.T) {
	channels := &fakeChannelStore{channels: []store.Channel{
		{ID: "C1", Name: "general"},
		{ID: "C2", Name: "random"},
	}}
	h := api.NewHandler(channels, nil, nil, presence.NewRegistry(), &fakeBroadcaster{}, zerolog.Nop())

	rec := doRequest(t, h, http.MethodGet, "/conversations?search=gen", "T1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			ID      string `json:"id"`
			IsGroup bool   `json:"isGroup"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	require.Equal(t, "C1", body.Data[0].ID)
	require.True(t, body.Data[0].IsGroup)
}
