package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/banterbox/server/adapters/llm"
	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

type fakeSynth struct{}

func (fakeSynth) Synthesize(ctx context.Context, prompt string, voice entities.Voice) ([]byte, error) {
	return []byte{0, 0, 0, 0}, nil
}

type fakeOutput struct{}

func (fakeOutput) Decode(payload []byte) (*entities.AudioClip, error) {
	return &entities.AudioClip{PCM: payload, SampleRate: 24000, Channels: 1}, nil
}
func (fakeOutput) Play(ctx context.Context, clip *entities.AudioClip) error { return nil }
func (fakeOutput) SetMuted(bool)                                            {}
func (fakeOutput) Close() error                                             { return nil }

func newTestServer(t *testing.T) (*echo.Echo, *Manager) {
	t.Helper()
	logger := zap.NewNop()
	mgr := NewManager(
		llm.NewMockChatProvider(logger),
		fakeSynth{},
		func(sink io.Writer) repositories.AudioOutput { return fakeOutput{} },
		time.Minute,
		logger,
	)
	e := echo.New()
	InitRoutes(e, mgr, func(ctx context.Context, apiKey string) bool {
		return apiKey == "good-key"
	}, logger)
	return e, mgr
}

func doJSON(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createTestConversation(t *testing.T, e *echo.Echo) CreateConversationResponse {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "", CreateConversationRequest{
		Personas: []PersonaSpec{{ID: "sage"}, {ID: "rex"}},
		Topic:    "the weather",
		Mode:     "banter",
		SoundOn:  true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp CreateConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health returned %d", rec.Code)
	}
}

func TestListPersonas(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/api/v1/personas", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("personas returned %d", rec.Code)
	}
	var got []entities.Persona
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid personas response: %v", err)
	}
	if len(got) < 2 {
		t.Errorf("expected at least two built-in personas, got %d", len(got))
	}
}

func TestValidateCredentials(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/credentials/validate", "", ValidateKeyRequest{APIKey: "good-key"})
	var resp ValidateKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Valid {
		t.Errorf("expected good key to validate, got %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/credentials/validate", "", ValidateKeyRequest{APIKey: "bad-key"})
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Valid {
		t.Errorf("expected bad key to fail validation, got %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/credentials/validate", "", ValidateKeyRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty key returned %d, want 400", rec.Code)
	}
}

func TestCreateConversation(t *testing.T) {
	e, mgr := newTestServer(t)
	resp := createTestConversation(t, e)

	if resp.ID == "" || resp.HostToken == "" || resp.ViewerToken == "" {
		t.Fatalf("incomplete create response: %+v", resp)
	}
	if _, ok := mgr.Get(resp.ID); !ok {
		t.Error("conversation not registered with manager")
	}
	if _, ok := mgr.Hub(resp.ID); !ok {
		t.Error("conversation hub not registered with manager")
	}
}

func TestCreateConversationValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations", "", CreateConversationRequest{
		Personas: []PersonaSpec{{ID: "sage"}, {ID: "rex"}},
		Mode:     "trivia",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode returned %d, want 400", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/conversations", "", CreateConversationRequest{
		Personas: []PersonaSpec{{ID: "sage"}},
		Mode:     "banter",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("single persona returned %d, want 400", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/conversations", "", CreateConversationRequest{
		Personas: []PersonaSpec{{ID: "sage"}, {ID: "nobody"}},
		Mode:     "banter",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown persona returned %d, want 400", rec.Code)
	}
}

func TestSnapshotRequiresToken(t *testing.T) {
	e, _ := newTestServer(t)
	resp := createTestConversation(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/conversations/"+resp.ID, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token returned %d, want 401", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/conversations/"+resp.ID, resp.ViewerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewer snapshot returned %d: %s", rec.Code, rec.Body.String())
	}
	var snap ConversationSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot: %v", err)
	}
	if snap.ID != resp.ID || snap.Mode != "banter" || len(snap.Personas) != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestControlsRequireHostRole(t *testing.T) {
	e, _ := newTestServer(t)
	resp := createTestConversation(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations/"+resp.ID+"/pause", resp.ViewerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer pause returned %d, want 403", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/conversations/"+resp.ID+"/pause", resp.HostToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("host pause returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSoundToggle(t *testing.T) {
	e, _ := newTestServer(t)
	resp := createTestConversation(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations/"+resp.ID+"/sound", resp.HostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sound toggle returned %d: %s", rec.Code, rec.Body.String())
	}
	var sound SoundResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sound); err != nil {
		t.Fatalf("invalid sound response: %v", err)
	}
	if sound.SoundOn {
		t.Error("expected sound off after toggling a sound-on conversation")
	}
}

func TestAddPersona(t *testing.T) {
	e, _ := newTestServer(t)
	resp := createTestConversation(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations/"+resp.ID+"/personas", resp.HostToken, PersonaSpec{ID: "pip"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add persona returned %d: %s", rec.Code, rec.Body.String())
	}
	var snap ConversationSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot: %v", err)
	}
	if len(snap.Personas) != 3 {
		t.Errorf("roster has %d personas, want 3", len(snap.Personas))
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/conversations/"+resp.ID+"/personas", resp.HostToken, PersonaSpec{ID: "pip"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate persona returned %d, want 409", rec.Code)
	}
}

func TestTokenScopedToConversation(t *testing.T) {
	e, _ := newTestServer(t)
	first := createTestConversation(t, e)
	second := createTestConversation(t, e)

	rec := doJSON(e, http.MethodGet, "/api/v1/conversations/"+second.ID, first.ViewerToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("cross-conversation token returned %d, want 401", rec.Code)
	}
}
