package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/afisha-api/internal/config"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/stats"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/wire"
)

func init() {
	logger.Initialize("error")
}

func newTestRouter() http.Handler {
	cfg := config.Load()
	cfg.Server.GinMode = "test"

	srv := New(cfg, postgres.NewMemoryStore(), stats.Noop{}, nil)
	return srv.setupRouter()
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestPing(t *testing.T) {
	router := newTestRouter()

	w, body := do(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestFullEventLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter()

	// Admin registers users and a category.
	w, initiator := do(t, router, http.MethodPost, "/admin/users", map[string]any{
		"name":  "Ivan Organizer",
		"email": "ivan@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	initiatorID := initiator["id"].(string)

	w, guest := do(t, router, http.MethodPost, "/admin/users", map[string]any{
		"name":  "Gala Guest",
		"email": "gala@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	guestID := guest["id"].(string)

	w, cat := do(t, router, http.MethodPost, "/admin/categories", map[string]any{"name": "exhibitions"})
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := cat["id"].(string)

	// Initiator submits an event; it starts pending.
	w, created := do(t, router, http.MethodPost, "/users/"+initiatorID+"/events", map[string]any{
		"title":       "Modern art retrospective",
		"annotation":  "A guided walk through three decades of local modern art",
		"description": "The gallery opens all five halls for one evening with curators on hand in each of them",
		"category":    categoryID,
		"eventDate":   time.Now().Add(96 * time.Hour).Format(time.RFC3339),
		"location":    map[string]any{"lat": 48.85, "lon": 2.35},
		"participantLimit": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := created["id"].(string)
	assert.Equal(t, "PENDING", created["state"])

	// Guests cannot see it yet.
	w, _ = do(t, router, http.MethodGet, "/events/"+eventID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Requesting participation before publication conflicts.
	w, _ = do(t, router, http.MethodPost, "/users/"+guestID+"/requests?eventId="+eventID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Admin publishes.
	w, published := do(t, router, http.MethodPatch, "/admin/events/"+eventID, map[string]any{
		"stateAction": "PUBLISH_EVENT",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PUBLISHED", published["state"])
	assert.NotNil(t, published["publishedOn"])

	// Guest requests participation; moderation is on, so it is pending.
	w, reqBody := do(t, router, http.MethodPost, "/users/"+guestID+"/requests?eventId="+eventID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := reqBody["id"].(string)
	assert.Equal(t, "PENDING", reqBody["status"])

	// The initiator confirms the batch.
	w, decision := do(t, router, http.MethodPatch,
		fmt.Sprintf("/users/%s/events/%s/requests", initiatorID, eventID),
		map[string]any{"requestIds": []string{requestID}, "status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := decision["confirmedRequests"].([]any)
	assert.Len(t, confirmed, 1)

	// The event is now full: a second guest is turned away.
	w, late := do(t, router, http.MethodPost, "/admin/users", map[string]any{
		"name":  "Late Larry",
		"email": "larry@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, router, http.MethodPost, "/users/"+late["id"].(string)+"/requests?eventId="+eventID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The public detail page shows the confirmed count.
	w, detail := do(t, router, http.MethodGet, "/events/"+eventID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), detail["confirmedRequests"])
}

// Request bodies accept the platform's space-separated timestamp
// layout, and responses echo it back in the same form.
func TestCreateEventAcceptsPlatformDateLayout(t *testing.T) {
	router := newTestRouter()

	w, user := do(t, router, http.MethodPost, "/admin/users", map[string]any{
		"name":  "Dana Curator",
		"email": "dana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, cat := do(t, router, http.MethodPost, "/admin/categories", map[string]any{"name": "lectures"})
	require.Equal(t, http.StatusCreated, w.Code)

	eventDate := time.Now().Add(96 * time.Hour).UTC().Format(wire.DateTimeLayout)
	w, created := do(t, router, http.MethodPost, "/users/"+user["id"].(string)+"/events", map[string]any{
		"title":       "Evening lecture series",
		"annotation":  "Three talks on the history of the city's bridges",
		"description": "Each speaker gets forty minutes plus questions, with a short break between the talks",
		"category":    cat["id"].(string),
		"eventDate":   eventDate,
		"location":    map[string]any{"lat": 59.93, "lon": 30.31},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, eventDate, created["eventDate"])
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	router := newTestRouter()

	w, user := do(t, router, http.MethodPost, "/admin/users", map[string]any{
		"name":  "Vera",
		"email": "vera@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, router, http.MethodPost, "/users/"+user["id"].(string)+"/events", map[string]any{
		"title":       "ab",
		"annotation":  "An annotation that is long enough to pass its own bound",
		"description": "A description that is also long enough to pass the lower length bound easily",
		"category":    "33333333-3333-3333-3333-333333333333",
		"eventDate":   time.Now().Add(96 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownUserMapsToNotFound(t *testing.T) {
	router := newTestRouter()

	w, _ := do(t, router, http.MethodGet, "/users/44444444-4444-4444-4444-444444444444/requests", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
