package university

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sentinelai/counsel-api/model"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubDirectory struct {
	universities []model.University
	err          error
}

func (s *stubDirectory) Search(ctx context.Context, name, country string) ([]model.University, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.universities, nil
}

func newShortlistApp(t *testing.T, dir services.DirectorySearcher) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.OnboardingProfile{}, &model.ShortlistEntry{}))

	locks := keylock.New()
	onboarding := services.NewOnboardingService(db, locks)
	shortlist := services.NewShortlistService(db, dir, locks)
	handler := NewUniversityHandler(dir, services.NewRecommendationService(dir, nil, onboarding), shortlist)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "u1")
		return c.Next()
	})
	app.Get("/universities/search", handler.Search)
	app.Get("/universities/shortlist", handler.ListShortlist)
	app.Post("/universities/shortlist", handler.AddToShortlist)
	app.Delete("/universities/shortlist/:id", handler.RemoveFromShortlist)
	app.Post("/universities/lock", handler.Lock)
	app.Post("/universities/unlock", handler.Unlock)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func errorCode(envelope map[string]interface{}) string {
	errObj, _ := envelope["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func sampleSet() []model.University {
	return []model.University{
		{Name: "University of Toronto", Country: "Canada", AlphaTwoCode: "CA"},
	}
}

func TestAddShortlistDuplicateCode(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{universities: sampleSet()})
	payload := fiber.Map{"university_name": "University of Toronto", "country": "Canada", "category": "target"}

	resp := doJSON(t, app, http.MethodPost, "/universities/shortlist", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/universities/shortlist", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ALREADY_SHORTLISTED", errorCode(decodeEnvelope(t, resp)))
}

func TestAddShortlistUnknownUniversity(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{universities: []model.University{}})

	resp := doJSON(t, app, http.MethodPost, "/universities/shortlist",
		fiber.Map{"university_name": "Hogwarts", "country": "Scotland"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRemoveLockedEntryCode(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{universities: sampleSet()})

	resp := doJSON(t, app, http.MethodPost, "/universities/shortlist",
		fiber.Map{"university_name": "University of Toronto", "country": "Canada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data, _ := envelope["data"].(map[string]interface{})
	entryID := int(data["id"].(float64))

	resp = doJSON(t, app, http.MethodPost, "/universities/lock",
		fiber.Map{"university_name": "University of Toronto", "country": "Canada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/universities/shortlist/%d", entryID), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "REMOVE_LOCKED", errorCode(decodeEnvelope(t, resp)))

	// Unlock then delete succeeds.
	resp = doJSON(t, app, http.MethodPost, "/universities/unlock",
		fiber.Map{"university_name": "University of Toronto", "country": "Canada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/universities/shortlist/%d", entryID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLockMissingEntry(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{universities: sampleSet()})

	resp := doJSON(t, app, http.MethodPost, "/universities/lock",
		fiber.Map{"university_name": "University of Toronto", "country": "Canada"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchFallsBackToEmptyList(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{err: fmt.Errorf("upstream down")})

	req := httptest.NewRequest(http.MethodGet, "/universities/search?country=Canada", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data, ok := envelope["data"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestSearchRequiresFilter(t *testing.T) {
	app := newShortlistApp(t, &stubDirectory{universities: sampleSet()})

	req := httptest.NewRequest(http.MethodGet, "/universities/search", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
