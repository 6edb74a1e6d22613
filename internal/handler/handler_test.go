package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/database"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/handler"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type apiFixture struct {
	app   *fiber.App
	repos repository.Repositories
}

// newAPIFixture mounts every domain handler over an in-memory sqlite store.
// Requests authenticate through the X-Test-User and X-Test-Role headers.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	repos := repository.New(db)
	tx := repository.NewTransactor(db)

	activity := service.NewActivityService(repos, logger)
	users := service.NewUserService(repos, tx, activity, validate, logger)
	classes := service.NewClassService(repos, tx, activity, validate, logger)
	students := service.NewStudentService(repos, tx, activity, validate, logger)
	credits := service.NewCreditService(repos, tx, activity, validate, nil, 0, logger)
	messages := service.NewMessageService(repos, tx, activity, validate, logger)

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}
			c.Locals("user_id", uint(id))
			c.Locals("user_role", c.Get("X-Test-Role"))
		}
		return c.Next()
	})

	handler.NewUserHandler(users, validate, logger).Register(api.Group("/users"))
	handler.NewClassHandler(classes, messages, validate, logger).Register(api.Group("/classes"))
	handler.NewStudentHandler(students, validate, logger).Register(api.Group("/students"))
	handler.NewCreditHandler(credits, validate, logger).Register(api.Group("/credits"))
	handler.NewMessageHandler(messages, validate, logger).Register(api.Group("/messages"))
	handler.NewAuditHandler(activity, logger).Register(api.Group("/audit"))

	return &apiFixture{app: app, repos: repos}
}

type caller struct {
	id   uint
	role string
}

func (f *apiFixture) do(t *testing.T, as caller, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as.id > 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(as.id), 10))
		req.Header.Set("X-Test-Role", as.role)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *apiFixture) seedUser(t *testing.T, email, role string) caller {
	t.Helper()
	user := models.User{Email: email, Name: strings.Split(email, "@")[0], Role: role, PasswordHash: "hashed-secret", IsActive: true}
	require.NoError(t, f.repos.Users.Create(t.Context(), &user))
	return caller{id: user.ID, role: role}
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func classPayload(teacherID uint, maxStudents int) map[string]interface{} {
	return map[string]interface{}{
		"name":       "Algebra I",
		"teacher_id": teacherID,
		"subject":    "Math",
		"grade":      "9",
		"schedule": map[string]interface{}{
			"day_of_week": 1,
			"start_time":  "09:00",
			"end_time":    "10:00",
		},
		"max_students": maxStudents,
		"credit_value": 1.5,
	}
}

func studentPayload(number string) map[string]interface{} {
	return map[string]interface{}{
		"student_id": number,
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"grade":      "9",
	}
}
