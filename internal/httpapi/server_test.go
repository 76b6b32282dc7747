package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/auth"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/report"
	"github.com/Kitrop/workflow/internal/repository"
	"github.com/Kitrop/workflow/internal/service"
	"github.com/Kitrop/workflow/internal/testutil"
)

type testEnv struct {
	handler  http.Handler
	issuer   *auth.Issuer
	users    *repository.SQLiteUserRepo
	projects *repository.SQLiteProjectRepo
	grants   *repository.SQLiteGrantRepo
	tasks    service.TaskService

	admin      *domain.User
	adminToken string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	users := repository.NewSQLiteUserRepo(database)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	tasks := service.NewTaskService(repository.NewSQLiteTaskTypeRepo(database), uow, history.NewRecorder())

	srv := NewServer(Deps{
		Users:    service.NewUserService(users),
		Projects: service.NewProjectService(repository.NewSQLiteProjectRepo(database), uow),
		Tasks:    tasks,
		Reports:  service.NewReportService(report.NewAggregator(uow, nil), gantt.NewBuilder(uow)),
		Issuer:   issuer,
	})

	e := &testEnv{
		handler:  srv.Handler(),
		issuer:   issuer,
		users:    users,
		projects: repository.NewSQLiteProjectRepo(database),
		grants:   repository.NewSQLiteGrantRepo(database),
		tasks:    tasks,
	}
	e.admin = testutil.MustCreate(t, users, testutil.NewTestUser("root", testutil.WithRole(domain.RoleAdmin)))
	e.adminToken = e.tokenFor(t, e.admin)
	return e
}

func (e *testEnv) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	token, _, err := e.issuer.Issue(u)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	e := setupTestEnv(t)
	hash, err := auth.HashPassword("pass1234")
	require.NoError(t, err)
	u := testutil.NewTestUser("dev")
	u.PasswordHash = hash
	testutil.MustCreate(t, e.users, u)

	w := e.do(t, http.MethodPost, "/api/auth/token", "", tokenRequest{Username: "dev", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/token", "", tokenRequest{Username: "dev", Password: "pass1234"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Bearer", body["token_type"])
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	w = e.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev", decode[userJSON](t, w).Username)
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	e := setupTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := auth.NewIssuer("other-secret", time.Hour)
	forged, _, err := other.Issue(e.admin)
	require.NoError(t, err)
	w = e.do(t, http.MethodGet, "/api/projects", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ghost := testutil.NewTestUser("ghost")
	w = e.do(t, http.MethodGet, "/api/projects", e.tokenFor(t, ghost), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "token for a user that does not exist")
}

func TestProjects_AccessStatuses(t *testing.T) {
	e := setupTestEnv(t)
	u := testutil.MustCreate(t, e.users, testutil.NewTestUser("plain"))
	token := e.tokenFor(t, u)

	w := e.do(t, http.MethodPost, "/api/projects", e.adminToken, projectInput{Name: "Secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	secret := decode[projectJSON](t, w)

	w = e.do(t, http.MethodPost, "/api/projects", token, projectInput{Name: "Mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects/"+secret.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/projects", e.adminToken, projectInput{Name: "Secret"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/projects/"+secret.ID+"/grants", e.adminToken, grantRequest{UserID: u.ID})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = e.do(t, http.MethodPost, "/api/projects/"+secret.ID+"/grants", e.adminToken, grantRequest{UserID: u.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects/"+secret.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, "/api/projects/"+secret.ID+"/grants/"+u.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodDelete, "/api/projects/"+secret.ID+"/grants/"+u.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects/"+secret.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTasks_CreateUpdateHistory(t *testing.T) {
	e := setupTestEnv(t)
	p := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core"))

	w := e.do(t, http.MethodPost, "/api/tasks", e.adminToken, taskJSON{
		ProjectID: p.ID,
		Name:      "Build",
		IssueDate: "2024-01-01",
		Extra:     domain.ExtraFields{domain.KeyStoryPoints: domain.Number(3)},
		Periods:   []periodJSON{{Type: "work", Start: "2024-01-01", End: "2024-01-03"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[taskJSON](t, w)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Periods, 1)
	assert.Equal(t, domain.TaskTypeDevelopment, created.Type)

	update := created
	update.Name = "Build more"
	update.Extra = domain.ExtraFields{domain.KeyStoryPoints: domain.Number(5)}
	w = e.do(t, http.MethodPut, "/api/tasks/"+created.ID, e.adminToken, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Task    taskJSON     `json:"task"`
		Changes []changeJSON `json:"changes"`
	}](t, w)
	assert.Equal(t, "Build more", body.Task.Name)
	assert.Len(t, body.Changes, 2)

	w = e.do(t, http.MethodPut, "/api/tasks/"+created.ID, e.adminToken, body.Task)
	require.Equal(t, http.StatusOK, w.Code)
	noop := decode[struct {
		Changes []changeJSON `json:"changes"`
	}](t, w)
	assert.Empty(t, noop.Changes)

	w = e.do(t, http.MethodGet, "/api/tasks/"+created.ID+"/history", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]historyJSON](t, w), 3)

	w = e.do(t, http.MethodGet, "/api/tasks/count?project_id="+p.ID, e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), counts["total_count"])
	assert.Equal(t, float64(1), counts["project_count"])

	w = e.do(t, http.MethodDelete, "/api/tasks/"+created.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodGet, "/api/tasks/"+created.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasks_ReusedPeriodIDIsConflict(t *testing.T) {
	e := setupTestEnv(t)
	p := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core"))

	w := e.do(t, http.MethodPost, "/api/tasks", e.adminToken, taskJSON{
		ProjectID: p.ID, Name: "A", IssueDate: "2024-01-01",
		Periods: []periodJSON{{Type: "work", Start: "2024-01-01", End: "2024-01-03"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[taskJSON](t, w)

	w = e.do(t, http.MethodPost, "/api/tasks", e.adminToken, taskJSON{
		ProjectID: p.ID, Name: "B", IssueDate: "2024-01-01",
		Periods: []periodJSON{{ID: a.Periods[0].ID, Type: "work", Start: "2024-01-05", End: "2024-01-06"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestTasks_PagingAndCounts(t *testing.T) {
	e := setupTestEnv(t)
	core := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core"))
	web := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Web"))
	admin := domain.ActorFor(e.admin)
	for i, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		require.NoError(t, e.tasks.Create(context.Background(), admin,
			testutil.NewTestTask(core.ID, fmt.Sprintf("core-%d", i), testutil.WithIssueDate(d))))
	}
	require.NoError(t, e.tasks.Create(context.Background(), admin, testutil.NewTestTask(web.ID, "web")))

	w := e.do(t, http.MethodGet, "/api/tasks?project_id="+core.ID+"&skip=1&limit=1", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[[]taskJSON](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "core-1", page[0].Name)

	w = e.do(t, http.MethodGet, "/api/tasks?skip=3", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]taskJSON](t, w), 1)

	for _, q := range []string{"skip=-1", "limit=abc"} {
		w = e.do(t, http.MethodGet, "/api/tasks?"+q, e.adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w = e.do(t, http.MethodGet, "/api/tasks/count?project_id="+core.ID, e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[map[string]any](t, w)
	assert.Equal(t, float64(4), counts["total_count"])
	assert.Equal(t, float64(3), counts["project_count"])

	w = e.do(t, http.MethodGet, "/api/tasks/count", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts = decode[map[string]any](t, w)
	assert.Equal(t, float64(4), counts["total_count"])
	assert.Nil(t, counts["project_count"])

	w = e.do(t, http.MethodGet, "/api/tasks/count?project_id=missing", e.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasks_BadInput(t *testing.T) {
	e := setupTestEnv(t)
	p := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core"))

	w := e.do(t, http.MethodPost, "/api/tasks", e.adminToken, taskJSON{ProjectID: p.ID, Name: "x", IssueDate: "01/02/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/tasks", e.adminToken, taskJSON{
		ProjectID: p.ID, Name: "x", IssueDate: "2024-01-01",
		Periods: []periodJSON{{Type: "work", Start: "2024-01-05", End: "2024-01-01"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/task-types", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]taskTypeJSON](t, w), 4)
}

func TestReports(t *testing.T) {
	e := setupTestEnv(t)
	dev := testutil.MustCreate(t, e.users, testutil.NewTestUser("dev"))
	plain := testutil.MustCreate(t, e.users, testutil.NewTestUser("plain"))
	p := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core"))
	adminActor := domain.ActorFor(e.admin)
	for _, name := range []string{"a", "b"} {
		task := testutil.NewTestTask(p.ID, name, testutil.WithAssignee(dev.ID), testutil.WithStoryPoints(2),
			testutil.WithPeriod(domain.PeriodWork, "2024-01-02", "2024-01-20"))
		require.NoError(t, e.tasks.Create(t.Context(), adminActor, task))
	}

	w := e.do(t, http.MethodGet, "/api/reports/series/tasks_by_user?date_from=2024-01-01&date_to=2024-01-31", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	series := decode[struct {
		Metric string        `json:"metric"`
		Points report.Series `json:"points"`
	}](t, w)
	assert.Equal(t, "tasks_by_user", series.Metric)
	require.Len(t, series.Points, 1)
	assert.Equal(t, 2.0, series.Points[0].Value)

	w = e.do(t, http.MethodGet, "/api/reports/series/nope", e.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/reports/series/tasks_by_user?date_from=2024-02-01&date_to=2024-01-01", e.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/reports/series/tasks_by_user", e.tokenFor(t, plain), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/reports/gantt?user_id="+dev.ID+"&date_from=2024-01-05&date_to=2024-01-10", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	timeline := decode[struct {
		Intervals []map[string]any `json:"intervals"`
	}](t, w)
	assert.Len(t, timeline.Intervals, 2)

	w = e.do(t, http.MethodGet, "/api/reports/gantt", e.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/reports/scorecard", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[struct {
		Rows []report.ScoreRow `json:"rows"`
	}](t, w)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, dev.ID, rows.Rows[0].UserID)
}

func TestUsers_AdminOnly(t *testing.T) {
	e := setupTestEnv(t)
	plain := testutil.MustCreate(t, e.users, testutil.NewTestUser("plain"))

	w := e.do(t, http.MethodPost, "/api/users", e.tokenFor(t, plain), createUserRequest{Username: "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/api/users", e.adminToken, createUserRequest{Username: "x", Role: domain.RoleModerator})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[userJSON](t, w)

	name := "Xavier"
	w = e.do(t, http.MethodPatch, "/api/users/"+created.ID, e.adminToken, updateUserRequest{FullName: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Xavier", decode[userJSON](t, w).FullName)

	w = e.do(t, http.MethodGet, "/api/users", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]userJSON](t, w), 3)
}

func TestUsers_GetAndDelete(t *testing.T) {
	e := setupTestEnv(t)
	plain := testutil.MustCreate(t, e.users, testutil.NewTestUser("plain"))
	gone := testutil.MustCreate(t, e.users, testutil.NewTestUser("gone"))

	w := e.do(t, http.MethodGet, "/api/users/"+gone.ID, e.tokenFor(t, plain), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gone", decode[userJSON](t, w).Username)

	w = e.do(t, http.MethodDelete, "/api/users/"+gone.ID, e.tokenFor(t, plain), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodDelete, "/api/users/"+gone.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodGet, "/api/users/"+gone.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, http.MethodDelete, "/api/users/"+gone.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodDelete, "/api/users/"+e.admin.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutocomplete(t *testing.T) {
	e := setupTestEnv(t)
	ann := testutil.MustCreate(t, e.users, testutil.NewTestUser("ann", testutil.WithFullName("Anna Novak")))
	testutil.MustCreate(t, e.users, testutil.NewTestUser("boss", testutil.WithRole(domain.RoleAdmin), testutil.WithFullName("Big Anna")))
	testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core Platform"))
	open := testutil.MustCreate(t, e.projects, testutil.NewTestProject("Core Public", testutil.WithPublic()))

	usernames := func(w *httptest.ResponseRecorder) []string {
		var out []string
		for _, u := range decode[[]userJSON](t, w) {
			out = append(out, u.Username)
		}
		return out
	}

	w := e.do(t, http.MethodGet, "/api/autocomplete/users?query=ANNA", e.tokenFor(t, ann), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"ann", "boss"}, usernames(w))

	w = e.do(t, http.MethodGet, "/api/autocomplete/managers?query=anna", e.tokenFor(t, ann), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"boss"}, usernames(w))

	w = e.do(t, http.MethodGet, "/api/autocomplete/projects?query=core", e.tokenFor(t, ann), nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := decode[[]projectJSON](t, w)
	require.Len(t, projects, 1)
	assert.Equal(t, open.ID, projects[0].ID)

	w = e.do(t, http.MethodGet, "/api/autocomplete/projects?query=core", e.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]projectJSON](t, w), 2)

	w = e.do(t, http.MethodGet, "/api/autocomplete/users?query=x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
