package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/service"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/storage"
)

type quotaPersister struct{}

func (quotaPersister) SaveClassrooms(ctx context.Context, records []models.ClassroomRecord) error {
	return appErrors.Clone(appErrors.ErrStorageQuotaExceeded, "classrooms not saved")
}

func (quotaPersister) SaveJoined(ctx context.Context, records []models.JoinedClassRecord) error {
	return nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTestRouter(t *testing.T, store *service.ClassroomStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tickets := service.NewTicketService(nil, nil, nil)
	exports := service.NewExportService(store, tickets, nil, nil, nil)

	classrooms := NewClassroomHandler(store)
	enrollments := NewEnrollmentHandler(store)
	threads := NewThreadHandler(store)
	challenges := NewChallengeHandler(tickets, exports)
	students := NewStudentHandler(store, exports)

	r := gin.New()
	r.GET("/classrooms", classrooms.List)
	r.POST("/classrooms", classrooms.Create)
	r.GET("/classrooms/:id", classrooms.Get)
	r.PATCH("/classrooms/:id", classrooms.Update)
	r.DELETE("/classrooms/:id", classrooms.Delete)
	r.POST("/classrooms/:id/materials", classrooms.UploadMaterial)
	r.POST("/classrooms/:id/tasks", classrooms.AssignTask)
	r.POST("/classrooms/:id/messages", classrooms.PostMessage)
	r.GET("/materials/:token", classrooms.DownloadMaterial)
	r.GET("/enrollments", enrollments.List)
	r.POST("/enrollments", enrollments.Join)
	r.GET("/threads", threads.List)
	r.POST("/threads", threads.Create)
	r.POST("/threads/:id/replies", threads.Reply)
	r.GET("/challenges", challenges.List)
	r.POST("/challenges/:id/tickets", challenges.Apply)
	r.GET("/tickets/:id/pdf", challenges.TicketPDF)
	r.GET("/students", students.List)
	r.POST("/students", students.Create)
	r.GET("/students/export", students.Export)
	return r
}

func newHandlerStore(t *testing.T, persister interface {
	SaveClassrooms(ctx context.Context, records []models.ClassroomRecord) error
	SaveJoined(ctx context.Context, records []models.JoinedClassRecord) error
}) *service.ClassroomStore {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	registry := storage.NewContentRegistry(files, storage.NewRefSigner("secret", time.Hour), "handler-test")
	store := service.NewClassroomStore(persister, registry, nil, nil, nil, nil)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env
}

func TestClassroomHandlerCreateListDelete(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodPost, "/classrooms", `{"name":"TY IT","subject":"Cloud","grade":"TY"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Classroom
	env := decode(t, w, &created)
	assert.Nil(t, env.Meta)
	assert.Equal(t, "Cloud", created.Subject)

	w = doJSON(r, http.MethodGet, "/classrooms", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Classroom
	decode(t, w, &list)
	require.Len(t, list, 3)
	assert.Equal(t, created.ID, list[2].ID)

	path := "/classrooms/" + jsonNumber(created.ID)
	w = doJSON(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerValidationAndQuota(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, quotaPersister{}))

	w := doJSON(r, http.MethodPost, "/classrooms", `{"name":"","subject":"Cloud"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)

	w = doJSON(r, http.MethodPost, "/classrooms", `{"name":"Big","subject":"Data"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	env = decode(t, w, nil)
	warning, ok := env.Meta["storage_warning"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "STORAGE_QUOTA_EXCEEDED", warning["code"])

	w = doJSON(r, http.MethodPatch, "/classrooms/abc", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodPatch, "/classrooms/555", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerMaterialRoundTrip(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("linked lists"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/classrooms/2/materials", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var material models.Material
	decode(t, w, &material)
	assert.Equal(t, 1, material.ID)
	assert.Equal(t, "notes.txt", material.Name)

	w = doJSON(r, http.MethodGet, "/materials/"+material.ContentRef, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "linked lists", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w = doJSON(r, http.MethodGet, "/materials/bogus", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/classrooms/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail models.ClassroomDetail
	decode(t, w, &detail)
	assert.True(t, detail.Classroom.HasMaterials)
	assert.Len(t, detail.Materials, 1)
}

func TestClassroomHandlerTasksAndMessages(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodPost, "/classrooms/1/tasks", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodPost, "/classrooms/1/tasks", `{"name":"Lab 4"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, http.MethodPost, "/classrooms/1/messages", `{"text":"See you at 10"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, http.MethodPost, "/classrooms/77/messages", `{"text":"hello"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
