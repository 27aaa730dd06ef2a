package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/repository"
	"github.com/noah-isme/classroom-sync/internal/service"
)

func TestEnrollmentHandlerJoin(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodPost, "/enrollments", `{"code":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/enrollments", `{"code":"ABC123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var joined models.Classroom
	decode(t, w, &joined)
	assert.Equal(t, "ABC123", joined.JoinCode)

	w = doJSON(r, http.MethodGet, "/enrollments", "")
	var list []models.Classroom
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "DSA101", list[0].JoinCode)
}

func TestThreadHandlerReply(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodPost, "/threads/1/replies", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/threads/1/replies", `{"text":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var thread models.DiscussionThread
	decode(t, w, &thread)
	assert.Equal(t, []string{"ok"}, thread.Replies)

	w = doJSON(r, http.MethodPost, "/threads/x/replies", `{"text":"ok"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/threads", `{"title":"Why heaps?","author":"Sita"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(r, http.MethodGet, "/threads", "")
	var threads []models.DiscussionThread
	decode(t, w, &threads)
	assert.Len(t, threads, 3)
}

func TestChallengeHandlerTicketFlow(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodGet, "/challenges", "")
	var challenges []models.Challenge
	decode(t, w, &challenges)
	assert.Len(t, challenges, 4)

	w = doJSON(r, http.MethodPost, "/challenges/1/tickets", `{"full_name":"Amit","email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/challenges/1/tickets", `{"full_name":"Amit","email":"amit@example.com","year":"SY"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var ticket models.Ticket
	decode(t, w, &ticket)
	assert.Regexp(t, `^TICKET-\d+$`, ticket.ID)

	w = doJSON(r, http.MethodGet, "/tickets/"+ticket.ID+"/pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = doJSON(r, http.MethodGet, "/tickets/TICKET-1/pdf", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerSearchAddExport(t *testing.T) {
	r := newTestRouter(t, newHandlerStore(t, nil))

	w := doJSON(r, http.MethodPost, "/students", `{"name":"Kiran","email":"kiran@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/students?search=kir", "")
	var students []models.Student
	decode(t, w, &students)
	require.Len(t, students, 1)
	assert.Equal(t, "Kiran", students[0].Name)

	w = doJSON(r, http.MethodGet, "/students/export?search=kir", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID,Name,Email\n4,Kiran,kiran@example.com\n", w.Body.String())

	w = doJSON(r, http.MethodGet, "/students/export?format=doc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaderboardHandlerScores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLeaderboardHandler(service.NewLeaderboardService(repository.NewMemoryLeaderboard(), nil, 0, nil, nil))
	r := gin.New()
	r.GET("/leaderboard", h.List)
	r.POST("/leaderboard/scores", h.AddScore)
	r.POST("/leaderboard/backup", h.Backup)

	w := doJSON(r, http.MethodPost, "/leaderboard/scores", `{"user":"","score":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/leaderboard/scores", `{"user":"amit","score":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, "/leaderboard/scores", `{"user":"amit","score":4}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/leaderboard", "")
	var entries []models.LeaderboardEntry
	decode(t, w, &entries)
	assert.Equal(t, []models.LeaderboardEntry{{User: "amit", Score: 7}}, entries)

	w = doJSON(r, http.MethodPost, "/leaderboard/backup", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
