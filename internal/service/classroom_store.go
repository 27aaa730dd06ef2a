package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/idgen"
)

type classroomPersister interface {
	SaveClassrooms(ctx context.Context, records []models.ClassroomRecord) error
	SaveJoined(ctx context.Context, records []models.JoinedClassRecord) error
}

type contentRegistry interface {
	Register(classroomID int64, seq int, name string, data []byte) (string, error)
	Resolve(ref string) (string, *os.File, error)
	Release() error
}

type storeObserver interface {
	RecordStoreOperation(op, outcome string)
}

// ClassroomStore owns every in-memory collection of one execution context:
// teacher classrooms, joined classrooms, and their materials, tasks and
// discussion, plus the doubt forum and the student roster. All methods are
// safe for concurrent use.
//
// Mutations apply in memory first and are then written through the
// persister. When the write fails the mutation is kept for this context and
// the error is returned next to the result.
type ClassroomStore struct {
	persister classroomPersister
	content   contentRegistry
	ids       *idgen.Generator
	validator *validator.Validate
	logger    *zap.Logger
	metrics   storeObserver

	mu        sync.RWMutex
	seeds     []models.Classroom
	created   []models.Classroom
	joined    []models.Classroom
	materials map[int64][]models.Material
	tasks     map[int64][]models.Task
	messages  map[int64][]models.Message
	threads   []models.DiscussionThread
	students  []models.Student
}

// NewClassroomStore constructs a store holding only seed data. A nil
// persister keeps everything in memory; a nil content registry disables
// material uploads.
func NewClassroomStore(persister classroomPersister, content contentRegistry, ids *idgen.Generator, validate *validator.Validate, logger *zap.Logger, metrics storeObserver) *ClassroomStore {
	if ids == nil {
		ids = idgen.New(nil, 0)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ClassroomStore{
		persister: persister,
		content:   content,
		ids:       ids,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		seeds:     SeedClassrooms(),
		materials: make(map[int64][]models.Material),
		tasks:     make(map[int64][]models.Task),
		messages:  make(map[int64][]models.Message),
		threads:   seedThreads(),
		students:  seedStudents(),
	}
	for _, seed := range s.seeds {
		ids.Observe(seed.ID)
	}
	s.joined = s.joinedFromRecords(defaultJoinedClasses())
	return s
}

// ListClassrooms returns seed classrooms followed by created ones in
// creation order.
func (s *ClassroomStore) ListClassrooms() []models.Classroom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Classroom, 0, len(s.seeds)+len(s.created))
	out = append(out, s.seeds...)
	out = append(out, s.created...)
	return out
}

// ListJoinedClassrooms returns the classrooms joined in this session.
func (s *ClassroomStore) ListJoinedClassrooms() []models.Classroom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Classroom(nil), s.joined...)
}

// GetClassroom looks a classroom up across seeds, created and joined ones.
func (s *ClassroomStore) GetClassroom(id int64) (*models.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.findLocked(id)
	if c == nil {
		return nil, classroomNotFound(id)
	}
	out := *c
	return &out, nil
}

// ClassroomDetail returns a classroom with all of its sub-resources.
func (s *ClassroomStore) ClassroomDetail(id int64) (*models.ClassroomDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.findLocked(id)
	if c == nil {
		return nil, classroomNotFound(id)
	}
	return &models.ClassroomDetail{
		Classroom:   *c,
		Materials:   append([]models.Material{}, s.materials[id]...),
		Tasks:       append([]models.Task{}, s.tasks[id]...),
		Assignments: seedAssignments(),
		Messages:    append([]models.Message{}, s.messages[id]...),
	}, nil
}

// CreateClassroom validates draft, assigns a time based ID and persists the
// created collection to device scope. A draft matching a seed on (name,
// subject) is kept in memory but left out of the persisted collection.
func (s *ClassroomStore) CreateClassroom(ctx context.Context, draft models.ClassroomDraft) (*models.Classroom, error) {
	draft.Normalize()
	if err := s.validator.Struct(draft); err != nil {
		s.record("create_classroom", "invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and subject are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	classroom := models.Classroom{
		ID:      s.ids.NextID(),
		Name:    draft.Name,
		Subject: draft.Subject,
		Grade:   draft.Grade,
		Section: draft.Section,
	}
	s.created = append(s.created, classroom)
	s.logger.Info("classroom created", zap.Int64("classroom_id", classroom.ID), zap.String("subject", classroom.Subject))
	return &classroom, s.persisted("create_classroom", s.saveClassroomsLocked(ctx))
}

// EditClassroom updates name and/or subject of a created classroom.
func (s *ClassroomStore) EditClassroom(ctx context.Context, id int64, patch models.ClassroomPatch) (*models.Classroom, error) {
	name, subject, err := normalizePatch(patch)
	if err != nil {
		s.record("edit_classroom", "invalid")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seedByID(s.seeds, id) != nil {
		s.record("edit_classroom", "invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "predefined classrooms cannot be edited")
	}
	idx := indexOf(s.created, id)
	if idx < 0 {
		s.record("edit_classroom", "not_found")
		return nil, classroomNotFound(id)
	}
	if name != nil {
		s.created[idx].Name = *name
	}
	if subject != nil {
		s.created[idx].Subject = *subject
	}
	out := s.created[idx]
	return &out, s.persisted("edit_classroom", s.saveClassroomsLocked(ctx))
}

// DeleteClassroom removes a created classroom and its sub-resources. Unknown
// IDs and seed classrooms are a no-op, so the call is idempotent.
func (s *ClassroomStore) DeleteClassroom(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.created, id)
	if idx < 0 {
		s.record("delete_classroom", "noop")
		return nil
	}
	s.created = append(s.created[:idx], s.created[idx+1:]...)
	delete(s.materials, id)
	delete(s.tasks, id)
	delete(s.messages, id)
	s.logger.Info("classroom deleted", zap.Int64("classroom_id", id))
	return s.persisted("delete_classroom", s.saveClassroomsLocked(ctx))
}

// JoinClassroom enrolls the session in the classroom behind code. Teacher
// and subject are cosmetic picks from the fixed catalogs.
func (s *ClassroomStore) JoinClassroom(ctx context.Context, code string) (*models.Classroom, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		s.record("join_classroom", "invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "class code is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	subject := idgen.PickRandom(s.ids, SubjectCatalog)
	classroom := models.Classroom{
		ID:              s.ids.NextID(),
		Name:            subject,
		Subject:         subject,
		Teacher:         idgen.PickRandom(s.ids, TeacherCatalog),
		ProfileImageRef: profileImageBase + url.QueryEscape(code),
		JoinCode:        code,
	}
	s.joined = append(s.joined, classroom)
	s.logger.Info("classroom joined", zap.String("code", code), zap.String("subject", subject))
	return &classroom, s.persisted("join_classroom", s.saveJoinedLocked(ctx))
}

// AddMaterial stores an uploaded file against a classroom. Material IDs count
// up from 1 inside each classroom.
func (s *ClassroomStore) AddMaterial(ctx context.Context, classroomID int64, upload models.MaterialUpload) (*models.Material, error) {
	upload.Name = strings.TrimSpace(upload.Name)
	if err := s.validator.Struct(upload); err != nil {
		s.record("add_material", "invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "material name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	parent := s.findLocked(classroomID)
	if parent == nil {
		s.record("add_material", "not_found")
		return nil, classroomNotFound(classroomID)
	}
	if s.content == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "material uploads are not configured")
	}
	material := models.Material{
		ID:          len(s.materials[classroomID]) + 1,
		ClassroomID: classroomID,
		Name:        upload.Name,
	}
	ref, err := s.content.Register(classroomID, material.ID, upload.Name, upload.Content)
	if err != nil {
		s.record("add_material", "error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material")
	}
	material.ContentRef = ref
	s.materials[classroomID] = append(s.materials[classroomID], material)

	wasEmpty := !parent.HasMaterials
	parent.HasMaterials = true
	if wasEmpty && parent.JoinCode != "" {
		return &material, s.persisted("add_material", s.saveJoinedLocked(ctx))
	}
	s.record("add_material", "ok")
	return &material, nil
}

// ListMaterials returns a classroom's materials in upload order.
func (s *ClassroomStore) ListMaterials(classroomID int64) ([]models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findLocked(classroomID) == nil {
		return nil, classroomNotFound(classroomID)
	}
	return append([]models.Material{}, s.materials[classroomID]...), nil
}

// ResolveMaterial opens the content behind a material reference.
func (s *ClassroomStore) ResolveMaterial(ref string) (string, *os.File, error) {
	if s.content == nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "material content unavailable")
	}
	return s.content.Resolve(ref)
}

// ListAssignments returns the assignments of a classroom.
func (s *ClassroomStore) ListAssignments(classroomID int64) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findLocked(classroomID) == nil {
		return nil, classroomNotFound(classroomID)
	}
	return seedAssignments(), nil
}

// AssignTask appends a task to a classroom.
func (s *ClassroomStore) AssignTask(classroomID int64, name string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.record("assign_task", "invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "task name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(classroomID) == nil {
		s.record("assign_task", "not_found")
		return nil, classroomNotFound(classroomID)
	}
	task := models.Task{ID: len(s.tasks[classroomID]) + 1, Name: name}
	s.tasks[classroomID] = append(s.tasks[classroomID], task)
	s.record("assign_task", "ok")
	return &task, nil
}

// PostMessage appends a message to a classroom discussion.
func (s *ClassroomStore) PostMessage(classroomID int64, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.record("post_message", "invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "message text is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(classroomID) == nil {
		s.record("post_message", "not_found")
		return nil, classroomNotFound(classroomID)
	}
	msg := models.Message{ID: len(s.messages[classroomID]) + 1, Text: text}
	s.messages[classroomID] = append(s.messages[classroomID], msg)
	s.record("post_message", "ok")
	return &msg, nil
}

// ListThreads returns the doubt forum threads.
func (s *ClassroomStore) ListThreads() []models.DiscussionThread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DiscussionThread, len(s.threads))
	for i, t := range s.threads {
		out[i] = copyThread(t)
	}
	return out
}

// PostThread opens a new question in the doubt forum.
func (s *ClassroomStore) PostThread(draft models.ThreadDraft) (*models.DiscussionThread, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Author = strings.TrimSpace(draft.Author)
	if err := s.validator.Struct(draft); err != nil {
		s.record("post_thread", "invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and author are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := models.DiscussionThread{ID: len(s.threads) + 1, Title: draft.Title, Author: draft.Author, Replies: []string{}}
	s.threads = append(s.threads, thread)
	s.record("post_thread", "ok")
	out := copyThread(thread)
	return &out, nil
}

// PostDiscussionReply appends text to a thread's replies. Whitespace-only
// text leaves the thread untouched.
func (s *ClassroomStore) PostDiscussionReply(threadID int, text string) (*models.DiscussionThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.threads {
		if s.threads[i].ID == threadID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.record("post_reply", "not_found")
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("thread %d not found", threadID))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.record("post_reply", "invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "reply text is required")
	}
	s.threads[idx].Replies = append(s.threads[idx].Replies, text)
	s.record("post_reply", "ok")
	out := copyThread(s.threads[idx])
	return &out, nil
}

// ListStudents returns roster entries whose name or email contains query,
// ignoring case. An empty query returns everyone.
func (s *ClassroomStore) ListStudents(query string) []models.Student {
	query = strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		if query == "" || strings.Contains(strings.ToLower(st.Name), query) || strings.Contains(strings.ToLower(st.Email), query) {
			out = append(out, st)
		}
	}
	return out
}

// AddStudent appends a roster entry.
func (s *ClassroomStore) AddStudent(draft models.StudentDraft) (*models.Student, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Email = strings.TrimSpace(draft.Email)
	if err := s.validator.Struct(draft); err != nil {
		s.record("add_student", "invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and a valid email are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	student := models.Student{ID: len(s.students) + 1, Name: draft.Name, Email: draft.Email}
	s.students = append(s.students, student)
	s.record("add_student", "ok")
	return &student, nil
}

// ReplaceClassrooms swaps the created collection for records loaded from
// device scope. Records matching a seed on (name, subject), and records
// whose ID is already taken by a seed, a joined classroom or an earlier
// record, are dropped. It returns how many were dropped.
// Nothing is written back.
func (s *ClassroomStore) ReplaceClassrooms(records []models.ClassroomRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept, dropped := dedupeAgainstSeeds(s.seeds, records)
	taken := make(map[int64]bool, len(s.seeds)+len(s.joined)+len(kept))
	for _, seed := range s.seeds {
		taken[seed.ID] = true
	}
	for _, j := range s.joined {
		taken[j.ID] = true
	}
	next := make([]models.Classroom, 0, len(kept))
	for _, c := range kept {
		if taken[c.ID] {
			s.logger.Warn("dropping classroom with duplicate id", zap.Int64("classroom_id", c.ID))
			dropped++
			continue
		}
		taken[c.ID] = true
		if prev := indexOf(s.created, c.ID); prev >= 0 {
			c.HasMaterials = s.created[prev].HasMaterials
		}
		s.ids.Observe(c.ID)
		next = append(next, c)
	}

	for id := range s.materials {
		if !taken[id] {
			delete(s.materials, id)
			delete(s.tasks, id)
			delete(s.messages, id)
		}
	}
	s.created = next
	return dropped
}

// ReplaceJoined swaps the joined collection for records loaded from session
// scope. When nothing was stored the default joined classroom is used.
func (s *ClassroomStore) ReplaceJoined(records []models.JoinedClassRecord, found bool) {
	if !found {
		records = defaultJoinedClasses()
	}
	s.mu.Lock()
	s.joined = s.joinedFromRecords(records)
	s.mu.Unlock()
}

// Close releases uploaded material content. References handed out earlier
// stop resolving.
func (s *ClassroomStore) Close() error {
	if s.content == nil {
		return nil
	}
	return s.content.Release()
}

func (s *ClassroomStore) joinedFromRecords(records []models.JoinedClassRecord) []models.Classroom {
	out := make([]models.Classroom, 0, len(records))
	for _, r := range records {
		out = append(out, models.Classroom{
			ID:              s.ids.NextID(),
			Name:            r.Name,
			Subject:         r.Subject,
			Teacher:         r.Teacher,
			ProfileImageRef: r.Profile,
			JoinCode:        r.Code,
			HasMaterials:    r.HasMaterials,
		})
	}
	return out
}

func (s *ClassroomStore) saveClassroomsLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	records := make([]models.ClassroomRecord, 0, len(s.created))
	for _, c := range s.created {
		if matchesSeed(s.seeds, c) {
			continue
		}
		records = append(records, c.ToRecord())
	}
	return s.persister.SaveClassrooms(ctx, records)
}

func (s *ClassroomStore) saveJoinedLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	records := make([]models.JoinedClassRecord, 0, len(s.joined))
	for _, c := range s.joined {
		records = append(records, c.ToJoinedRecord())
	}
	return s.persister.SaveJoined(ctx, records)
}

// persisted turns a write-through failure into the error returned alongside
// an already applied mutation.
func (s *ClassroomStore) persisted(op string, err error) error {
	if err == nil {
		s.record(op, "ok")
		return nil
	}
	if errors.Is(err, appErrors.ErrStorageQuotaExceeded) {
		s.record(op, "quota_exceeded")
		s.logger.Warn("change kept for this session only", zap.String("op", op), zap.Error(err))
		return err
	}
	s.record(op, "persist_failed")
	s.logger.Error("change kept for this session only", zap.String("op", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "change may not survive a reload")
}

func (s *ClassroomStore) record(op, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(op, outcome)
	}
}

func (s *ClassroomStore) findLocked(id int64) *models.Classroom {
	if c := seedByID(s.seeds, id); c != nil {
		return c
	}
	if idx := indexOf(s.created, id); idx >= 0 {
		return &s.created[idx]
	}
	if idx := s.joinedIndex(id); idx >= 0 {
		return &s.joined[idx]
	}
	return nil
}

func (s *ClassroomStore) joinedIndex(id int64) int {
	return indexOf(s.joined, id)
}

func dedupeAgainstSeeds(seeds []models.Classroom, records []models.ClassroomRecord) ([]models.Classroom, int) {
	kept := make([]models.Classroom, 0, len(records))
	dropped := 0
	for _, r := range records {
		c := models.FromRecord(r)
		if matchesSeed(seeds, c) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func matchesSeed(seeds []models.Classroom, c models.Classroom) bool {
	for _, seed := range seeds {
		if seed.SameIdentity(c) {
			return true
		}
	}
	return false
}

func seedByID(seeds []models.Classroom, id int64) *models.Classroom {
	for i := range seeds {
		if seeds[i].ID == id {
			return &seeds[i]
		}
	}
	return nil
}

func indexOf(list []models.Classroom, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizePatch(patch models.ClassroomPatch) (*string, *string, error) {
	var name, subject *string
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		if v == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		name = &v
	}
	if patch.Subject != nil {
		v := strings.TrimSpace(*patch.Subject)
		if v == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "subject cannot be empty")
		}
		subject = &v
	}
	return name, subject, nil
}

func copyThread(t models.DiscussionThread) models.DiscussionThread {
	t.Replies = append([]string{}, t.Replies...)
	return t
}

func classroomNotFound(id int64) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("classroom %d not found", id))
}
