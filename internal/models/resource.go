package models

// Material is a file-like resource attached to exactly one classroom. ID is
// only unique within the parent classroom.
type Material struct {
	ID          int    `json:"id"`
	ClassroomID int64  `json:"classroom_id"`
	Name        string `json:"name"`
	ContentRef  string `json:"content_ref"`
}

// MaterialUpload carries an uploaded file into the store.
type MaterialUpload struct {
	Name    string `validate:"required"`
	Content []byte
}

// Task is a free-form task assigned by the teacher inside a classroom.
type Task struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Assignment is a due-dated task belonging to a classroom.
type Assignment struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

// Message is one post in a classroom discussion.
type Message struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// DiscussionThread is a question posted by a student with append-only replies.
type DiscussionThread struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Author  string   `json:"author"`
	Replies []string `json:"replies"`
}

// ThreadDraft is the payload for posting a new question.
type ThreadDraft struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}
