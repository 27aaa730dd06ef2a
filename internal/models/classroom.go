package models

import "strings"

// Classroom represents one teaching section, either created by a teacher or
// joined by a student through a class code.
type Classroom struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	Grade           string `json:"grade,omitempty"`
	Section         string `json:"section,omitempty"`
	Teacher         string `json:"teacher,omitempty"`
	ProfileImageRef string `json:"profile_image_ref,omitempty"`
	JoinCode        string `json:"join_code,omitempty"`
	HasMaterials    bool   `json:"has_materials"`
	Seed            bool   `json:"seed"`
}

// SameIdentity reports the structural (name, subject) match used for seed
// deduplication.
func (c Classroom) SameIdentity(other Classroom) bool {
	return c.Name == other.Name && c.Subject == other.Subject
}

// ClassroomDraft is the teacher create form.
type ClassroomDraft struct {
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Grade   string `json:"grade"`
	Section string `json:"section"`
}

// Normalize trims every field in place.
func (d *ClassroomDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Subject = strings.TrimSpace(d.Subject)
	d.Grade = strings.TrimSpace(d.Grade)
	d.Section = strings.TrimSpace(d.Section)
}

// ClassroomPatch edits name and/or subject; nil fields stay unchanged.
type ClassroomPatch struct {
	Name    *string `json:"name"`
	Subject *string `json:"subject"`
}

// ClassroomRecord is the device scoped serialized form stored under "classrooms".
type ClassroomRecord struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Grade   string `json:"grade,omitempty"`
	Section string `json:"section,omitempty"`
}

// JoinedClassRecord is the session scoped serialized form stored under "joinedClasses".
type JoinedClassRecord struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Subject      string `json:"subject"`
	Teacher      string `json:"teacher"`
	Profile      string `json:"profile"`
	HasMaterials bool   `json:"hasMaterials"`
}

// ToRecord converts a created classroom into its device record.
func (c Classroom) ToRecord() ClassroomRecord {
	return ClassroomRecord{ID: c.ID, Name: c.Name, Subject: c.Subject, Grade: c.Grade, Section: c.Section}
}

// FromRecord rebuilds a created classroom from its device record.
func FromRecord(r ClassroomRecord) Classroom {
	return Classroom{ID: r.ID, Name: r.Name, Subject: r.Subject, Grade: r.Grade, Section: r.Section}
}

// ToJoinedRecord converts a joined classroom into its session record.
func (c Classroom) ToJoinedRecord() JoinedClassRecord {
	return JoinedClassRecord{
		Code:         c.JoinCode,
		Name:         c.Name,
		Subject:      c.Subject,
		Teacher:      c.Teacher,
		Profile:      c.ProfileImageRef,
		HasMaterials: c.HasMaterials,
	}
}

// ClassroomDetail bundles a classroom with its sub-resources for the detail view.
type ClassroomDetail struct {
	Classroom   Classroom    `json:"classroom"`
	Materials   []Material   `json:"materials"`
	Tasks       []Task       `json:"tasks"`
	Assignments []Assignment `json:"assignments"`
	Messages    []Message    `json:"messages"`
}
