package models

// Message is a student-authored note tied to a subject. StudentID is
// nullable in the schema; new rows always carry the author's id.
type Message struct {
	ID        int64  `db:"id" json:"id"`
	StudentID *int64 `db:"student_id" json:"student_id,omitempty"`
	SubjectID int64  `db:"subject_id" json:"subject_id"`
	Content   string `db:"content" json:"content"`
}

// Reply is an instructor-authored response to a message.
type Reply struct {
	ID        int64  `db:"id" json:"id"`
	MessageID int64  `db:"message_id" json:"message_id"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
	Content   string `db:"content" json:"content"`
}

// MessageFilter narrows message listings.
type MessageFilter struct {
	StudentID *int64
	SubjectID *int64
	Page      int
	PageSize  int
}

// Normalize clamps pagination to sane bounds so the reported page size
// always matches the executed query.
func (f *MessageFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// CreateMessageRequest is the payload for posting a message.
type CreateMessageRequest struct {
	SubjectID int64  `json:"subject_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// CreateReplyRequest is the payload for posting a reply.
type CreateReplyRequest struct {
	MessageID int64  `json:"message_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// CreateMessageResponse returns the generated message id.
type CreateMessageResponse struct {
	MessageID int64 `json:"messageId"`
}

// CreateReplyResponse returns the generated reply id.
type CreateReplyResponse struct {
	ReplyID int64 `json:"replyId"`
}
