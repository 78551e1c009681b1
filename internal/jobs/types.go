package jobs

const TaskProcessSubmission = "submission:process"

// SubmissionPayload is one inbound video submission, queued by the update
// loop and consumed by the pipeline worker.
type SubmissionPayload struct {
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Username string `json:"username"` // optional
	FileID   string `json:"file_id"`  // Telegram file_id
	FileSize int64  `json:"file_size"`
	SentAt   int64  `json:"sent_at"` // message date, epoch seconds
}
