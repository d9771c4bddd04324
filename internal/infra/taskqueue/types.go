package taskqueue

import "time"

// DedupTask is one deferred deduplication run. RunID names the task in the
// queue so re-scheduling the same session on the same day is idempotent.
type DedupTask struct {
	RunID      string    `json:"-"`
	ScheduleAt time.Time `json:"-"`

	Mode    string `json:"mode"`
	Date    string `json:"date"`
	Session string `json:"session"`
}

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type emulatorTaskRequest struct {
	Task emulatorTask `json:"task"`
}

type emulatorTask struct {
	HTTPRequest  emulatorHTTPRequest `json:"httpRequest"`
	ScheduleTime string              `json:"scheduleTime,omitempty"`
}

type emulatorHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type emulatorTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}
