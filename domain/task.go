package domain

import (
	"errors"
	"strings"
	"time"
)

// Task represents a user-owned to-do item.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsComplete  bool      `json:"isComplete"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NormalizeTitle trims the title and rejects empty values.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	return title, nil
}

// ValidateTaskRecord checks a decoded store record before it leaves the store boundary.
func ValidateTaskRecord(t *Task) error {
	if t == nil {
		return DecodeError("task", "", errors.New("empty record"))
	}
	switch {
	case t.ID == "":
		return DecodeError("task", t.ID, errors.New("missing id"))
	case t.OwnerID == "":
		return DecodeError("task", t.ID, errors.New("missing userId"))
	case strings.TrimSpace(t.Title) == "":
		return DecodeError("task", t.ID, errors.New("missing title"))
	case t.CreatedAt.IsZero():
		return DecodeError("task", t.ID, errors.New("missing createdAt"))
	}
	return nil
}

// OwnedBy reports whether the task belongs to the given user.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.OwnerID == userID
}

// Stats summarizes completion counts for a task list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Summarize counts completed and pending tasks.
func Summarize(tasks []Task) Stats {
	stats := Stats{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].IsComplete {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}
