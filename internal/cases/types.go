package cases

import "time"

// Row is the case listing shape.
type Row struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is an append-only note on a case.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
}

// Detail is the full case record.
type Detail struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	Assignee     string    `json:"assignee,omitempty"`
	DetectionIDs []int64   `json:"detection_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Comments     []Comment `json:"comments"`
}

// CreateInput is the case creation request body.
type CreateInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Severity     string  `json:"severity,omitempty"`
	DetectionIDs []int64 `json:"detection_ids,omitempty"`
	Assignee     string  `json:"assignee,omitempty"`
}

// Created is the creation response.
type Created struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
	Assignee string `json:"assignee,omitempty"`
}
