package model

import "time"

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

type Proposal struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Document    string         `json:"document"`
	Status      ProposalStatus `json:"status"`
	Student     int            `json:"student"`
	Supervisor  *int           `json:"supervisor"`
	Feedback    string         `json:"feedback"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

type Project struct {
	ID          int           `json:"id"`
	Proposal    *Proposal     `json:"proposal"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Supervisor  *int          `json:"supervisor"`
	Students    []int         `json:"students"`
	Status      ProjectStatus `json:"status"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Milestones  []Milestone   `json:"milestones"`
}

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneCompleted MilestoneStatus = "completed"
	MilestoneOverdue   MilestoneStatus = "overdue"
)

type Milestone struct {
	ID             int             `json:"id"`
	Project        int             `json:"project"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	DueDate        string          `json:"due_date"`
	Status         MilestoneStatus `json:"status"`
	CompletionDate *string         `json:"completion_date"`
}

type DocumentType string

const (
	DocumentReport       DocumentType = "report"
	DocumentCode         DocumentType = "code"
	DocumentPresentation DocumentType = "presentation"
	DocumentOther        DocumentType = "other"
)

type Document struct {
	ID              int          `json:"id"`
	Project         int          `json:"project"`
	File            string       `json:"file"`
	Name            string       `json:"name"`
	Type            DocumentType `json:"type"`
	Version         int          `json:"version"`
	UploadedBy      *int         `json:"uploaded_by"`
	UploadedByEmail string       `json:"uploaded_by_email"`
	UploadedAt      time.Time    `json:"uploaded_at"`
	Description     string       `json:"description"`
}

// Criterion is one rubric line, e.g. {"name": "Originality", "max": 10}.
type Criterion struct {
	Name string  `json:"name"`
	Max  float64 `json:"max"`
}

type Rubric struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Criteria []Criterion `json:"criteria"`
	MaxScore float64     `json:"max_score"`
}

type Score struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Max   float64 `json:"max,omitempty"`
}

type Evaluation struct {
	ID             int       `json:"id"`
	Project        int       `json:"project"`
	Evaluator      int       `json:"evaluator"`
	EvaluatorEmail string    `json:"evaluator_email"`
	Rubric         *int      `json:"rubric"`
	Scores         []Score   `json:"scores"`
	TotalScore     float64   `json:"total_score"`
	Comments       string    `json:"comments"`
	CreatedAt      time.Time `json:"created_at"`
}

type Submission struct {
	ID             int             `json:"id"`
	Title          string          `json:"title"`
	File           string          `json:"file"`
	Student        int             `json:"student"`
	Project        int             `json:"project"`
	SubmittedAt    time.Time       `json:"submitted_at"`
	FeedbackThread *FeedbackThread `json:"feedback_thread"`
}

type FeedbackThread struct {
	ID         int               `json:"id"`
	Submission int               `json:"submission"`
	Messages   []FeedbackMessage `json:"messages"`
}

type FeedbackMessage struct {
	ID          int       `json:"id"`
	Thread      int       `json:"thread"`
	Sender      int       `json:"sender"`
	SenderEmail string    `json:"sender_email"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
)

type Notification struct {
	ID             int              `json:"id"`
	Recipient      int              `json:"recipient"`
	RecipientEmail string           `json:"recipient_email"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"created_at"`
	Link           *string          `json:"link"`
}

// Analytics is the admin aggregate returned by /fyps/analytics/.
type Analytics struct {
	UserCounts         map[string]int `json:"user_counts"`
	ProjectCounts      map[string]int `json:"project_counts"`
	ProposalCounts     map[string]int `json:"proposal_counts"`
	MilestoneCounts    map[string]int `json:"milestone_counts"`
	DocumentCounts     map[string]int `json:"document_counts"`
	TotalSubmissions   int            `json:"total_submissions"`
	AvgEvaluationScore *float64       `json:"avg_evaluation_score"`
	OverdueMilestones  int            `json:"overdue_milestones"`
}
