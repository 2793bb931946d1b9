package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The models below define the tenant-scoped table set mirrored into every
// tenant schema during provisioning. Their CRUD surfaces belong to the
// interview domain services; this service only owns their DDL. All table
// names are unqualified so they resolve through the bound schema.

// QuestionCategory organizes questions within one tenant
type QuestionCategory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Color       string    `json:"color" gorm:"type:varchar(7);default:'#007bff'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (QuestionCategory) TableName() string { return "question_categories" }

// Question is an assessment question. No tenant column: isolation is at the
// schema level.
type Question struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	QuestionType string    `json:"question_type" gorm:"type:varchar(20);index"`
	Difficulty   string    `json:"difficulty" gorm:"type:varchar(10);index"`
	CategoryID   *uint     `json:"category_id"`
	TimeLimit    *int      `json:"time_limit"`
	MaxScore     int       `json:"max_score" gorm:"default:100"`
	AutoGrade    bool      `json:"auto_grade" gorm:"default:true"`
	QuestionData string    `json:"question_data" gorm:"type:jsonb;default:'{}'"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Interview is a scheduled assessment session
type Interview struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Status      string    `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Duration    int       `json:"duration" gorm:"default:60"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Interview) TableName() string { return "interviews" }

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Candidate is a person taking assessments for one tenant
type Candidate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Candidate) TableName() string { return "candidates" }

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Submission is a candidate's answer set for one interview
type Submission struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	InterviewID uuid.UUID  `json:"interview_id" gorm:"type:uuid;index;not null"`
	CandidateID uuid.UUID  `json:"candidate_id" gorm:"type:uuid;index;not null"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalScore  *float64   `json:"total_score"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Submission) TableName() string { return "submissions" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
