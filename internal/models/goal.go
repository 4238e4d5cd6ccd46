package models

import "time"

// Category is the closed set of goal categories.
type Category string

const (
	CategoryLearningLanguage   Category = "Learning Language"
	CategoryProjectDevelopment Category = "Project Development"
	CategoryAlgorithmMastery   Category = "Algorithm Mastery"
)

// Priority ranks a goal against the owner's other goals.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Metric is a typed progress measurement embedded in a goal.
// Only the fields relevant to Type are expected to be set.
type Metric struct {
	Type                string   `json:"type"`
	Progress            float64  `json:"progress"`
	TargetHours         *float64 `json:"targetHours,omitempty"`
	ConceptsToComplete  []string `json:"conceptsToComplete,omitempty"`
	Milestones          []string `json:"milestones,omitempty"`
	WeeklyCommitGoal    *int     `json:"weeklyCommitGoal,omitempty"`
	SolvedProblemsCount *int     `json:"solvedProblemsCount,omitempty"`
	CoreAlgorithms      []string `json:"coreAlgorithms,omitempty"`
}

// Goal is a user's tracked objective.
type Goal struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"userId"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       Category   `gorm:"not null;size:64" json:"category"`
	StartDate      time.Time  `json:"startDate"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	Priority       Priority   `gorm:"not null;size:16" json:"priority"`
	IsCompleted    bool       `json:"isCompleted"`
	Metrics        []Metric   `gorm:"type:text;serializer:json" json:"metrics"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
