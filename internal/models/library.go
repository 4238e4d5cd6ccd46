package models

import "time"

// Resource is a single external learning link inside a library.
type Resource struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Library holds the resources attached to one goal.
type Library struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	GoalID    uint       `gorm:"uniqueIndex;not null" json:"goalId"`
	Resources []Resource `gorm:"type:text;serializer:json" json:"resources"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FindResource returns the position of the resource with the given id.
func (l *Library) FindResource(id string) (int, bool) {
	for i := range l.Resources {
		if l.Resources[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// RemoveResourceAt deletes the resource at index i, keeping the order of the rest.
func (l *Library) RemoveResourceAt(i int) {
	l.Resources = append(l.Resources[:i], l.Resources[i+1:]...)
}
