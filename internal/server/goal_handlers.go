package server

import (
	"bytes"
	"encoding/json"
	"time"

	"devhabit/internal/models"
	"devhabit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createGoalRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       models.Category `json:"category"`
	StartDate      *time.Time      `json:"startDate"`
	CompletionDate *time.Time      `json:"completionDate"`
	Priority       models.Priority `json:"priority"`
	IsCompleted    bool            `json:"isCompleted"`
	Metrics        []models.Metric `json:"metrics"`
}

type updateGoalRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Category       *models.Category `json:"category"`
	StartDate      *time.Time       `json:"startDate"`
	CompletionDate optionalTime     `json:"completionDate" swaggertype:"string" format:"date-time"`
	Priority       *models.Priority `json:"priority"`
	IsCompleted    *bool            `json:"isCompleted"`
	Metrics        *[]models.Metric `json:"metrics"`
}

// optionalTime separates an absent key from an explicit null, which clears the date.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// CreateGoal handles POST /api/v1/goals
// @Summary Create a goal
// @Description Metrics whose type is not allowed for the category are dropped.
// @Tags goals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} models.Goal
// @Failure 400 {object} models.ErrorResponse
// @Router /goals [post]
func (s *Server) CreateGoal(c *fiber.Ctx) error {
	var req createGoalRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	goal, err := s.goalService.CreateGoal(c.UserContext(), service.CreateGoalInput{
		UserID:         currentUserID(c),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		StartDate:      req.StartDate,
		CompletionDate: req.CompletionDate,
		Priority:       req.Priority,
		IsCompleted:    req.IsCompleted,
		Metrics:        req.Metrics,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

// GetGoals handles GET /api/v1/goals
// @Summary List the caller's goals
// @Tags goals
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Goal
// @Router /goals [get]
func (s *Server) GetGoals(c *fiber.Ctx) error {
	goals, err := s.goalService.ListGoals(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(goals)
}

// GetGoal handles GET /api/v1/goals/:goalId
// @Summary Get one of the caller's goals
// @Tags goals
// @Security BearerAuth
// @Produce json
// @Param goalId path int true "Goal ID"
// @Success 200 {object} models.Goal
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/{goalId} [get]
func (s *Server) GetGoal(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	goal, err := s.goalService.GetGoal(c.UserContext(), currentUserID(c), goalID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(goal)
}

// UpdateGoal handles PUT /api/v1/goals/:goalId
// @Summary Partially update one of the caller's goals
// @Description Absent fields are left unchanged. "completionDate": null clears the completion date.
// @Tags goals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param goalId path int true "Goal ID"
// @Success 200 {object} models.Goal
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/{goalId} [put]
func (s *Server) UpdateGoal(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	var req updateGoalRequest
	if err := parseStrictBody(c, &req); err != nil {
		return nil
	}

	goal, err := s.goalService.UpdateGoal(c.UserContext(), currentUserID(c), goalID, service.UpdateGoalInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		StartDate:      req.StartDate,
		CompletionDate: req.CompletionDate.Value,
		Priority:       req.Priority,
		IsCompleted:    req.IsCompleted,
		Metrics:        req.Metrics,

		ClearCompletionDate: req.CompletionDate.Set && req.CompletionDate.Value == nil,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(goal)
}

// DeleteGoal handles DELETE /api/v1/goals/:goalId
// @Summary Delete one of the caller's goals and its library
// @Tags goals
// @Security BearerAuth
// @Param goalId path int true "Goal ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/{goalId} [delete]
func (s *Server) DeleteGoal(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	if err := s.goalService.DeleteGoal(c.UserContext(), currentUserID(c), goalID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Goal deleted successfully"})
}
