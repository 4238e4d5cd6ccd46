package server

import (
	"devhabit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type resourceRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type updateResourceRequest struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
}

// AddResource handles POST /api/v1/libraries/:goalId/resources
// @Summary Add a resource to a goal's library
// @Description The library is created on the first add.
// @Tags libraries
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param goalId path int true "Goal ID"
// @Param request body object{type=string,title=string,url=string,description=string} true "Resource"
// @Success 201 {object} models.Library
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /libraries/{goalId}/resources [post]
func (s *Server) AddResource(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	var req resourceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	library, err := s.libraryService.AddResource(c.UserContext(), currentUserID(c), goalID, service.ResourceInput{
		Type:        req.Type,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(library)
}

// GetResources handles GET /api/v1/libraries/:goalId/resources
// @Summary List a goal's resources
// @Tags libraries
// @Security BearerAuth
// @Produce json
// @Param goalId path int true "Goal ID"
// @Success 200 {array} models.Resource
// @Failure 404 {object} models.ErrorResponse
// @Router /libraries/{goalId}/resources [get]
func (s *Server) GetResources(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	resources, err := s.libraryService.ListResources(c.UserContext(), currentUserID(c), goalID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resources)
}

// GetResource handles GET /api/v1/libraries/:goalId/resources/:resourceId
// @Summary Get one resource
// @Tags libraries
// @Security BearerAuth
// @Produce json
// @Param goalId path int true "Goal ID"
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} models.Resource
// @Failure 404 {object} models.ErrorResponse
// @Router /libraries/{goalId}/resources/{resourceId} [get]
func (s *Server) GetResource(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	resource, err := s.libraryService.GetResource(c.UserContext(), currentUserID(c), goalID, c.Params("resourceId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resource)
}

// UpdateResource handles PUT /api/v1/libraries/:goalId/resources/:resourceId
// @Summary Partially update a resource
// @Tags libraries
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param goalId path int true "Goal ID"
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} models.Resource
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /libraries/{goalId}/resources/{resourceId} [put]
func (s *Server) UpdateResource(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	var req updateResourceRequest
	if err := parseStrictBody(c, &req); err != nil {
		return nil
	}

	resource, err := s.libraryService.UpdateResource(c.UserContext(), currentUserID(c), goalID, c.Params("resourceId"), service.UpdateResourceInput{
		Type:        req.Type,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resource)
}

// DeleteResource handles DELETE /api/v1/libraries/:goalId/resources/:resourceId
// @Summary Delete a resource
// @Tags libraries
// @Security BearerAuth
// @Param goalId path int true "Goal ID"
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /libraries/{goalId}/resources/{resourceId} [delete]
func (s *Server) DeleteResource(c *fiber.Ctx) error {
	goalID, err := s.parseID(c, "goalId")
	if err != nil {
		return nil
	}

	if err := s.libraryService.DeleteResource(c.UserContext(), currentUserID(c), goalID, c.Params("resourceId")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Resource deleted successfully"})
}
