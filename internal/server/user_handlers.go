package server

import (
	"devhabit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullname"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullname"`
	Password *string `json:"password"`
}

// Register handles POST /api/v1/users/register
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,fullname=string,password=string} true "Registration"
// @Success 201 {object} object{message=string,userId=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// Login handles POST /api/v1/users/login
// @Summary Log in
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{message=string,token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged in successfully",
		"token":   token,
	})
}

// UpdateUser handles PUT /api/v1/users/update/:userId
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param request body object{username=string,email=string,fullname=string,password=string} true "Fields to change"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/update/{userId} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req updateUserRequest
	if err := parseStrictBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateUser(c.UserContext(), userID, service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser handles DELETE /api/v1/users/delete/:userId
// @Summary Delete a user with their goals and libraries
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/delete/{userId} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteUser(c.UserContext(), userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// Logout handles POST /api/v1/users/logout
// @Summary Revoke the current session
// @Tags users
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.userService.Logout(c.UserContext(), currentUserID(c), currentToken(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// LogoutAll handles POST /api/v1/users/logoutAll
// @Summary Revoke every session of the current user
// @Tags users
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logoutAll [post]
func (s *Server) LogoutAll(c *fiber.Ctx) error {
	if err := s.userService.LogoutAll(c.UserContext(), currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out from all sessions successfully"})
}
