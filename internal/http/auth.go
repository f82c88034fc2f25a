package http

import (
	"github.com/gin-gonic/gin"

	"finance-tracker-go/internal/auth"
)

// POST /v1/auth/register
func (s *Server) authRegister(c *gin.Context) {
	var input auth.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := s.Auth.SignUp(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, sess)
}

// POST /v1/auth/login
func (s *Server) authLogin(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := s.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		s.log.Debug().Str("email", input.Email).Err(err).Msg("login rejected")
		fail(c, err)
		return
	}
	c.JSON(200, sess)
}
