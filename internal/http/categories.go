package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
)

func typeFilter(c *gin.Context) models.TransactionType {
	return models.TransactionType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
}

func (s *Server) listClassifications(c *gin.Context) {
	list, err := s.Registry.ListClassifications(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, list)
}

type classificationBody struct {
	Name string `json:"name"`
}

func (s *Server) createClassification(c *gin.Context) {
	var body classificationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	cls, err := s.Registry.AddClassification(c.Request.Context(), body.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, cls)
}

func (s *Server) updateClassification(c *gin.Context) {
	var body classificationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	cls, err := s.Registry.UpdateClassification(c.Request.Context(), c.Param("id"), body.Name)
	if err != nil {
		fail(c, err)
		return
	}
	if cls == nil {
		c.JSON(404, gin.H{"error": "classification_not_found"})
		return
	}
	c.JSON(200, cls)
}

func (s *Server) deleteClassification(c *gin.Context) {
	if err := s.Registry.DeleteClassification(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "classification deleted"})
}

// GET /v1/categories?type=INCOME|EXPENSE
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.Registry.ListCategories(c.Request.Context(), typeFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, cats)
}

func (s *Server) groupedCategories(c *gin.Context) {
	groups, err := s.Registry.GroupCategories(c.Request.Context(), typeFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, groups)
}

func (s *Server) createCategory(c *gin.Context) {
	var input registry.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := s.Registry.AddCategory(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, cat)
}

func (s *Server) updateCategory(c *gin.Context) {
	var patch registry.CategoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := s.Registry.UpdateCategory(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	if cat == nil {
		c.JSON(404, gin.H{"error": "category_not_found"})
		return
	}
	c.JSON(200, cat)
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.Registry.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "category deleted"})
}
