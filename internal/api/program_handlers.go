package api

import (
	"net/http"
	"strconv"
	"time"

	"coachdesk/internal/db"
	"coachdesk/internal/program"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /programs  [admin only]
func CreateProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing title"}})
			return
		}
		p := program.Program{
			Title:       req.Title,
			Description: req.Description,
			Status:      "draft",
			CreatedAt:   time.Now(),
		}
		if err := db.DB.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create program"}})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// GET /programs
func ListProgramsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var programs []program.Program
		if err := db.DB.Order("created_at desc").Find(&programs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch programs"}})
			return
		}
		c.JSON(http.StatusOK, programs)
	}
}

// GET /programs/:id
func GetProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid program id"}})
			return
		}
		var p program.Program
		if err := db.DB.First(&p, idUint).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Program not found"}})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch program"}})
			}
			return
		}
		var stages []program.Stage
		if err := db.DB.Where("program_id = ?", p.ID).Order("position asc").Find(&stages).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch stages"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"program": p, "stages": stages})
	}
}

// PUT /programs/:id  [admin only]
func UpdateProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid program id"}})
			return
		}
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		var p program.Program
		if err := db.DB.First(&p, idUint).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Program not found"}})
			return
		}
		if req.Title != "" {
			p.Title = req.Title
		}
		if req.Description != "" {
			p.Description = req.Description
		}
		if req.Status == "draft" || req.Status == "published" {
			p.Status = req.Status
		}
		if err := db.DB.Save(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to update program"}})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// DELETE /programs/:id  [admin only]
func DeleteProgramHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid program id"}})
			return
		}
		var p program.Program
		if err := db.DB.First(&p, idUint).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Program not found"}})
			return
		}
		if err := db.DB.Where("program_id = ?", p.ID).Delete(&program.Stage{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to delete stages"}})
			return
		}
		if err := db.DB.Delete(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to delete program"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// POST /programs/:id/stages  [admin only]
func CreateStageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid program id"}})
			return
		}
		var p program.Program
		if err := db.DB.First(&p, idUint).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Program not found"}})
			return
		}
		var req struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing title"}})
			return
		}
		var count int64
		if err := db.DB.Model(&program.Stage{}).Where("program_id = ?", p.ID).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to count stages"}})
			return
		}
		s := program.Stage{
			ProgramID: p.ID,
			Title:     req.Title,
			Position:  int(count),
			CreatedAt: time.Now(),
		}
		if err := db.DB.Create(&s).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create stage"}})
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

// DELETE /stages/:id  [admin only]
func DeleteStageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid stage id"}})
			return
		}
		var s program.Stage
		if err := db.DB.First(&s, idUint).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Stage not found"}})
			return
		}
		if err := db.DB.Delete(&s).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to delete stage"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
