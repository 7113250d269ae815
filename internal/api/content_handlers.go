package api

import (
	"net/http"
	"strconv"

	"coachdesk/internal/content"
	"coachdesk/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// GET /stages/:id/content
// Resolves the ordered unified content of a stage. The fallback to the
// legacy schema happens inside the store composition; callers see one shape.
func ResolveStageContentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid stage id"}})
			return
		}
		resolver := content.NewResolver(db.DB)
		items, err := resolver.Resolve(uint(idUint))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to resolve content"}})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

type contentRequest struct {
	Title       string              `json:"title"`
	ContentType content.ContentType `json:"content_type"`
	Position    *int                `json:"position,omitempty"`

	Body               string         `json:"body,omitempty"`
	URL                string         `json:"url,omitempty"`
	Provider           string         `json:"provider,omitempty"`
	ActivityData       datatypes.JSON `json:"activity_data,omitempty"`
	PromptSection      string         `json:"prompt_section,omitempty"`
	SystemInstructions string         `json:"system_instructions,omitempty"`
	Description        string         `json:"description,omitempty"`
	DurationMinutes    int            `json:"duration_minutes,omitempty"`
}

// POST /stages/:id/content  [admin only]
func CreateContentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid stage id"}})
			return
		}
		var req contentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing title"}})
			return
		}
		if _, err := content.StorageTableFor(req.ContentType); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown content type"}})
			return
		}

		writer := content.NewWriter(db.DB)
		entry, err := writer.Create(content.CreateInput{
			ModuleID:           uint(idUint),
			Title:              req.Title,
			ContentType:        req.ContentType,
			Body:               req.Body,
			URL:                req.URL,
			Provider:           req.Provider,
			ActivityData:       req.ActivityData,
			PromptSection:      req.PromptSection,
			SystemInstructions: req.SystemInstructions,
			Description:        req.Description,
			DurationMinutes:    req.DurationMinutes,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create content"}})
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// PUT /content/:id  [admin only]
func UpdateContentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid content id"}})
			return
		}
		var req contentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}

		writer := content.NewWriter(db.DB)
		if err := writer.Update(uint(idUint), req.ContentType, content.UpdateInput{
			Title:              req.Title,
			Position:           req.Position,
			Body:               req.Body,
			URL:                req.URL,
			Provider:           req.Provider,
			ActivityData:       req.ActivityData,
			PromptSection:      req.PromptSection,
			SystemInstructions: req.SystemInstructions,
			Description:        req.Description,
			DurationMinutes:    req.DurationMinutes,
		}); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Content not found"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

// DELETE /content/:id  [admin only]
// The optional id_space query param ("registry" or "storage") states which
// id space the caller holds; registry is assumed when absent.
func DeleteContentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid content id"}})
			return
		}
		ref := content.ContentRef{Space: content.RegistrySpace, ID: uint(idUint)}
		if c.Query("id_space") == "storage" {
			ref.Space = content.StorageSpace
		}

		writer := content.NewWriter(db.DB)
		if err := writer.Delete(ref); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Content not found or delete incomplete"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
