package workspace

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/api/response"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/service"
)

// Handler handles project, conversation, file, export and search requests
type Handler struct {
	projectService *service.ProjectService
	fileService    *service.FileService
	exportService  *service.ExportService
	searchService  *service.SearchService
}

// NewHandler creates a new workspace handler
func NewHandler(
	projectService *service.ProjectService,
	fileService *service.FileService,
	exportService *service.ExportService,
	searchService *service.SearchService,
) *Handler {
	return &Handler{
		projectService: projectService,
		fileService:    fileService,
		exportService:  exportService,
		searchService:  searchService,
	}
}

// RegisterRoutes registers workspace routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
	}

	conversations := r.Group("/conversations")
	{
		conversations.GET("/project/:project_id", h.ListConversations)
		conversations.POST("", h.CreateConversation)
		conversations.GET("/:id", h.GetConversation)
		conversations.PUT("/:id", h.UpdateConversation)
		conversations.DELETE("/:id", h.DeleteConversation)
	}

	files := r.Group("/files")
	{
		files.GET("/project/:project_id", h.ListFiles)
		files.POST("/upload/:project_id", h.UploadFile)
		files.GET("/:id", h.GetFile)
		files.GET("/:id/summary", h.GetFileSummary)
		files.DELETE("/:id", h.DeleteFile)
	}

	export := r.Group("/export")
	{
		export.POST("/pdf/:conversation_id", h.exportAs(service.ExportPDF))
		export.POST("/docx/:conversation_id", h.exportAs(service.ExportDOCX))
	}

	r.GET("/search", h.Search)
}

// Project handlers

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(projects))
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req domain.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var req domain.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := h.projectService.DeleteProject(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted", "id": id})
}

// Conversation handlers

func (h *Handler) ListConversations(c *gin.Context) {
	conversations, err := h.projectService.ListConversations(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(conversations))
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req domain.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	conversation, err := h.projectService.CreateConversation(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (h *Handler) GetConversation(c *gin.Context) {
	detail, err := h.projectService.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateConversation(c *gin.Context) {
	var req domain.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	conversation, err := h.projectService.UpdateConversation(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if err := h.projectService.DeleteConversation(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted", "id": id})
}

// File handlers

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.fileService.ListFiles(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(files))
}

func (h *Handler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	record, err := h.fileService.Upload(c.Request.Context(), c.Param("project_id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetFile(c *gin.Context) {
	file, err := h.fileService.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *Handler) GetFileSummary(c *gin.Context) {
	summary, err := h.fileService.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	id := c.Param("id")
	if err := h.fileService.DeleteFile(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted", "id": id})
}

// Export handlers

func (h *Handler) exportAs(format service.ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.ExportRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, err)
				return
			}
		}

		doc, err := h.exportService.Export(c.Request.Context(), c.Param("conversation_id"), format, req.IncludeFiles)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
		c.Data(http.StatusOK, doc.ContentType, doc.Data)
	}
}

// Search handlers

func (h *Handler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	results := h.searchService.Search(c.Request.Context(), c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": results})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
