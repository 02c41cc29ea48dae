package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/api/response"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/liliang-cn/captainclaw/internal/service"
)

// Handler handles chat requests
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.POST("/send", h.Send)
		chat.GET("/history/:conversation_id", h.History)
	}
	r.GET("/models", h.Models)
}

// Send answers one chat message
func (h *Handler) Send(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	resp, err := h.chatService.Send(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns the messages of a conversation
func (h *Handler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// Models lists the model aliases and complexity routes
func (h *Handler) Models(c *gin.Context) {
	routes := gin.H{}
	for _, hint := range []string{llm.ComplexitySimple, llm.ComplexityCoding, llm.ComplexityFrontend, llm.ComplexityHard} {
		routes[hint] = llm.SelectModel("", hint)
	}
	c.JSON(http.StatusOK, gin.H{
		"models":     llm.Aliases(),
		"complexity": routes,
		"default":    llm.SelectModel("", ""),
	})
}
