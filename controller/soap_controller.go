package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/Jatayu-u/Soap-notes-generation-RAG/services"
	"github.com/m-mizutani/goerr/v2"
)

const rootMessage = "SOAP Note Generator API is running"

// statusByKind maps each error kind to the HTTP status it is reported with.
// Kinds missing from the table are reported as 500.
var statusByKind = map[models.ErrorKind]int{
	models.ErrKindValidation:        http.StatusUnprocessableEntity,
	models.ErrKindCorpusUnavailable: http.StatusServiceUnavailable,
	models.ErrKindEmbeddingService:  http.StatusInternalServerError,
	models.ErrKindGenerationService: http.StatusInternalServerError,
	models.ErrKindUnknown:           http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if status, ok := statusByKind[models.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SOAPController handles the HTTP requests of the SOAP note API. It depends on
// the RAGService to perform the actual work.
type SOAPController struct {
	ragService services.RAGService
	service    string
	version    string
}

// NewSOAPController is called from main.go to inject the service dependency.
func NewSOAPController(service services.RAGService, name, version string) *SOAPController {
	return &SOAPController{
		ragService: service,
		service:    name,
		version:    version,
	}
}

// Root is the Gin handler for GET /.
func (c *SOAPController) Root(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.MessageResponse{Message: rootMessage})
}

// Health is the Gin handler for GET /health.
func (c *SOAPController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   c.service,
		Version:   c.version,
		Documents: c.ragService.DocumentCount(),
	})
}

// GenerateSOAPNote is the Gin handler for POST /generate_soap_note.
func (c *SOAPController) GenerateSOAPNote(ctx *gin.Context) {
	var req models.GenerateSOAPNoteRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.fail(ctx, models.NewError(models.ErrKindValidation, goerr.Wrap(err, "invalid request body")))
		return
	}

	note, err := c.ragService.GenerateSOAPNote(ctx.Request.Context(), *req.Conversation)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.GenerateSOAPNoteResponse{SOAPNote: note})
}

func (c *SOAPController) fail(ctx *gin.Context, err error) {
	status := StatusFor(err)
	kind := models.KindOf(err)

	logging.Component(ctx.Request.Context(), "controller").Warn("request failed",
		"path", ctx.Request.URL.Path,
		"status", status,
		"kind", kind.String(),
		"error", err,
	)
	_ = ctx.Error(err)
	ctx.JSON(status, models.ErrorResponse{
		Detail: err.Error(),
		Kind:   kind.String(),
	})
}
