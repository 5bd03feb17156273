package routes

import (
	"net/http"

	"github.com/csmizzle/conductor/internal/db"
	"github.com/csmizzle/conductor/internal/server/middleware"
	"github.com/csmizzle/conductor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AddPassageHandler indexes one evidence passage for the database-backed
// retriever: the passage is embedded and stored with its citation.
func AddPassageHandler(c echo.Context) error {
	type addPassageBody struct {
		Content  string `json:"content" validate:"required"`
		Citation string `json:"citation" validate:"required"`
	}

	type addPassageResponse struct {
		Message   string `json:"message"`
		PassageID string `json:"passage_id,omitempty"`
	}

	data := new(addPassageBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, addPassageResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, addPassageResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	aiClient := c.(*middleware.AppContext).App.AiClient

	embedding, err := aiClient.GenerateEmbedding(ctx, []byte(data.Content))
	if err != nil {
		logger.Error("Failed to embed passage", "err", err)
		return c.JSON(http.StatusInternalServerError, addPassageResponse{
			Message: "Internal server error",
		})
	}

	conn := c.(*middleware.AppContext).App.DBConn
	store := db.NewStore(conn)

	passageID, err := store.AddPassage(ctx, data.Content, data.Citation, embedding)
	if err != nil {
		logger.Error("Failed to store passage", "err", err)
		return c.JSON(http.StatusInternalServerError, addPassageResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, addPassageResponse{
		Message:   "Passage indexed",
		PassageID: passageID,
	})
}
