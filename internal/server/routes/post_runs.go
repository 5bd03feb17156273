package routes

import (
	"encoding/json"
	"net/http"

	"github.com/csmizzle/conductor/internal/db"
	"github.com/csmizzle/conductor/internal/queue"
	"github.com/csmizzle/conductor/internal/server/middleware"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// CreateRunHandler submits a new research run and enqueues it for the worker.
func CreateRunHandler(c echo.Context) error {
	type tripleTypeBody struct {
		Source       string `json:"source" validate:"required,oneof=PERSON COMPANY LOCATION PRODUCT EVENT CONCEPT"`
		Relationship string `json:"relationship" validate:"required,oneof=EMPLOYEE FOUNDER SUBSIDIARY PARENT_COMPANY ACQUIRED LOCATED_IN PARTNER INVESTOR CUSTOMER COMPETITOR PRODUCES"`
		Target       string `json:"target" validate:"required,oneof=PERSON COMPANY LOCATION PRODUCT EVENT CONCEPT"`
	}

	type createRunBody struct {
		Specification string           `json:"specification" validate:"required"`
		TripleTypes   []tripleTypeBody `json:"triple_types" validate:"required,min=1,dive"`
	}

	type createRunResponse struct {
		Message string          `json:"message"`
		Run     *db.ResearchRun `json:"run,omitempty"`
	}

	data := new(createRunBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	tripleTypes := make([]common.TripleType, 0, len(data.TripleTypes))
	for _, tt := range data.TripleTypes {
		tripleTypes = append(tripleTypes, common.TripleType{
			Source:       common.EntityType(tt.Source),
			Relationship: common.RelationshipType(tt.Relationship),
			Target:       common.EntityType(tt.Target),
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	store := db.NewStore(conn)

	run, err := store.CreateRun(ctx, data.Specification, tripleTypes)
	if err != nil {
		logger.Error("Failed to create research run", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	msg, err := json.Marshal(queue.ResearchRunMsg{RunID: run.ID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ResearchQueue, msg); err != nil {
		logger.Error("Failed to publish to research_queue", "run_id", run.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, createRunResponse{
		Message: "Research run created",
		Run:     run,
	})
}
