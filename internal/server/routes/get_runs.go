package routes

import (
	"errors"
	"net/http"

	"github.com/csmizzle/conductor/internal/db"
	"github.com/csmizzle/conductor/internal/server/middleware"
	"github.com/csmizzle/conductor/internal/storage"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetRunHandler returns a run's current status.
func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getRunResponse struct {
		Message string          `json:"message"`
		Run     *db.ResearchRun `json:"run,omitempty"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	store := db.NewStore(conn)

	run, err := store.GetRun(ctx, params.ID)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, getRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to get research run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunResponse{
		Message: "OK",
		Run:     run,
	})
}

// GetRunGraphHandler returns the deduplicated graph of a completed run,
// plus a presigned download link for the JSON export when one exists.
func GetRunGraphHandler(c echo.Context) error {
	type getGraphParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getGraphResponse struct {
		Message      string                      `json:"message"`
		Graph        *common.AggregatedCitedGraph `json:"graph,omitempty"`
		DownloadLink string                      `json:"download_link,omitempty"`
	}

	params := new(getGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getGraphResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getGraphResponse{
			Message: "Invalid request params",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	store := db.NewStore(conn)

	run, err := store.GetRun(ctx, params.ID)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, getGraphResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to get research run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}

	if run.Status != db.RunStatusCompleted {
		return c.JSON(http.StatusConflict, getGraphResponse{
			Message: "Run is not completed",
		})
	}

	graph, err := store.GetGraph(ctx, params.ID)
	if err != nil {
		logger.Error("Failed to get research graph", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}

	resp := getGraphResponse{
		Message: "OK",
		Graph:   graph,
	}

	if run.ExportKey != "" {
		s3Client := c.(*middleware.AppContext).App.S3
		link, err := storage.GenerateDownloadLink(ctx, s3Client, run.ExportKey)
		if err != nil {
			logger.Warn("Failed to generate download link", "run_id", params.ID, "err", err)
		} else {
			resp.DownloadLink = link
		}
	}

	return c.JSON(http.StatusOK, resp)
}
