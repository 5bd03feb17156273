package routes

import (
	"errors"
	"net/http"

	"github.com/csmizzle/conductor/internal/db"
	"github.com/csmizzle/conductor/internal/server/middleware"
	"github.com/csmizzle/conductor/internal/storage"
	"github.com/csmizzle/conductor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteRunHandler deletes a run, its stored graph and its S3 export.
func DeleteRunHandler(c echo.Context) error {
	type deleteRunParams struct {
		ID string `param:"id" validate:"required"`
	}

	type deleteRunResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteRunResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteRunResponse{
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
			return c.JSON(http.StatusNotFound, deleteRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to get research run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteRunResponse{
			Message: "Internal server error",
		})
	}

	if err := store.DeleteRun(ctx, params.ID); err != nil {
		logger.Error("Failed to delete research run", "run_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteRunResponse{
			Message: "Internal server error",
		})
	}

	if run.ExportKey != "" {
		s3Client := c.(*middleware.AppContext).App.S3
		if err := storage.DeleteFile(ctx, s3Client, run.ExportKey); err != nil {
			logger.Warn("Failed to delete graph export", "run_id", params.ID, "key", run.ExportKey, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteRunResponse{
		Message: "Run deleted",
	})
}
