package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/quickbite-backend/api/responses"
	"github.com/angelmondragon/quickbite-backend/internal/cron"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
)

// SweepRunner runs one sweeper cycle on demand.
type SweepRunner interface {
	RunOnce(ctx context.Context) (*cron.Summary, error)
}

// AdminRunSweep triggers a sweep and returns its summary. A sweep held by another
// replica reports skipped=true rather than failing.
func AdminRunSweep(runner SweepRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sweeper unavailable"))
			return
		}

		summary, err := runner.RunOnce(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "run sweep"))
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
