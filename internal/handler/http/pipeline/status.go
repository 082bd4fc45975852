package pipeline

import (
	"net/http"
	"time"

	"newsmood/internal/handler/http/respond"
	"newsmood/internal/repository"
)

// StatusHandler reports the pipeline's article counts and the time of
// the last discovery run.
type StatusHandler struct {
	Repo     repository.ArticleRepository
	Tracker  *Tracker
	Location *time.Location
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.Repo.CountAll(ctx)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	now := time.Now().In(h.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.Location)
	today, err := h.Repo.CountCrawledSince(ctx, midnight)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	pending, err := h.Repo.CountPending(ctx)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := StatusDTO{
		TotalArticles:   total,
		ArticlesToday:   today,
		PendingArticles: pending,
	}
	if last, ok := h.Tracker.Last(); ok {
		out.LastCheck = last.In(h.Location).Format(time.RFC3339)
	}

	respond.JSON(w, http.StatusOK, out)
}
