package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"newsmood/internal/handler/http/respond"
	"newsmood/internal/usecase/discover"
)

const crawlTimeout = 25 * time.Minute

// Discoverer runs one discovery pass over the configured sites.
type Discoverer interface {
	Run(ctx context.Context) (discover.Stats, error)
}

// CrawlHandler triggers a discovery run in the background and
// acknowledges immediately. The run outlives the request.
type CrawlHandler struct {
	Svc     Discoverer
	Tracker *Tracker
}

func (h CrawlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), crawlTimeout)
		defer cancel()

		stats, err := h.Svc.Run(ctx)
		if err != nil {
			slog.Error("triggered discovery run failed", slog.Any("error", err))
			return
		}
		if h.Tracker != nil {
			h.Tracker.Touch(time.Now())
		}
		slog.Info("triggered discovery run completed",
			slog.Int("sites", stats.Sites),
			slog.Int("inserted", stats.Inserted),
			slog.Int("duplicated", stats.Duplicated))
	}()

	respond.JSON(w, http.StatusAccepted, AcceptedDTO{Status: "accepted"})
}
