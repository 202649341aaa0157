package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

// StreamCollection sends a "snapshot" server-sent event with the whole
// collection now and after every change. Read failures are sent as
// "error" events and the stream stays open.
func (h *Handler) StreamCollection(c *gin.Context) {
	session := h.session(c)
	ctx := c.Request.Context()

	var err error
	switch c.Param("collection") {
	case store.CollectionCustomers:
		var stream *repositories.Stream[models.Customer]
		if stream, err = repositories.NewCustomerRepository(session).Watch(ctx); err == nil {
			serveStream(c, stream, func(items []models.Customer) any { return items })
		}
	case store.CollectionJobs:
		var stream *repositories.Stream[models.Job]
		if stream, err = repositories.NewJobRepository(session).Watch(ctx); err == nil {
			serveStream(c, stream, func(items []models.Job) any { return items })
		}
	case store.CollectionProfile:
		var stream *repositories.Stream[models.TenantProfile]
		if stream, err = repositories.NewProfileRepository(session).Watch(ctx); err == nil {
			serveStream(c, stream, func(items []models.TenantProfile) any {
				if len(items) == 0 {
					return repositories.DefaultProfile()
				}
				return items[0]
			})
		}
	default:
		utils.RespondWithError(c, http.StatusNotFound, "Unknown collection")
		return
	}
	if err != nil {
		respondError(c, err)
	}
}

func serveStream[T any](c *gin.Context, stream *repositories.Stream[T], payload func([]T) any) {
	defer stream.Close()
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		items, err := stream.Next(ctx)
		switch {
		case err == nil:
			c.SSEvent("snapshot", payload(items))
			return true
		case errors.Is(err, store.ErrSubscriptionEnded),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return false
		default:
			c.SSEvent("error", gin.H{"error": err.Error()})
			return true
		}
	})
}
