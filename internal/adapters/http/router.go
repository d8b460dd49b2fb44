package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/genudine/ps2-discord-room-bot/internal/app"
	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

const requestIDHeader = "X-Request-ID"

type Pruner interface {
	Prune(ctx context.Context, trigger domain.ChannelID) (*app.PruneReport, error)
}

type Sweeper interface {
	SweepNow(ctx context.Context) []app.SweepResult
}

type Deps struct {
	Registry *app.WatchRegistry
	Pruner   Pruner
	Sweeper  Sweeper
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func SetupRouter(mode string, deps Deps) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/watch", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"watch": deps.Registry.Entries()})
	})
	api.POST("/watch/:guild/prune", func(c *gin.Context) {
		guild := domain.GuildID(c.Param("guild"))
		trigger, ok := deps.Registry.Lookup(guild)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "guild is not watched"})
			return
		}
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Str("guild", string(guild)).Msg("manual prune")

		report, err := deps.Pruner.Prune(c.Request.Context(), trigger)
		if err != nil {
			status := http.StatusInternalServerError
			var le *core.LookupError
			if errors.As(err, &le) {
				status = http.StatusBadGateway
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reportJSON(report))
	})
	api.POST("/sweep", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString("request_id")).Msg("manual sweep")
		results := deps.Sweeper.SweepNow(c.Request.Context())
		out := make([]gin.H, 0, len(results))
		for _, res := range results {
			item := gin.H{"guild_id": res.Entry.GuildID}
			if res.Err != nil {
				item["error"] = res.Err.Error()
			} else {
				item["report"] = reportJSON(res.Report)
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, gin.H{"results": out})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func reportJSON(r *app.PruneReport) gin.H {
	failed := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		failed = append(failed, f.Error())
	}
	return gin.H{
		"trigger":  r.Trigger,
		"category": r.Category,
		"checked":  r.Checked,
		"deleted":  r.Deleted,
		"gone":     r.Gone,
		"failed":   failed,
	}
}
