package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"newsdigest/types"
)

const feedTitle = "AIニュースダイジェスト"

// RegisterDigestRoutes registers run control and digest output endpoints
func RegisterDigestRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api/digest")
	g.POST("/run", s.handleRun)
	g.GET("/status", s.handleStatus)
	g.GET("/feed.xml", s.handleFeed)
}

// handleRun starts a run and returns 202 Accepted, or 409 if one is active
func (s *Server) handleRun(c *gin.Context) {
	if !s.Trigger("api") {
		c.JSON(http.StatusConflict, gin.H{
			"status": "busy",
			"state":  s.state.GetState(),
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.GetStatus())
}

// handleFeed renders the latest digest, then its articles, as RSS
func (s *Server) handleFeed(c *gin.Context) {
	self := "http://" + c.Request.Host + c.Request.URL.Path
	rss, err := buildFeed(s.state.LastRun(), self).ToRss()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func buildFeed(report *types.RunReport, self string) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       feedTitle,
		Link:        &feeds.Link{Href: self},
		Description: "Daily AI news digest",
		Created:     time.Now(),
	}
	if report == nil {
		return feed
	}

	feed.Created = report.StartedAt
	feed.Updated = report.FinishedAt
	feed.Items = append(feed.Items, &feeds.Item{
		Id:          report.RunID,
		Title:       report.StartedAt.Format(time.DateOnly) + " " + feedTitle,
		Link:        &feeds.Link{Href: self},
		Description: report.Digest,
		Created:     report.StartedAt,
	})
	for _, a := range report.Articles {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          a.ID,
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.Link},
			Source:      &feeds.Link{Href: a.Link},
			Author:      &feeds.Author{Name: a.Source},
			Description: a.Summary,
			Created:     a.PublishedAt,
		})
	}
	return feed
}
