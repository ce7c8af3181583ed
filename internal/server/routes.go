/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cinepitch/internal/domain"
	"cinepitch/internal/export"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
	"cinepitch/internal/studio"
)

func (s *Server) routes(e *gin.Engine) {
	e.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/ws", s.notifications)

	api := e.Group("/api")
	api.GET("/project", s.getProject)
	api.PATCH("/project", s.patchProject)

	api.GET("/slides", s.listSlides)
	api.POST("/slides", s.addSlide)
	api.POST("/slides/move", s.moveSlide)
	api.PUT("/slides/active", s.setActiveSlide)
	api.PATCH("/slides/:id", s.patchSlide)
	api.DELETE("/slides/:id", s.deleteSlide)

	registerCollection(api, "/characters", s.st, project.Characters)
	registerCollection(api, "/posters", s.st, project.Posters)
	registerCollection(api, "/scenes", s.st, project.Scenes)
	registerCollection(api, "/cast", s.st, project.Cast)
	registerCollection(api, "/crew", s.st, project.Crew)
	registerCollection(api, "/vault", s.st, project.Vault)
	registerCollection(api, "/budget", s.st, project.Budget)
	registerCollection(api, "/audio", s.st, project.AudioAssets)
	registerCollection(api, "/videos", s.st, project.Videos)
	registerCollection(api, "/locations", s.st, project.Locations)
	registerCollection(api, "/beats", s.st, project.Beats)

	api.POST("/start", s.start)
	api.POST("/reset", s.reset)
	api.POST("/undo", s.undo)
	api.POST("/redo", s.redo)
	api.GET("/resume", s.resumeStatus)
	api.POST("/resume", s.resume)
	api.GET("/export", s.exportProject)
	api.POST("/import", s.importProject)
	api.GET("/budget.csv", s.budgetCSV)
	api.GET("/deck.pdf", s.deckPDF)
	api.GET("/vault/filter/:filter", s.filterVault)
	api.POST("/vault/upload", s.uploadVault)

	api.POST("/apikey", s.saveAPIKey)
	api.GET("/notifications", s.listNotifications)
	api.DELETE("/notifications/:id", s.dismissNotification)

	gen := api.Group("/generate")
	gen.POST("/slides/:id/image", s.generateByID(s.st.GenerateSlideImage))
	gen.POST("/characters/:id/portrait", s.generateByID(s.st.GenerateCharacterPortrait))
	gen.POST("/scenes/:id/image", s.generateByID(s.st.GenerateSceneImage))
	gen.POST("/posters/:id/image", s.generateByID(s.st.GeneratePosterImage))
	gen.POST("/budget", s.estimateBudget)
	gen.POST("/roadmap", s.generateRoadmap)
	gen.POST("/locations", s.findLocations)
	gen.POST("/twists", s.suggestTwists)
	gen.POST("/twists/apply", s.applyTwist)
	gen.POST("/voiceover", s.voiceOver)
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
}

func (s *Server) snapshot() projectio.Snapshot {
	st := s.st.Model().Snapshot()
	return projectio.New(st.Doc, st.ActiveSlideID)
}

func (s *Server) getProject(c *gin.Context) { c.JSON(http.StatusOK, s.snapshot()) }

// patchProject replaces the ProjectInfo fields named in the body.
func (s *Server) patchProject(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.st.Model().PatchInfo(func(p *domain.ProjectInfo) error {
		if err := p.ApplyJSON(body); err != nil {
			return fmt.Errorf("%w: %w", project.ErrInvalid, err)
		}
		return nil
	}); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.st.Model().Info())
}

func (s *Server) listSlides(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slides": project.List(s.st.Model(), project.Slides), "activeSlideId": s.st.Model().ActiveSlideID()})
}

func (s *Server) addSlide(c *gin.Context) {
	var sl domain.Slide
	if err := c.ShouldBindJSON(&sl); err != nil {
		badRequest(c, err)
		return
	}
	added, err := s.st.Model().AddSlide(sl)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) patchSlide(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := s.st.Model().UpdateSlide(id, func(sl *domain.Slide) error { return unmarshalInvalid(body, sl) }); err != nil {
		fail(c, err)
		return
	}
	sl, _ := project.Find(s.st.Model(), project.Slides, id)
	c.JSON(http.StatusOK, sl)
}

func (s *Server) deleteSlide(c *gin.Context) {
	if err := s.st.Model().RemoveSlide(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) moveSlide(c *gin.Context) {
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.From == nil || req.To == nil {
		badRequest(c, fmt.Errorf("from and to are required"))
		return
	}
	if err := s.st.Model().MoveSlide(*req.From, *req.To); err != nil {
		fail(c, err)
		return
	}
	s.listSlides(c)
}

func (s *Server) setActiveSlide(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.st.Model().SetActiveSlide(req.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeSlideId": s.st.Model().ActiveSlideID()})
}

// registerCollection wires list, create, patch and delete for one asset collection.
func registerCollection[T any](g *gin.RouterGroup, path string, st *studio.Studio, coll project.Collection[T]) {
	g.GET(path, func(c *gin.Context) {
		c.JSON(http.StatusOK, project.List(st.Model(), coll))
	})
	g.POST(path, func(c *gin.Context) {
		var item T
		if err := c.ShouldBindJSON(&item); err != nil {
			badRequest(c, err)
			return
		}
		added, err := project.Append(st.Model(), coll, item)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, added)
	})
	g.PATCH(path+"/:id", func(c *gin.Context) {
		body, err := readBody(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		id := c.Param("id")
		if err := project.Update(st.Model(), coll, id, func(it *T) error { return unmarshalInvalid(body, it) }); err != nil {
			fail(c, err)
			return
		}
		it, _ := project.Find(st.Model(), coll, id)
		c.JSON(http.StatusOK, it)
	})
	g.DELETE(path+"/:id", func(c *gin.Context) {
		if err := project.Remove(st.Model(), coll, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func unmarshalInvalid(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", project.ErrInvalid, err)
	}
	return nil
}

func (s *Server) start(c *gin.Context) {
	var req struct {
		Tab studio.Tab `json:"tab"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := s.st.StartProject(req.Tab); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) reset(c *gin.Context) {
	if err := s.st.Reset(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) undo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"applied": s.st.Model().Undo()})
}

func (s *Server) redo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"applied": s.st.Model().Redo()})
}

func (s *Server) resumeStatus(c *gin.Context) {
	in, tab := s.st.InStudio()
	c.JSON(http.StatusOK, gin.H{"hasSavedProject": s.st.HasSavedProject(), "inStudio": in, "tab": tab})
}

func (s *Server) resume(c *gin.Context) {
	if err := s.st.Resume(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) exportProject(c *gin.Context) {
	b, name, err := s.st.Export()
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json", b)
}

func (s *Server) importProject(c *gin.Context) {
	if err := s.st.Import(io.LimitReader(c.Request.Body, maxBodySize)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) budgetCSV(c *gin.Context) {
	var buf bytes.Buffer
	name, err := s.st.WriteBudgetCSV(&buf)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) deckPDF(c *gin.Context) {
	doc := s.st.CurrentDocument()
	var buf bytes.Buffer
	if _, err := export.WriteDeckPDF(&buf, doc, export.DefaultDeckOptions()); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DeckFileName(doc.Info.Title)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) filterVault(c *gin.Context) {
	items := project.List(s.st.Model(), project.Vault)
	c.JSON(http.StatusOK, domain.FilterVault(items, domain.VaultFilter(c.Param("filter"))))
}

// uploadVault accepts a multipart "file" with optional "title" and "description" fields.
func (s *Server) uploadVault(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBodySize))
	if err != nil {
		badRequest(c, err)
		return
	}
	it, err := s.st.AddVaultFile(fh.Filename, fh.Header.Get("Content-Type"), data, c.PostForm("title"), c.PostForm("description"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (s *Server) saveAPIKey(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.st.SaveAPIKey(req.Key); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasApiKey": s.st.HasAPIKey()})
}

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, s.st.Notifications().Active())
}

func (s *Server) dismissNotification(c *gin.Context) {
	if !s.st.Notifications().Dismiss(c.Param("id")) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) generateByID(fn func(ctx context.Context, id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s.snapshot())
	}
}

func (s *Server) estimateBudget(c *gin.Context) {
	var req struct {
		Scale    domain.BudgetScale `json:"scale"`
		Currency domain.Currency    `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.st.EstimateBudget(c.Request.Context(), req.Scale, req.Currency); err != nil {
		fail(c, err)
		return
	}
	info := s.st.Model().Info()
	c.JSON(http.StatusOK, gin.H{
		"items":    info.BudgetItems,
		"total":    domain.BudgetTotal(info.BudgetItems),
		"currency": info.BudgetCurrency,
		"scale":    info.BudgetScale,
	})
}

func (s *Server) generateRoadmap(c *gin.Context) {
	if err := s.st.GenerateRoadmap(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.st.Model().Info().ScriptRoadmap)
}

func (s *Server) findLocations(c *gin.Context) {
	var req struct {
		Requirements string `json:"requirements"`
		Region       string `json:"region"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	found, err := s.st.FindLocations(c.Request.Context(), req.Requirements, req.Region)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": found})
}

func (s *Server) suggestTwists(c *gin.Context) {
	twists, err := s.st.SuggestTwists(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, twists)
}

func (s *Server) applyTwist(c *gin.Context) {
	var t studio.Twist
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.st.ApplyTwist(t); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fullScript": s.st.Model().Info().FullScript})
}

func (s *Server) voiceOver(c *gin.Context) {
	var req struct {
		Text  string `json:"text" binding:"required"`
		Voice string `json:"voice"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Voice == "" {
		req.Voice = "Kore"
	}
	a, err := s.st.GenerateVoiceOver(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}
