package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go-silversense/db"
	"go-silversense/guidance"
	"go-silversense/intent"
	"go-silversense/processor"
	"go-silversense/sound"
	"go-silversense/types"

	"github.com/gin-gonic/gin"
)

// maxUpload bounds audio and CSV uploads.
const maxUpload = 32 << 20

type analyzeRequest struct {
	STTText         json.RawMessage `json:"stt_text"`
	SoundEvent      *string         `json:"sound_event"`
	SoundConfidence *float64        `json:"sound_confidence"`
	Source          string          `json:"source"`
}

func resultBody(res processor.Result) gin.H {
	body := gin.H{
		"id":        res.ID,
		"situation": res.Situation,
		"guideline": res.Guideline,
		"degraded":  res.Degraded,
	}
	if res.Audit != nil {
		body["audit"] = res.Audit
	}
	return body
}

// AnalyzeHandler fuses an already transcribed request with a sound label.
func AnalyzeHandler(c *gin.Context, p *processor.Pipeline) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := processor.TextInput{Text: intent.CoerceText(req.STTText)}
	if req.SoundEvent != nil {
		in.Event = *req.SoundEvent
	}
	if req.SoundConfidence != nil {
		in.Confidence = *req.SoundConfidence
	}
	if req.Source != "" {
		src, err := types.ParseSource(req.Source)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in.Source = src
	}

	res, err := p.AnalyzeText(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, sound.ErrUnknownEvent) || errors.Is(err, sound.ErrConfidenceOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error analyzing request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze request"})
		return
	}
	c.JSON(http.StatusOK, resultBody(res))
}

// AnalyzeAudioHandler stores the uploaded WAV in a temp file for the
// duration of the request and runs the full audio pipeline on it.
func AnalyzeAudioHandler(c *gin.Context, p *processor.Pipeline) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != "" && ext != ".wav" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .wav uploads are supported"})
		return
	}

	tmp, err := os.CreateTemp("", "silversense-*.wav")
	if err != nil {
		log.Printf("Error creating temp file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer os.Remove(tmp.Name())

	src, err := fh.Open()
	if err != nil {
		tmp.Close()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	_, err = io.Copy(tmp, src)
	src.Close()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Printf("Error writing upload to %s: %v", tmp.Name(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	res := p.AnalyzeAudio(c.Request.Context(), tmp.Name(), types.SourceRealtime)
	c.JSON(http.StatusOK, resultBody(res))
}

type askRequest struct {
	Question  string                 `json:"question"`
	Situation *types.SituationRecord `json:"situation"`
}

// AskHandler answers a follow-up question about an echoed situation.
func AskHandler(c *gin.Context, p *processor.Pipeline) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if req.Situation == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "situation is required"})
		return
	}
	if err := req.Situation.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer := p.Ask(c.Request.Context(), req.Question, *req.Situation)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// GuidanceHandler returns the canned guidance for a situation id.
func GuidanceHandler(c *gin.Context) {
	id, err := types.ParseSituationID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"situation_id":    id,
		"situation_label": id.Label(),
		"guideline":       guidance.GuidanceFor(id),
	})
}

// ListSituationsHandler returns the newest stored situations.
func ListSituationsHandler(c *gin.Context, p *processor.Pipeline) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := p.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Error fetching situations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch situations"})
		return
	}
	if items == nil {
		items = []db.StoredSituation{}
	}
	c.JSON(http.StatusOK, gin.H{"situations": items, "count": len(items)})
}

// GetSituationHandler returns one stored situation.
func GetSituationHandler(c *gin.Context, p *processor.Pipeline) {
	st, err := p.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "situation not found"})
			return
		}
		log.Printf("Error fetching situation %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch situation"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// BatchHandler runs an uploaded text,event,confidence CSV through the
// pipeline with the batch_dataset source.
func BatchHandler(c *gin.Context, p *processor.Pipeline) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	rows, err := processor.ReadCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := p.RunBatch(c.Request.Context(), rows)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
