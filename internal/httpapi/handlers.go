package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnah/yt-transcript/internal/format"
	"github.com/alnah/yt-transcript/internal/transcript"
)

type successBody struct {
	Success bool              `json:"success"`
	Data    transcript.Result `json:"data"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthBody struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthBody{Message: "YouTube Transcript API server is running", Version: s.version})
}

func (s *Server) handleTranscript(c *gin.Context) {
	out, err := format.ParseOutput(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var req transcript.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.URL == "" && req.VideoID == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "You must provide a video URL or video ID"})
		return
	}

	res, err := s.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		kind := transcript.KindOf(err)
		s.logger.Warn("transcript request failed",
			"request_id", c.GetString(requestIDKey), "kind", kind.String(), "error", err)
		s.fail(c, statusFor(kind), kind.Message(), err)
		return
	}

	if out == format.JSON {
		c.JSON(http.StatusOK, successBody{Success: true, Data: res})
		return
	}

	var buf bytes.Buffer
	if err := format.Render(&buf, out, res); err != nil {
		s.fail(c, http.StatusInternalServerError, transcript.KindInternal.Message(), err)
		return
	}
	c.Data(http.StatusOK, out.ContentType(), buf.Bytes())
}

// fail writes an error envelope. Details are only exposed in development mode.
func (s *Server) fail(c *gin.Context, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if s.development && err != nil {
		body.Details = err.Error()
	}
	c.JSON(status, body)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(k transcript.Kind) int {
	switch k {
	case transcript.KindInvalidInput:
		return http.StatusBadRequest
	case transcript.KindVideoUnavailable, transcript.KindNoCaptions:
		return http.StatusNotFound
	case transcript.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
