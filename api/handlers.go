package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/node"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// SubmittedMessage is the body of a successful POST /operations.
const SubmittedMessage = "Operation submitted"

// OperationRequest is the body of POST /operations.
type OperationRequest struct {
	// Data is the hex encoded operation.
	Data string `json:"data"`
}

// ErrorResponse is the body of every failed JSON request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HashResponse is the body of GET /state/hash.
type HashResponse struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// DebugLine is one kernel debug line.
type DebugLine struct {
	Level uint32 `json:"level"`
	Text  string `json:"text"`
	Time  string `json:"time"`
}

// OutboxMessage is one recorded outbox message, payload hex encoded.
type OutboxMessage struct {
	Level   uint32 `json:"level"`
	Index   uint32 `json:"index"`
	Payload string `json:"payload"`
}

// DecodeOperation decodes the hex form of an operation. A 0x prefix is accepted.
func DecodeOperation(data string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(data), "0x"))
}

func (s *Server) handlePostOperation(c *fiber.Ctx) error {
	var req OperationRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	op, err := DecodeOperation(req.Data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "data is not valid hex"})
	}

	ctx := c.UserContext()
	if s.config.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SubmitTimeout)
		defer cancel()
	}

	if err := s.backend.Submit(ctx, op); err != nil {
		status := submitStatus(err)
		s.logger.Error("failed to submit operation", zap.Int("status", status), zap.Error(err))
		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}

	s.logger.Debug("operation submitted", zap.Int("bytes", len(op)))
	return c.SendString(SubmittedMessage)
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, node.ErrClosed):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleGetState(c *fiber.Ctx) error {
	path := c.Query("path")
	value, ok, err := s.backend.GetState(c.UserContext(), path)
	if err != nil {
		return s.storeError(c, "state", path, err)
	}
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendString(hex.EncodeToString(value))
}

func (s *Server) handleGetSubkeys(c *fiber.Ctx) error {
	path := c.Query("path")
	keys, err := s.backend.GetSubkeys(c.UserContext(), path)
	if err != nil {
		return s.storeError(c, "subkeys", path, err)
	}
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(keys)
}

func (s *Server) handleGetStateHash(c *fiber.Ctx) error {
	path := c.Query("path", pathtree.Root)
	hash, err := s.backend.StateHash(c.UserContext(), path)
	if err != nil {
		return s.storeError(c, "state hash", path, err)
	}
	return c.JSON(HashResponse{Path: path, Hash: hash})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.backend.Status())
}

func (s *Server) handleDebug(c *fiber.Ctx) error {
	lines := s.backend.Journal().Debug()
	out := make([]DebugLine, len(lines))
	for i, l := range lines {
		out[i] = DebugLine{Level: l.Level, Text: l.Text, Time: l.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00")}
	}
	return c.JSON(out)
}

func (s *Server) handleOutbox(c *fiber.Ctx) error {
	msgs := s.backend.Journal().Outbox()
	out := make([]OutboxMessage, len(msgs))
	for i, m := range msgs {
		out[i] = OutboxMessage{Level: m.Level, Index: m.Index, Payload: hex.EncodeToString(m.Payload)}
	}
	return c.JSON(out)
}

// storeError answers 400 for malformed paths and 500 for everything else.
func (s *Server) storeError(c *fiber.Ctx, what, path string, err error) error {
	if errors.Is(err, pathtree.ErrInvalidPath) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	s.logger.Error("failed to read "+what, zap.String("path", path), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read " + what})
}
