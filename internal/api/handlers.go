package api

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/ChitterSync/SynisterChat/internal/api/middleware"
	"github.com/ChitterSync/SynisterChat/internal/chat"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/gofiber/fiber/v2"
)

// Media generates images and transcribes audio.
type Media interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Handlers serves the /api routes.
type Handlers struct {
	chat  *chat.Service
	media Media
}

// NewHandlers creates Handlers. media may be nil, which disables the image
// and transcription routes.
func NewHandlers(svc *chat.Service, media Media) *Handlers {
	return &Handlers{chat: svc, media: media}
}

// GetStorage returns one session (?id=) or every session keyed by id.
func (h *Handlers) GetStorage(c *fiber.Ctx) error {
	owner := middleware.GetOwner(c)

	if id := c.Query("id"); id != "" {
		rec, err := h.chat.GetSession(c.UserContext(), owner, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": rec})
	}

	list, err := h.chat.ListSessions(c.UserContext(), owner)
	if err != nil {
		return err
	}
	all := make(map[string]*session.Record, len(list))
	for _, rec := range list {
		all[rec.ID] = rec
	}
	return c.JSON(fiber.Map{"data": all})
}

// PostStorage stores a client-supplied session.
func (h *Handlers) PostStorage(c *fiber.Ctx) error {
	var req struct {
		ID   string         `json:"id"`
		Data map[string]any `json:"data"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ID == "" || req.Data == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing id or data")
	}

	if _, err := h.chat.SaveSession(c.UserContext(), middleware.GetOwner(c), req.ID, req.Data); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// DeleteStorage deletes one session (?id=) or all of them.
func (h *Handlers) DeleteStorage(c *fiber.Ctx) error {
	owner := middleware.GetOwner(c)

	var err error
	if id := c.Query("id"); id != "" {
		err = h.chat.DeleteSession(c.UserContext(), owner, id)
	} else {
		err = h.chat.ClearAll(c.UserContext(), owner)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ListSessions returns the owner's sessions, newest first.
func (h *Handlers) ListSessions(c *fiber.Ctx) error {
	list, err := h.chat.ListSessions(c.UserContext(), middleware.GetOwner(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessions": list})
}

// CreateSession starts a new default session.
func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	rec, err := h.chat.CreateSession(c.UserContext(), middleware.GetOwner(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// GetSession returns one session.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	rec, err := h.chat.GetSession(c.UserContext(), middleware.GetOwner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// RenameSession sets a session title.
func (h *Handlers) RenameSession(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	rec, err := h.chat.Rename(c.UserContext(), middleware.GetOwner(c), c.Params("id"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// DeleteSession deletes one session.
func (h *Handlers) DeleteSession(c *fiber.Ctx) error {
	if err := h.chat.DeleteSession(c.UserContext(), middleware.GetOwner(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendMessage runs one chat turn.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	reply, err := h.chat.SendMessage(c.UserContext(), middleware.GetOwner(c), c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(reply)
}

// ResetMemory drops a session's facts.
func (h *Handlers) ResetMemory(c *fiber.Ctx) error {
	rec, err := h.chat.ResetMemory(c.UserContext(), middleware.GetOwner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// ClearHistory resets a session's messages.
func (h *Handlers) ClearHistory(c *fiber.Ctx) error {
	rec, err := h.chat.ClearHistory(c.UserContext(), middleware.GetOwner(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// Complete forwards a caller-built transcript to the model.
func (h *Handlers) Complete(c *fiber.Ctx) error {
	var req struct {
		Messages []session.TranscriptEntry `json:"messages"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	if len(req.Messages) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Missing or invalid messages")
	}

	reply, err := h.chat.Complete(c.UserContext(), req.Messages)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"reply": reply})
}

// GenerateImage renders a prompt as PNG.
func (h *Handlers) GenerateImage(c *fiber.Ctx) error {
	if h.media == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Image generation is not configured")
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing or invalid prompt")
	}

	img, err := h.media.GenerateImage(c.UserContext(), req.Prompt)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}

// Transcribe converts base64 audio to text.
func (h *Handlers) Transcribe(c *fiber.Ctx) error {
	if h.media == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Transcription is not configured")
	}

	var req struct {
		Audio string `json:"audio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	if strings.TrimSpace(req.Audio) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing or invalid audio")
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing or invalid audio")
	}

	text, err := h.media.Transcribe(c.UserContext(), audio)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"text": text})
}
