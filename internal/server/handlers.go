package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixeljam/devwatch/internal/host"
)

// Handlers serves the dashboard REST surface.
type Handlers struct {
	registry       *host.Registry
	auth           *host.AuthService
	diags          *host.Diagnostics
	allowedDomains []string
}

// NewHandlers creates the REST handlers.
func NewHandlers(registry *host.Registry, auth *host.AuthService, diags *host.Diagnostics, allowedDomains []string) *Handlers {
	return &Handlers{registry: registry, auth: auth, diags: diags, allowedDomains: allowedDomains}
}

// Root serves basic service identification.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "devwatch-host",
		"status":  "running",
	})
}

// Health serves the liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type frameView struct {
	ID        string         `json:"id"`
	Src       string         `json:"src"`
	Title     string         `json:"title"`
	Connected bool           `json:"connected"`
	Ready     bool           `json:"ready"`
	Health    string         `json:"health"`
	AssetInfo map[string]any `json:"asset_info,omitempty"`
}

func viewOf(frame *host.Frame) frameView {
	return frameView{
		ID:        frame.ID,
		Src:       frame.Config.Src,
		Title:     frame.Adapter.Title(),
		Connected: frame.Adapter.Connected(),
		Ready:     frame.Adapter.Ready(),
		Health:    frame.Health.State().String(),
		AssetInfo: frame.Adapter.AssetInfo(),
	}
}

// ListFrames returns every registered frame.
func (h *Handlers) ListFrames(c *gin.Context) {
	frames := h.registry.List()
	views := make([]frameView, 0, len(frames))
	for _, frame := range frames {
		views = append(views, viewOf(frame))
	}
	c.JSON(http.StatusOK, gin.H{"frames": views})
}

// CreateFrame registers a new guest frame.
func (h *Handlers) CreateFrame(c *gin.Context) {
	var cfg host.FrameConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adapter := h.registry.Create(cfg)
	if adapter == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       "frame creation failed",
			"diagnostics": h.diags.Entries(),
		})
		return
	}
	frame, _ := h.registry.GetByID(adapter.ID())
	c.JSON(http.StatusCreated, viewOf(frame))
}

// GetFrame returns one frame by id.
func (h *Handlers) GetFrame(c *gin.Context) {
	frame, ok := h.registry.GetByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	c.JSON(http.StatusOK, viewOf(frame))
}

// RemoveFrame tears one frame down.
func (h *Handlers) RemoveFrame(c *gin.Context) {
	if !h.registry.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// SetFrameTheme pushes a theme to one guest.
func (h *Handlers) SetFrameTheme(c *gin.Context) {
	adapter, ok := h.registry.AdapterByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	var body struct {
		Theme string `json:"theme" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adapter.SetTheme(body.Theme)
	c.JSON(http.StatusOK, gin.H{"theme": body.Theme})
}

// SetFrameInfoPanel shows or hides a guest's info panel.
func (h *Handlers) SetFrameInfoPanel(c *gin.Context) {
	adapter, ok := h.registry.AdapterByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	var body struct {
		Visible bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := adapter.ShowInfoPanel(body.Visible); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "guest not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visible": body.Visible})
}

// SendFrameMessage delivers an open application message to one guest.
func (h *Handlers) SendFrameMessage(c *gin.Context) {
	adapter, ok := h.registry.AdapterByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	var body struct {
		Type string         `json:"type" binding:"required"`
		Data map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := adapter.Send(body.Type, body.Data); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "guest not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// Login opens a dashboard session.
func (h *Handlers) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.Login(body.Username, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout closes a dashboard session.
func (h *Handlers) Logout(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.auth.Logout(body.Token)
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// VerifyToken checks a dashboard session token.
func (h *Handlers) VerifyToken(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := h.auth.Verify(body.Token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

// AllowedDomains serves the embedder allow-list, so guests launched out of
// band can validate against the same policy the dashboard was deployed with.
func (h *Handlers) AllowedDomains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allowed_domains": h.allowedDomains})
}

// ListDiagnostics returns the append-only frame failure log.
func (h *Handlers) ListDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.diags.Entries()})
}
