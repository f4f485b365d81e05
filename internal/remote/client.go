package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Client is a typed wrapper around the simulation service's HTTP API.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the service rooted at baseURL. A nil
// httpClient selects http.DefaultClient; timeouts come from the contexts
// passed to each call.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type successResponse struct {
	Success *bool `json:"success"`
}

type configResponse struct {
	Success *bool           `json:"success"`
	Config  json.RawMessage `json:"config"`
}

type frameResponse struct {
	WorldData *worldData `json:"world_data"`
	FPS       float64    `json:"fps"`
	IsRunning bool       `json:"is_running"`
}

type worldData struct {
	TrailMap [][]float64    `json:"trail_map"`
	FoodMap  [][]bool       `json:"food_map"`
	Nucleus  *model.Nucleus `json:"nucleus"`
}

type foodRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Config fetches the authoritative configuration.
func (c *Client) Config(ctx context.Context) (model.Config, error) {
	const op = "get config"
	body, err := c.do(ctx, op, http.MethodGet, "/api/config", nil)
	if err != nil {
		return model.Config{}, err
	}
	cfg, err := model.DecodeConfig(body)
	if err != nil {
		return model.Config{}, &InvalidResponseError{Op: op, Reason: "config", Err: err}
	}
	return cfg, nil
}

// SetConfig submits cfg and returns the configuration the service
// actually adopted, which may differ after server-side clamping.
func (c *Client) SetConfig(ctx context.Context, cfg model.Config) (model.Config, error) {
	const op = "set config"
	body, err := c.do(ctx, op, http.MethodPost, "/api/config", cfg)
	if err != nil {
		return model.Config{}, err
	}
	var resp configResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Config{}, &InvalidResponseError{Op: op, Reason: "decode body", Err: err}
	}
	if resp.Success == nil {
		return model.Config{}, &InvalidResponseError{Op: op, Reason: "missing success"}
	}
	if !*resp.Success {
		return model.Config{}, fmt.Errorf("%s: %w", op, ErrRejected)
	}
	if len(resp.Config) == 0 || string(resp.Config) == "null" {
		return model.Config{}, &InvalidResponseError{Op: op, Reason: "missing config"}
	}
	adopted, err := model.DecodeConfig(resp.Config)
	if err != nil {
		return model.Config{}, &InvalidResponseError{Op: op, Reason: "config", Err: err}
	}
	return adopted, nil
}

// Start asks the service to run the simulation.
func (c *Client) Start(ctx context.Context) (bool, error) {
	return c.command(ctx, "start", "/api/start")
}

// Stop asks the service to pause the simulation.
func (c *Client) Stop(ctx context.Context) (bool, error) {
	return c.command(ctx, "stop", "/api/stop")
}

// Reset asks the service to rebuild its world from the current config.
func (c *Client) Reset(ctx context.Context) (bool, error) {
	return c.command(ctx, "reset", "/api/reset")
}

// AddFood places food at raster-pixel coordinates (x, y).
func (c *Client) AddFood(ctx context.Context, x, y int) (bool, error) {
	const op = "add food"
	body, err := c.do(ctx, op, http.MethodPost, "/api/add_food", foodRequest{X: x, Y: y})
	if err != nil {
		return false, err
	}
	return decodeSuccess(op, body)
}

// Status reports the run state without transferring a frame.
func (c *Client) Status(ctx context.Context) (model.Status, error) {
	const op = "get status"
	body, err := c.do(ctx, op, http.MethodGet, "/api/status", nil)
	if err != nil {
		return model.Status{}, err
	}
	var st model.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return model.Status{}, &InvalidResponseError{Op: op, Reason: "decode body", Err: err}
	}
	return st, nil
}

// Frame fetches the latest frame and run state. Frame is nil until the
// service has produced its first world.
func (c *Client) Frame(ctx context.Context) (model.FrameResult, error) {
	const op = "get frame"
	body, err := c.do(ctx, op, http.MethodGet, "/api/data", nil)
	if err != nil {
		return model.FrameResult{}, err
	}
	var resp frameResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.FrameResult{}, &InvalidResponseError{Op: op, Reason: "decode body", Err: err}
	}
	res := model.FrameResult{Running: resp.IsRunning, FPS: resp.FPS}
	if resp.WorldData == nil {
		return res, nil
	}
	frame, err := buildFrame(resp.WorldData)
	if err != nil {
		return model.FrameResult{}, &InvalidResponseError{Op: op, Reason: err.Error()}
	}
	res.Frame = frame
	return res, nil
}

func (c *Client) command(ctx context.Context, op, path string) (bool, error) {
	body, err := c.do(ctx, op, http.MethodPost, path, nil)
	if err != nil {
		return false, err
	}
	return decodeSuccess(op, body)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode}
	}
	return body, nil
}

func decodeSuccess(op string, body []byte) (bool, error) {
	var resp successResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, &InvalidResponseError{Op: op, Reason: "decode body", Err: err}
	}
	if resp.Success == nil {
		return false, &InvalidResponseError{Op: op, Reason: "missing success"}
	}
	return *resp.Success, nil
}

func buildFrame(w *worldData) (*model.Frame, error) {
	width, height, err := gridSize(len(w.TrailMap), func(y int) int { return len(w.TrailMap[y]) })
	if err != nil {
		return nil, fmt.Errorf("trail_map: %w", err)
	}
	fw, fh, err := gridSize(len(w.FoodMap), func(y int) int { return len(w.FoodMap[y]) })
	if err != nil {
		return nil, fmt.Errorf("food_map: %w", err)
	}
	switch {
	case w.TrailMap == nil && w.FoodMap == nil:
		return nil, nil
	case w.TrailMap == nil:
		width, height = fw, fh
	case w.FoodMap != nil && (fw != width || fh != height):
		return nil, fmt.Errorf("trail_map is %dx%d but food_map is %dx%d", width, height, fw, fh)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty grid (%dx%d)", width, height)
	}

	frame := model.NewFrame(width, height)
	for y, row := range w.TrailMap {
		copy(frame.Trail[y*width:(y+1)*width], row)
	}
	for y, row := range w.FoodMap {
		copy(frame.Food[y*width:(y+1)*width], row)
	}
	if w.Nucleus != nil {
		n := *w.Nucleus
		frame.Nucleus = &n
	}
	return frame, nil
}

func gridSize(rows int, rowLen func(int) int) (int, int, error) {
	if rows == 0 {
		return 0, 0, nil
	}
	width := rowLen(0)
	for y := 1; y < rows; y++ {
		if rowLen(y) != width {
			return 0, 0, fmt.Errorf("row %d has %d cells, want %d", y, rowLen(y), width)
		}
	}
	return width, rows, nil
}
