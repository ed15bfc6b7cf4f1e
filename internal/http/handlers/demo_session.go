package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"inksynth/internal/demo"
	"inksynth/internal/domain"
	"inksynth/internal/generator"
	"inksynth/internal/machine"
	"inksynth/pkg/zip"
)

const (
	linkWaitLimit   = 5 * time.Second
	streamHeartbeat = 15 * time.Second
)

type sessionKey struct{}

// LoadDemoSession resolves {sessionID} and stores the session in the
// request context.
func (a *App) LoadDemoSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := a.Sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			a.fail(w, http.StatusNotFound, msgSessionNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *demo.Session {
	s, _ := r.Context().Value(sessionKey{}).(*demo.Session)
	return s
}

func (a *App) DemoSessionCreate(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Create()
	if err != nil {
		a.log(r).Error().Err(err).Msg("demo.session.create.failed")
		a.fail(w, http.StatusServiceUnavailable, "Demo sessions are unavailable.")
		return
	}
	w.Header().Set("Location", "/api/demo/sessions/"+s.ID())
	a.ok(w, http.StatusCreated, s.Snapshot())
}

func (a *App) DemoSessionGet(w http.ResponseWriter, r *http.Request) {
	a.ok(w, http.StatusOK, sessionFrom(r).Snapshot())
}

func (a *App) DemoSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(sessionFrom(r).ID()); err != nil {
		a.fail(w, http.StatusNotFound, msgSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type styleRequest struct {
	Style string `json:"style"`
}

func (a *App) DemoSetStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	s := sessionFrom(r)
	if err := s.SetSelectedStyle(domain.Style(req.Style)); err != nil {
		a.fail(w, http.StatusBadRequest, "Unknown style.")
		return
	}
	a.ok(w, http.StatusOK, s.Snapshot())
}

type selectDesignRequest struct {
	DesignID string `json:"designId"`
}

func (a *App) DemoSelectDesign(w http.ResponseWriter, r *http.Request) {
	var req selectDesignRequest
	if err := decodeJSON(w, r, &req); err != nil || req.DesignID == "" {
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	s := sessionFrom(r)
	if _, err := s.SelectDesign(req.DesignID); err != nil {
		a.fail(w, http.StatusNotFound, "Design not found.")
		return
	}
	a.ok(w, http.StatusOK, s.Snapshot())
}

func (a *App) DemoClearDesign(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ClearSelectedDesign()
	a.ok(w, http.StatusOK, s.Snapshot())
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

type generationsView struct {
	IsGenerating bool                       `json:"isGenerating"`
	Designs      []domain.GeneratedArtifact `json:"generatedDesigns"`
}

// DemoGenerate starts a simulated generation. With ?wait=true the request
// blocks until the artifact exists and returns it with 201; otherwise it
// answers 202 immediately.
func (a *App) DemoGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	s := sessionFrom(r)

	var style domain.Style
	if req.Style != "" {
		parsed, err := domain.ParseStyle(req.Style)
		if err != nil {
			a.fail(w, http.StatusBadRequest, "Unknown style.")
			return
		}
		style = parsed
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		if _, err := s.StartGeneration(req.Prompt, style); err != nil {
			a.generationFailed(w, r, err)
			return
		}
		a.ok(w, http.StatusAccepted, generationsView{IsGenerating: true, Designs: s.Generated()})
		return
	}

	artifact, err := s.Generate(r.Context(), req.Prompt, style)
	if err != nil {
		a.generationFailed(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, artifact)
}

func (a *App) generationFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, generator.ErrEmptyPrompt):
		a.fail(w, http.StatusBadRequest, "Prompt is required.")
	case errors.Is(err, domain.ErrUnknownStyle):
		a.fail(w, http.StatusBadRequest, "Unknown style.")
	case errors.Is(err, generator.ErrClosed):
		a.fail(w, http.StatusGone, msgSessionNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.log(r).Debug().Err(err).Msg("demo.generation.cancelled")
		a.fail(w, http.StatusServiceUnavailable, "Generation cancelled.")
	default:
		a.log(r).Error().Err(err).Msg("demo.generation.failed")
		a.fail(w, http.StatusInternalServerError, "Generation failed.")
	}
}

func (a *App) DemoGenerations(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	a.ok(w, http.StatusOK, generationsView{IsGenerating: s.IsGenerating(), Designs: s.Generated()})
}

func (a *App) DemoClearGenerations(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	s.ClearGenerated()
	a.ok(w, http.StatusOK, generationsView{IsGenerating: s.IsGenerating(), Designs: s.Generated()})
}

// DemoExportGenerations streams the history as a zip with a JSON manifest
// and one internet shortcut per artifact.
func (a *App) DemoExportGenerations(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	history := s.Generated()

	manifest, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		a.log(r).Error().Err(err).Msg("demo.export.failed")
		a.fail(w, http.StatusInternalServerError, "Unable to export designs.")
		return
	}
	assets := make([]zip.Asset, 0, len(history)+1)
	assets = append(assets, zip.Asset{
		Filename: "manifest.json",
		MIME:     "application/json",
		Data:     manifest,
		Modified: a.now(),
	})
	for _, art := range history {
		assets = append(assets, zip.Asset{
			Filename: art.ID + ".url",
			MIME:     "application/internet-shortcut",
			Data:     []byte("[InternetShortcut]\r\nURL=" + art.URL + "\r\n"),
			Modified: art.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=inksynth-%s.zip", s.ID()))
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteArchive(w, assets); err != nil {
		a.log(r).Error().Err(err).Msg("demo.export.failed")
	}
}

type linkView struct {
	Status   machine.LinkStatus `json:"status"`
	OnlineAt *time.Time         `json:"onlineAt,omitempty"`
}

func viewLink(l *machine.Link) linkView {
	v := linkView{Status: l.Status()}
	if at, ok := l.OnlineAt(); ok {
		v.OnlineAt = &at
	}
	return v
}

type machineView struct {
	Settings   domain.MachineSettings `json:"settings"`
	IsPrinting bool                   `json:"isPrinting"`
	Matrix     machine.Matrix         `json:"matrix"`
	Link       linkView               `json:"link"`
}

func (a *App) DemoMachine(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	a.ok(w, http.StatusOK, machineView{
		Settings:   s.MachineSettings(),
		IsPrinting: s.IsPrinting(),
		Matrix:     s.Matrix(),
		Link:       viewLink(s.MachineLink()),
	})
}

// DemoUpdateSettings merges a partial settings update. Values outside the
// machine bounds are rejected rather than clamped.
func (a *App) DemoUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch machine.Patch
	if err := decodeJSON(w, r, &patch); err != nil || patch.Empty() {
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if err := patch.Validate(); err != nil {
		a.fail(w, status(err), err.Error())
		return
	}
	a.ok(w, http.StatusOK, sessionFrom(r).UpdateMachineSettings(patch))
}

func (a *App) DemoApplyPreset(w http.ResponseWriter, r *http.Request) {
	settings, err := sessionFrom(r).ApplyCalibrationPreset(chi.URLParam(r, "presetID"))
	if err != nil {
		a.fail(w, http.StatusNotFound, "Calibration preset not found.")
		return
	}
	a.ok(w, http.StatusOK, settings)
}

type printingView struct {
	IsPrinting bool           `json:"isPrinting"`
	Matrix     machine.Matrix `json:"matrix"`
}

func (a *App) DemoTogglePrinting(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	printing := s.TogglePrinting()
	a.ok(w, http.StatusOK, printingView{IsPrinting: printing, Matrix: s.Matrix()})
}

// DemoMachineLink reports the link handshake, starting it on first use.
// ?wait=true blocks briefly until the link is online.
func (a *App) DemoMachineLink(w http.ResponseWriter, r *http.Request) {
	link := sessionFrom(r).MachineLink()
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), linkWaitLimit)
		_ = link.Wait(ctx)
		cancel()
	}
	a.ok(w, http.StatusOK, viewLink(link))
}

// DemoSettingsStream pushes machine settings as server-sent events: the
// current value first, then every change until the client goes away.
func (a *App) DemoSettingsStream(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	updates := make(chan domain.MachineSettings, 8)
	unsubscribe := s.OnSettingsChange(func(ms domain.MachineSettings) {
		select {
		case updates <- ms:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(ms domain.MachineSettings) error {
		data, err := json.Marshal(ms)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: settings\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(s.MachineSettings()); err != nil {
		return
	}
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ms := <-updates:
			if err := send(ms); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
