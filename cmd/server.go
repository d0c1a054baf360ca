package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/scorepad/logging"
	"github.com/jsphweid/scorepad/midi"
	"github.com/jsphweid/scorepad/model"
	"github.com/jsphweid/scorepad/playback"
	"github.com/jsphweid/scorepad/score"
	"github.com/jsphweid/scorepad/session"
	"github.com/jsphweid/scorepad/store"
)

// how long a start request waits for the audio engine
const audioWait = 5 * time.Second

// largest MIDI upload accepted by /convert-to-json
const maxUpload = 10 << 20

type server struct {
	session *session.Session
	log     *logging.Logger
}

func NewRouter(s *session.Session, log *logging.Logger) *mux.Router {
	srv := &server{session: s, log: log}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/health", handleHealth).Methods("GET")
	router.HandleFunc("/score", srv.handleGetScore).Methods("GET")
	router.HandleFunc("/score", srv.handleReplaceScore).Methods("PUT")
	router.HandleFunc("/score/notes", srv.handleAddNote).Methods("POST")
	router.HandleFunc("/score/measures", srv.handleAddMeasure).Methods("POST")
	router.HandleFunc("/score/measures/{measure}/select", srv.handleSelectMeasure).Methods("POST")
	router.HandleFunc("/score/measures/{measure}/notes/{id}", srv.handleUpdateNote).Methods("PATCH")
	router.HandleFunc("/score/measures/{measure}/notes/{id}", srv.handleRemoveNote).Methods("DELETE")
	router.HandleFunc("/score/clear", srv.handleClear).Methods("POST")
	router.HandleFunc("/score/undo", srv.handleUndo).Methods("POST")
	router.HandleFunc("/score/tempo", srv.handleTempo).Methods("PUT")
	router.HandleFunc("/score/save", srv.handleSave).Methods("POST")
	router.HandleFunc("/playback", srv.handlePlaybackStatus).Methods("GET")
	router.HandleFunc("/playback/start", srv.handlePlaybackStart).Methods("POST")
	router.HandleFunc("/playback/stop", srv.handlePlaybackStop).Methods("POST")
	router.HandleFunc("/convert-to-midi", srv.handleConvertToMidi).Methods("POST")
	router.HandleFunc("/convert-to-json", srv.handleConvertToJSON).Methods("POST")
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var errBadRequest = errors.New("bad request")

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, score.ErrInvalidTempo),
		errors.Is(err, score.ErrInvalidTimeSignature),
		errors.Is(err, score.ErrTooManyMeasures):
		return http.StatusBadRequest
	case errors.Is(err, score.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, score.ErrMeasureOverflow), errors.Is(err, playback.ErrRejected):
		return http.StatusConflict
	case errors.Is(err, score.ErrInvalidNote):
		return http.StatusUnprocessableEntity
	case errors.Is(err, playback.ErrAudioNotReady), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (srv *server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		srv.log.Errorf("%v", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: could not decode request body: %v", errBadRequest, err)
	}
	return nil
}

func measureVar(r *http.Request) (int, error) {
	i, err := strconv.Atoi(mux.Vars(r)["measure"])
	if err != nil {
		return 0, fmt.Errorf("%w: measure must be a number", errBadRequest)
	}
	return i, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

func (srv *server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.session.Doc.Data())
}

func (srv *server) handleReplaceScore(w http.ResponseWriter, r *http.Request) {
	var data model.ScoreData
	if err := decodeBody(r, &data); err != nil {
		srv.writeError(w, err)
		return
	}
	if err := srv.session.Doc.Restore(data); err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, srv.session.Doc.Data())
}

func (srv *server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var input model.AddNoteRequest
	if err := decodeBody(r, &input); err != nil {
		srv.writeError(w, err)
		return
	}
	measure := score.Current
	if input.MeasureIndex != nil {
		measure = *input.MeasureIndex
		if measure < 0 {
			srv.writeError(w, fmt.Errorf("%w: negative measure index", errBadRequest))
			return
		}
	}
	note := input.Note
	if input.Params != nil {
		n, err := srv.session.Doc.Instrument().NewNote(*input.Params)
		if err != nil {
			srv.writeError(w, fmt.Errorf("%w: %v", score.ErrInvalidNote, err))
			return
		}
		note = n
	}
	p, err := srv.session.Doc.AddNote(measure, note, input.InsertBeforeID)
	if err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.AddNoteResponse{ID: p.ID, MeasureIndex: p.MeasureIndex, Spilled: p.Spilled})
}

func (srv *server) handleAddMeasure(w http.ResponseWriter, r *http.Request) {
	i, err := srv.session.Doc.AddMeasure()
	if err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"measureIndex": i})
}

func (srv *server) handleSelectMeasure(w http.ResponseWriter, r *http.Request) {
	i, err := measureVar(r)
	if err == nil {
		err = srv.session.Doc.SetCurrentMeasure(i)
	}
	if err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"measureIndex": i})
}

func (srv *server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	i, err := measureVar(r)
	if err != nil {
		srv.writeError(w, err)
		return
	}
	var patch model.NotePatch
	if err := decodeBody(r, &patch); err != nil {
		srv.writeError(w, err)
		return
	}
	if err := srv.session.Doc.UpdateNote(i, mux.Vars(r)["id"], patch); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	i, err := measureVar(r)
	if err != nil {
		srv.writeError(w, err)
		return
	}
	removed, err := srv.session.Doc.RemoveNote(i, mux.Vars(r)["id"])
	if err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (srv *server) handleClear(w http.ResponseWriter, r *http.Request) {
	srv.session.Doc.ClearScore()
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UndoResponse{Undone: srv.session.Doc.Undo()})
}

func (srv *server) handleTempo(w http.ResponseWriter, r *http.Request) {
	var input model.TempoRequest
	if err := decodeBody(r, &input); err != nil {
		srv.writeError(w, err)
		return
	}
	if input.TimeSignature != nil {
		if err := srv.session.Doc.SetTimeSignature(*input.TimeSignature); err != nil {
			srv.writeError(w, err)
			return
		}
	}
	if input.Tempo != 0 {
		if err := srv.session.Doc.SetTempo(input.Tempo); err != nil {
			srv.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, srv.session.Doc.Data())
}

func (srv *server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := srv.session.Save(); err != nil {
		srv.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) status() model.PlaybackStatus {
	return model.PlaybackStatus{
		State:       srv.session.Player.State().String(),
		ActiveNotes: srv.session.Player.ActiveNotes(),
	}
}

func (srv *server) handlePlaybackStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.status())
}

func (srv *server) handlePlaybackStart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), audioWait)
	defer cancel()
	if err := srv.session.Player.StartWhenReady(ctx); err != nil {
		srv.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, srv.status())
}

func (srv *server) handlePlaybackStop(w http.ResponseWriter, r *http.Request) {
	srv.session.Player.Stop()
	writeJSON(w, http.StatusOK, srv.status())
}

func (srv *server) handleConvertToMidi(w http.ResponseWriter, r *http.Request) {
	var data model.ScoreData
	if err := decodeBody(r, &data); err != nil {
		srv.writeError(w, err)
		return
	}
	inst := srv.session.Doc.Instrument()
	sc := score.WithDefaults(data.Score())
	if err := score.Validate(inst, sc); err != nil {
		srv.writeError(w, err)
		return
	}
	s, err := midi.Export(sc, inst)
	if err != nil {
		srv.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="score.mid"`)
	if err := midi.WriteMidi(s, w); err != nil {
		srv.log.Errorf("%v", err)
	}
}

// handleConvertToJSON accepts a MIDI file either as a multipart "file" field
// or as the raw request body.
func (srv *server) handleConvertToJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			srv.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		defer f.Close()
		body = f
	}
	s, err := midi.ReadMidi(body)
	if err != nil {
		srv.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, midi.Import(s))
}
