package ipc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxEventSize bounds the body accepted by EventsPath.
const maxEventSize = 1 << 20

var errUnrecognizedEvent = errors.New("unrecognized event")

type TransportHandler interface {
	Play() error
	Pause() error
	PlayPause() error
	Next() error
	Previous() error
	Seek(time.Duration) error
}

type BridgeHandler interface {
	// ProcessLine handles one line of event input, reporting whether
	// it was a recognized event.
	ProcessLine(line string) bool
	NowPlaying() NowPlaying
	Quit()
}

type serverImpl struct {
	tpHandler TransportHandler
	brHandler BridgeHandler
}

func NewServer(tpHandler TransportHandler, brHandler BridgeHandler) *http.Server {
	s := serverImpl{tpHandler: tpHandler, brHandler: brHandler}
	return &http.Server{
		Handler: s.createHandler(),
	}
}

func (s *serverImpl) createHandler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("The given path is not valid"))
	})
	m.HandleFunc(PingPath, s.makeSimpleEndpointHandler(func() error { return nil }))
	m.HandleFunc(QuitPath, s.makeSimpleEndpointHandler(func() error {
		go s.brHandler.Quit()
		return nil
	}))
	m.HandleFunc(NowPlayingPath, func(w http.ResponseWriter, r *http.Request) {
		msg, err := json.Marshal(s.brHandler.NowPlaying())
		if err != nil {
			s.writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(msg)
	})
	m.HandleFunc(PlayPath, s.makeSimpleEndpointHandler(s.tpHandler.Play))
	m.HandleFunc(PausePath, s.makeSimpleEndpointHandler(s.tpHandler.Pause))
	m.HandleFunc(PlayPausePath, s.makeSimpleEndpointHandler(s.tpHandler.PlayPause))
	m.HandleFunc(PreviousPath, s.makeSimpleEndpointHandler(s.tpHandler.Previous))
	m.HandleFunc(NextPath, s.makeSimpleEndpointHandler(s.tpHandler.Next))
	m.HandleFunc(SeekPath, func(w http.ResponseWriter, r *http.Request) {
		ms, err := strconv.ParseInt(r.URL.Query().Get("ms"), 10, 64)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeSimpleResponse(w, s.tpHandler.Seek(time.Duration(ms)*time.Millisecond))
	})
	m.HandleFunc(EventsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
		if err != nil {
			s.writeErr(w, err)
			return
		}
		if !s.brHandler.ProcessLine(string(body)) {
			s.writeErr(w, errUnrecognizedEvent)
			return
		}
		s.writeOK(w)
	})
	return m
}

func (s *serverImpl) makeSimpleEndpointHandler(f func() error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeSimpleResponse(w, f())
	}
}

func (s *serverImpl) writeSimpleResponse(w http.ResponseWriter, err error) {
	if err == nil {
		s.writeOK(w)
	} else {
		s.writeErr(w, err)
	}
}

func (s *serverImpl) writeOK(w http.ResponseWriter) (int, error) {
	var r Response
	b, err := json.Marshal(&r)
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

func (s *serverImpl) writeErr(w http.ResponseWriter, err error) (int, error) {
	r := Response{Error: err.Error()}
	b, err := json.Marshal(&r)
	if err != nil {
		return 0, err
	}
	w.WriteHeader(http.StatusInternalServerError)
	return w.Write(b)
}
