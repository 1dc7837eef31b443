package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

var ErrPingFail = errors.New("ping failed")

const baseURL = "http://nowplaying-bridge"

type Client struct {
	httpC http.Client
}

// Connect attempts to connect to the IPC socket as client.
func Connect() (*Client, error) {
	return connect(func(context.Context) (net.Conn, error) { return Dial() })
}

func connect(dial func(context.Context) (net.Conn, error)) (*Client, error) {
	client := &Client{httpC: http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dial(ctx)
			},
		},
	}}
	if err := client.Ping(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) Ping() error {
	if c.makeSimpleRequest(http.MethodGet, PingPath, nil) != nil {
		return ErrPingFail
	}
	return nil
}

func (c *Client) Play() error {
	return c.makeSimpleRequest(http.MethodPost, PlayPath, nil)
}

func (c *Client) Pause() error {
	return c.makeSimpleRequest(http.MethodPost, PausePath, nil)
}

func (c *Client) PlayPause() error {
	return c.makeSimpleRequest(http.MethodPost, PlayPausePath, nil)
}

func (c *Client) Next() error {
	return c.makeSimpleRequest(http.MethodPost, NextPath, nil)
}

func (c *Client) Previous() error {
	return c.makeSimpleRequest(http.MethodPost, PreviousPath, nil)
}

func (c *Client) Seek(pos time.Duration) error {
	return c.makeSimpleRequest(http.MethodPost, SeekToPath(pos), nil)
}

// SendEvent injects one playback event as if it were read from the
// running bridge's input.
func (c *Client) SendEvent(event []byte) error {
	return c.makeSimpleRequest(http.MethodPost, EventsPath, event)
}

func (c *Client) Quit() error {
	return c.makeSimpleRequest(http.MethodPost, QuitPath, nil)
}

func (c *Client) NowPlaying() (NowPlaying, error) {
	var np NowPlaying
	resp, err := c.httpC.Get(baseURL + NowPlayingPath)
	if err != nil {
		return np, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return np, readErr(resp)
	}
	err = json.NewDecoder(resp.Body).Decode(&np)
	return np, err
}

func (c *Client) makeSimpleRequest(method string, path string, body []byte) error {
	var resp *http.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = c.httpC.Get(baseURL + path)
	case http.MethodPost:
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		resp, err = c.httpC.Post(baseURL+path, "application/json", r)
	}

	if err != nil {
		log.Printf("http err: %v\n", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readErr(resp)
	}
	return nil
}

func readErr(resp *http.Response) error {
	var r Response
	json.NewDecoder(resp.Body).Decode(&r)
	if r.Error == "" {
		return errors.New(resp.Status)
	}
	return errors.New(r.Error)
}
