package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/post"
	"github.com/sirupsen/logrus"
)

// maxResponseSize caps how much of a node's answer is read.
const maxResponseSize = 32 << 20

// HTTPTransport implements the Transport interface over HTTP.
type HTTPTransport struct {
	client        *http.Client
	submitTimeout time.Duration
	fetchTimeout  time.Duration
	probeTimeout  time.Duration
	logger        *logrus.Entry
}

// NewHTTPTransport creates an HTTPTransport. Every request is bounded by the
// timeout corresponding to its kind.
func NewHTTPTransport(submitTimeout, fetchTimeout, probeTimeout time.Duration, logger *logrus.Entry) *HTTPTransport {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &HTTPTransport{
		client:        &http.Client{},
		submitTimeout: submitTimeout,
		fetchTimeout:  fetchTimeout,
		probeTimeout:  probeTimeout,
		logger:        logger.WithField("prefix", "http-transport"),
	}
}

// Submit implements the Transport interface.
func (t *HTTPTransport) Submit(ctx context.Context, target string, envelopes []*post.Envelope) error {
	body, err := json.Marshal(envelopes)
	if err != nil {
		return common.WrapErr("HTTPTransport", common.SubmissionFailure, target, err)
	}

	ctx, cancel := withTimeout(ctx, t.submitTimeout)
	defer cancel()

	req, err := http.NewRequest(http.MethodPost, endpoint(target, InboxPath), bytes.NewReader(body))
	if err != nil {
		return common.WrapErr("HTTPTransport", common.SubmissionFailure, target, err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return common.WrapErr("HTTPTransport", common.SubmissionFailure, target, err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return common.WrapErr("HTTPTransport", common.SubmissionFailure, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.NewErr("HTTPTransport", common.SubmissionFailure,
			fmt.Sprintf("%s: status %d", target, resp.StatusCode))
	}

	var ack SubmitResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return common.WrapErr("HTTPTransport", common.SubmissionFailure, target+": bad ack", err)
	}

	if !ack.OK {
		return common.NewErr("HTTPTransport", common.SubmissionFailure,
			fmt.Sprintf("%s: not acknowledged %s", target, ack.Error))
	}

	t.logger.WithFields(logrus.Fields{
		"target":    target,
		"envelopes": len(envelopes),
	}).Debug("Submitted")

	return nil
}

// Fetch implements the Transport interface.
func (t *HTTPTransport) Fetch(ctx context.Context, target string) ([]*post.Envelope, error) {
	ctx, cancel := withTimeout(ctx, t.fetchTimeout)
	defer cancel()

	raw, err := t.get(ctx, target)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: decoding outbox: %w", target, err)
	}

	res := make([]*post.Envelope, 0, len(items))
	for i, item := range items {
		env := new(post.Envelope)
		if err := json.Unmarshal(item, env); err != nil {
			t.logger.WithFields(logrus.Fields{
				"target": target,
				"index":  i,
			}).WithError(err).Debug("Skipping undecodable envelope")
			continue
		}
		res = append(res, env)
	}

	return res, nil
}

// Ping implements the Transport interface.
func (t *HTTPTransport) Ping(ctx context.Context, target string) error {
	ctx, cancel := withTimeout(ctx, t.probeTimeout)
	defer cancel()

	_, err := t.get(ctx, target)
	return err
}

func (t *HTTPTransport) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint(target, OutboxPath), nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: status %d", target, resp.StatusCode)
	}

	return ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

func endpoint(target, path string) string {
	return strings.TrimSuffix(target, "/") + path
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
