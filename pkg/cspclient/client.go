// Package cspclient is the library a Go caller embeds to talk CSP over
// HTTP without hand-building wire frames. Grounded on the teacher's
// pkg/sdk.Client: a Config struct plus an http.Client wrapped in a small
// number of verb-shaped methods, here narrowed to one: SendData, which
// sends typed data and decodes the reply. It does not exchange settings.
package cspclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ocx/csp/internal/csp/body"
	csp "github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/idgen"
	"github.com/ocx/csp/internal/csp/status"
	"github.com/ocx/csp/internal/csp/statusmsg"
	"github.com/ocx/csp/internal/csp/wire"
)

// Config holds everything a Client needs to reach a CSP server over HTTP.
type Config struct {
	// GatewayURL is the base address of the httptransport endpoint, e.g.
	// "http://localhost:8080" (required).
	GatewayURL string

	// ClientID identifies this connection across requests. Auto-generated
	// if empty.
	ClientID string

	// ProtocolVersion is the CommonHeader.ProtocolVersion this client
	// advertises on every frame it sends.
	ProtocolVersion uint16

	// Timeout bounds a single round trip (default 30s).
	Timeout time.Duration
}

// Client sends CSP frames to a server's httptransport endpoint and
// decodes the reply.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient constructs a Client, filling in defaults the way the
// teacher's sdk.NewClient does for its own Config.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = idgen.NewClientID()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendData serializes payload as a Data frame, posts it, and deserializes
// the reply into into. into must be an addressable instance of the same
// Serializable type payload was built from (typically a pointer to a
// zero value).
func (c *Client) SendData(ctx context.Context, payload body.Serializable, flags csp.DataFlags, into body.Serializable) status.Status {
	meta, ok := payload.(interface {
		StructID() csp.StructID
		LatestVersion() uint32
	})
	if !ok {
		return status.ErrorInvalidType
	}

	common := csp.CommonHeader{
		ProtocolVersion: c.config.ProtocolVersion,
		MessageKind:     csp.KindData,
		CommonFlags:     0,
	}
	dataHeader := csp.DataHeader{
		StructID:         meta.StructID(),
		InterfaceVersion: meta.LatestVersion(),
		DataFlags:        flags,
	}

	sink := wire.NewSink()
	if st := common.Serialize(sink); st != status.NoError {
		return st
	}
	if st := dataHeader.Serialize(sink); st != status.NoError {
		return st
	}

	dctx, st := csp.New(common, dataHeader, nil)
	if st != status.NoError {
		return st
	}
	defer dctx.Close()

	if st := body.Serialize(payload, dctx, sink); st != status.NoError {
		return st
	}

	reply, err := c.post(ctx, sink.Bytes())
	if err != nil {
		return status.ErrorInternal
	}

	source := wire.NewSource(reply)
	replyCommon, st := csp.DeserializeCommonHeader(source)
	if st != status.NoError {
		return st
	}

	if replyCommon.MessageKind == csp.KindStatus {
		msg, st := statusmsg.Deserialize(source)
		if st != status.NoError {
			return st
		}
		return msg.Code
	}
	if replyCommon.MessageKind != csp.KindData {
		return status.ErrorDataCorrupted
	}

	replyHeader, st := csp.DeserializeDataHeaderNoChecks(source)
	if st != status.NoError {
		return st
	}

	replyCtx, st := csp.New(replyCommon, replyHeader, nil)
	if st != status.NoError {
		return st
	}
	defer replyCtx.Close()

	return body.Deserialize(into, replyCtx, source)
}

func (c *Client) post(ctx context.Context, frame []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.GatewayURL+"/csp", bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("cspclient: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Csp-Client-Id", c.config.ClientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cspclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cspclient: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cspclient: server returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
