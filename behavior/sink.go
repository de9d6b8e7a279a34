package behavior

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/carfin/carreco/core"
)

// Payload 是投递给行为接收端的 JSON 载荷。
// 重复投递的去重是接收端的责任，本端只保证单次尝试 at-most-once。
type Payload struct {
	SessionID    string              `json:"sessionId"`
	UserID       string              `json:"userId"`
	Interactions []*core.Interaction `json:"interactions"`
	Context      *SessionContext     `json:"context"`
	Preferences  *Preferences        `json:"preferences"`
}

// Sink 是行为接收端的抽象。
// Deliver 返回 nil 即确认本批次送达；任何错误都视为本轮终态，
// 由下一个周期触发重试。
type Sink interface {
	Deliver(ctx context.Context, payload *Payload) error
}

// HTTPSink 把行为载荷 POST 到接收端。
type HTTPSink struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		Endpoint: endpoint,
		Client:   http.DefaultClient,
	}
}

func (s *HTTPSink) Deliver(ctx context.Context, payload *Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("behavior sink: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("behavior sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("behavior sink: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("behavior sink: endpoint returned %d", resp.StatusCode)
	}
	return nil
}

var _ Sink = (*HTTPSink)(nil)
