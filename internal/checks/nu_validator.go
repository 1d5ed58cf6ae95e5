package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/qadetector/internal/webclient"
)

// DefaultNuURL is the public W3C instance of the Nu Html Checker.
const DefaultNuURL = "https://validator.w3.org/nu/"

// NuValidator posts markup to a Nu Html Checker instance.
type NuValidator struct {
	endpoint string
	client   webclient.WebClient
}

func NewNuValidator(endpoint string, client webclient.WebClient) *NuValidator {
	if endpoint == "" {
		endpoint = DefaultNuURL
	}
	return &NuValidator{endpoint: endpoint, client: client}
}

func (n *NuValidator) Name() string { return "nu" }

type nuResponse struct {
	Messages []nuMessage `json:"messages"`
}

type nuMessage struct {
	Type         string `json:"type"`
	SubType      string `json:"subType"`
	Message      string `json:"message"`
	Extract      string `json:"extract"`
	LastLine     int    `json:"lastLine"`
	FirstColumn  int    `json:"firstColumn"`
	HiliteStart  int    `json:"hiliteStart"`
	HiliteLength int    `json:"hiliteLength"`
}

func (n *NuValidator) Validate(ctx context.Context, html string) ([]ValidationMessage, error) {
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse validator url: %w", err)
	}
	q := u.Query()
	q.Set("out", "json")
	u.RawQuery = q.Encode()

	resp, err := n.client.Do(ctx, &webclient.Request{
		Method: http.MethodPost,
		URL:    u.String(),
		Headers: http.Header{
			"Content-Type": []string{"text/html; charset=utf-8"},
		},
		Body: []byte(html),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validator returned status %d", resp.StatusCode)
	}

	var body nuResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("decode validator response: %w", err)
	}

	out := make([]ValidationMessage, 0, len(body.Messages))
	for _, m := range body.Messages {
		var t MessageType
		switch {
		case m.Type == "non-document-error":
			return nil, fmt.Errorf("validator could not check document: %s", m.Message)
		case m.Type == "error":
			t = MessageError
		case m.Type == "warning", m.Type == "info" && m.SubType == "warning":
			t = MessageWarning
		default:
			t = MessageInfo
		}
		out = append(out, ValidationMessage{
			Type:        t,
			Message:     strings.TrimSpace(m.Message),
			Extract:     m.Extract,
			Line:        m.LastLine,
			Column:      m.FirstColumn,
			HiliteStart: m.HiliteStart,
			HiliteLen:   m.HiliteLength,
		})
	}
	return out, nil
}
