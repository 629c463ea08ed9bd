package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/campuscompanion/core"
)

type client struct {
	baseURL string
	rest    *rest.Client
}

// NewClient returns an Asker posting questions to the chat backend at {baseURL}/ask.
func NewClient(baseURL string, timeout time.Duration) Asker {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

// NewFromConfig picks the demo responder or the HTTP client.
func NewFromConfig(conf *core.Config) Asker {
	if conf.Chat.Demo {
		return NewDemo()
	}
	return NewClient(conf.Chat.BaseURL, conf.Chat.Timeout)
}

type askReply struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

func (c *client) Ask(ctx context.Context, question string) (string, error) {
	q, err := cleanQuestion(question)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]string{"question": q})
	if err != nil {
		return "", errors.Wrap(err, "encoding question")
	}

	resp, err := c.post(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: c.baseURL + "/ask",
		Headers: map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
		Body:    body,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.WithMessage(ErrUnreachable, err.Error())
	}

	var reply askReply
	if err := json.Unmarshal([]byte(resp.Body), &reply); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return "", errors.WithMessagef(ErrUnreachable, "status %d", resp.StatusCode)
		}
		return "", errors.Wrap(err, "decoding chat answer")
	}
	if reply.Error != "" {
		if resp.StatusCode == http.StatusBadRequest {
			return "", errors.WithMessage(ErrEmptyQuestion, reply.Error)
		}
		return "", errors.WithMessage(ErrUnreachable, reply.Error)
	}
	if strings.TrimSpace(reply.Answer) == "" {
		return NoAnswer, nil
	}
	return reply.Answer, nil
}

func (c *client) post(ctx context.Context, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	res, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}
