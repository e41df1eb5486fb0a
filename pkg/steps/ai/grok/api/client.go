package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/security"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	conversationIDPath    = "data.create_grok_conversation.conversation_id"
	conversationItemsRoot = "data.grok_conversation_items_by_rest_id"
	conversationItemsPath = conversationItemsRoot + ".items"
)

// Client talks to the Grok endpoints of the X web API with a fixed set of
// session credentials. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	credentials *Credentials
	endpoints   Endpoints
	urlOptions  security.OutboundURLOptions
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithEndpoints(endpoints Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithOutboundURLOptions replaces the policy applied to every URL before a
// credentialed request is sent.
func WithOutboundURLOptions(opts security.OutboundURLOptions) ClientOption {
	return func(c *Client) {
		c.urlOptions = opts
	}
}

func NewClient(credentials *Credentials, options ...ClientOption) (*Client, error) {
	if credentials == nil {
		return nil, &ConfigurationError{
			Setting: csrfCookieName,
			Reason:  "no credentials supplied",
			Missing: true,
		}
	}
	c := &Client{
		httpClient:  &http.Client{},
		credentials: credentials,
		endpoints:   DefaultEndpoints(),
		urlOptions:  security.DefaultOutboundURLOptions(),
	}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

func (c *Client) Credentials() *Credentials {
	return c.credentials
}

func (c *Client) newRequest(ctx context.Context, method string, rawURL string, body io.Reader) (*http.Request, error) {
	if err := security.ValidateOutboundURL(rawURL, c.urlOptions); err != nil {
		return nil, errors.Wrapf(err, "refusing to send credentials to %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header = c.credentials.Headers()
	return req, nil
}

// do sends req and returns the full body of a 2xx response.
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	// #nosec G704 -- URL is validated in newRequest.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", operation)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", operation)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Reason:     "unexpected status",
			Excerpt:    excerpt(body),
		}
	}

	log.Debug().Str("operation", operation).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("Request completed")
	return body, nil
}

// CreateConversation creates an empty conversation and returns its id.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	const operation = "CreateGrokConversation"

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.CreateConversation, bytes.NewBufferString("{}"))
	if err != nil {
		return "", err
	}
	body, err := c.do(req, operation)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, conversationIDPath)
	if !id.Exists() || id.String() == "" {
		return "", &ProtocolError{
			Operation: operation,
			Reason:    "response has no " + conversationIDPath,
			Excerpt:   excerpt(body),
		}
	}
	return id.String(), nil
}

// ConversationItems fetches the raw history of a conversation, most recent
// item first, as the API returns it.
func (c *Client) ConversationItems(ctx context.Context, conversationID string) ([]conversation.WireTurn, error) {
	const operation = "GrokConversationItemsByRestId"

	variables, err := json.Marshal(map[string]string{"restId": conversationID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal variables")
	}
	features, err := json.Marshal(ConversationItemsFeatures())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal features")
	}
	params := url.Values{}
	params.Set("variables", string(variables))
	params.Set("features", string(features))

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoints.ConversationItems+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, operation)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(body, conversationItemsRoot).Exists() {
		return nil, &ProtocolError{
			Operation: operation,
			Reason:    "response has no " + conversationItemsRoot,
			Excerpt:   excerpt(body),
		}
	}

	items := gjson.GetBytes(body, conversationItemsPath)
	if !items.Exists() || items.Type == gjson.Null {
		return []conversation.WireTurn{}, nil
	}
	if !items.IsArray() {
		return nil, &ProtocolError{
			Operation: operation,
			Reason:    conversationItemsPath + " is not an array",
			Excerpt:   excerpt([]byte(items.Raw)),
		}
	}

	var ret []conversation.WireTurn
	if err := json.Unmarshal([]byte(items.Raw), &ret); err != nil {
		return nil, &ProtocolError{
			Operation: operation,
			Reason:    "malformed items: " + err.Error(),
			Excerpt:   excerpt([]byte(items.Raw)),
		}
	}
	return ret, nil
}

// UploadAttachment uploads a file for use in a later message. The returned
// attachment keeps the server's descriptor verbatim.
func (c *Client) UploadAttachment(ctx context.Context, fileName string, r io.Reader) (conversation.Attachment, error) {
	const operation = "GrokAttachment"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", fileName)
	if err != nil {
		return conversation.Attachment{}, errors.Wrap(err, "failed to create form file")
	}
	if _, err := io.Copy(part, r); err != nil {
		return conversation.Attachment{}, errors.Wrap(err, "failed to copy upload")
	}
	if err := writer.Close(); err != nil {
		return conversation.Attachment{}, errors.Wrap(err, "failed to close multipart writer")
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.Attachment, &buf)
	if err != nil {
		return conversation.Attachment{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req, operation)
	if err != nil {
		return conversation.Attachment{}, err
	}
	if !json.Valid(body) {
		return conversation.Attachment{}, &ProtocolError{
			Operation: operation,
			Reason:    "response is not JSON",
			Excerpt:   excerpt(body),
		}
	}

	var attachment conversation.Attachment
	if err := json.Unmarshal(body, &attachment); err != nil {
		return conversation.Attachment{}, errors.Wrap(err, "failed to decode attachment")
	}
	if attachment.FileName == "" && !attachment.IsUnknown() {
		attachment.FileName = fileName
	}
	return attachment, nil
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, path string) (conversation.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return conversation.Attachment{}, errors.Wrap(err, "failed to open attachment")
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return c.UploadAttachment(ctx, filepath.Base(path), f)
}

// AddResponse sends a message and returns the streaming response body. The
// caller owns the body and must close it.
func (c *Client) AddResponse(ctx context.Context, request *AddResponseRequest) (io.ReadCloser, error) {
	const operation = "AddResponse"

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal add_response request")
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.AddResponse, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("X-Client-Transaction-Id", uuid.NewString())

	log.Debug().
		Str("conversation_id", request.ConversationID).
		Str("model", request.GrokModelOptionID).
		Int("responses", len(request.Responses)).
		Msg("Sending add_response")

	// #nosec G704 -- URL is validated in newRequest.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "add_response request failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxExcerptLength))
		return nil, &ProtocolError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Reason:     "unexpected status",
			Excerpt:    excerpt(body),
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, &ProtocolError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Reason:     "response body is null",
		}
	}

	return resp.Body, nil
}

// GetImage downloads a generated image with the session credentials.
func (c *Client) GetImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Content-Type")
	return c.do(req, "GetImage")
}
