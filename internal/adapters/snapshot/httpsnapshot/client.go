// Package httpsnapshot fetches the remote bootstrap channel list over HTTP.
package httpsnapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"

	"github.com/evanschultz/chantab/internal/app"
	"github.com/evanschultz/chantab/internal/domain"
)

// maxBodyBytes caps the snapshot document size.
const maxBodyBytes = 4 << 20

// RequestIDHeader carries a per-fetch correlation id.
const RequestIDHeader = "X-Request-Id"

// FieldAliases lists the accepted external field names for each channel field.
type FieldAliases struct {
	ID            []string
	DisplayNumber []string
	SecondaryID   []string
}

// DefaultFieldAliases returns the field names accepted when none are configured.
func DefaultFieldAliases() FieldAliases {
	return FieldAliases{
		ID:            []string{"id", "channelId", "channel_id"},
		DisplayNumber: []string{"displayNumber", "display_number", "number"},
		SecondaryID:   []string{"secondaryId", "secondary_id", "account"},
	}
}

// withDefaults fills empty alias lists.
func (f FieldAliases) withDefaults() FieldAliases {
	def := DefaultFieldAliases()
	if len(f.ID) == 0 {
		f.ID = def.ID
	}
	if len(f.DisplayNumber) == 0 {
		f.DisplayNumber = def.DisplayNumber
	}
	if len(f.SecondaryID) == 0 {
		f.SecondaryID = def.SecondaryID
	}
	return f
}

// Config configures a snapshot client.
type Config struct {
	URL        string
	Timeout    time.Duration
	ItemsPath  string
	Fields     FieldAliases
	HTTPClient *http.Client
}

// Client fetches one snapshot document per call.
type Client struct {
	url       string
	timeout   time.Duration
	itemsPath []string
	fields    FieldAliases
	http      *http.Client
	newID     func() string
}

// New constructs a client for cfg.URL.
func New(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("snapshot url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("snapshot url %q must use http or https", url)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:       url,
		timeout:   cfg.Timeout,
		itemsPath: SplitPath(cfg.ItemsPath),
		fields:    cfg.Fields.withDefaults(),
		http:      httpClient,
		newID:     uuid.NewString,
	}, nil
}

// FetchChannels downloads and decodes the snapshot. Errors wrap app.ErrRemoteFetch.
func (c *Client) FetchChannels(ctx context.Context) ([]domain.Channel, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", app.ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, c.newID())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app.ErrRemoteFetch, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", app.ErrRemoteFetch, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", app.ErrRemoteFetch, err)
	}
	return Decode(body, c.itemsPath, c.fields)
}

// SplitPath turns a dot separated key path into jsonparser keys.
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Decode extracts channels from a snapshot document.
func Decode(body []byte, itemsPath []string, fields FieldAliases) ([]domain.Channel, error) {
	fields = fields.withDefaults()
	items, typ, _, err := jsonparser.Get(body, itemsPath...)
	if err != nil {
		return nil, fmt.Errorf("%w: locate items %q: %w", app.ErrRemoteFetch, strings.Join(itemsPath, "."), err)
	}
	if typ != jsonparser.Array {
		return nil, fmt.Errorf("%w: items are %s, want array", app.ErrRemoteFetch, typ)
	}

	out := []domain.Channel{}
	var entryErr error
	idx := 0
	_, err = jsonparser.ArrayEach(items, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		defer func() { idx++ }()
		if entryErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			entryErr = fmt.Errorf("entry %d is %s, want object", idx, dataType)
			return
		}
		ch, err := decodeEntry(value, fields)
		if err != nil {
			entryErr = fmt.Errorf("entry %d: %w", idx, err)
			return
		}
		out = append(out, ch)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: parse items: %w", app.ErrRemoteFetch, err)
	}
	if entryErr != nil {
		return nil, fmt.Errorf("%w: %w", app.ErrRemoteFetch, entryErr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty channel list", app.ErrRemoteFetch)
	}
	return out, nil
}

// decodeEntry maps one object onto a channel using the alias lists.
func decodeEntry(obj []byte, fields FieldAliases) (domain.Channel, error) {
	id, err := lookup(obj, fields.ID)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("id: %w", err)
	}
	if id == "" {
		return domain.Channel{}, domain.ErrInvalidID
	}
	displayNumber, err := lookup(obj, fields.DisplayNumber)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("display number: %w", err)
	}
	secondaryID, err := lookup(obj, fields.SecondaryID)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("secondary id: %w", err)
	}
	return domain.Channel{ID: id, DisplayNumber: displayNumber, SecondaryID: secondaryID}, nil
}

// lookup returns the first alias present as a string or number.
func lookup(obj []byte, aliases []string) (string, error) {
	for _, alias := range aliases {
		value, typ, _, err := jsonparser.Get(obj, alias)
		if typ == jsonparser.NotExist {
			continue
		}
		if err != nil {
			return "", err
		}
		switch typ {
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(s), nil
		case jsonparser.Number:
			return string(value), nil
		case jsonparser.Null:
			return "", nil
		default:
			return "", fmt.Errorf("field %q is %s, want string or number", alias, typ)
		}
	}
	return "", nil
}
