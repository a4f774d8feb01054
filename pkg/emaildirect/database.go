package emaildirect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/criticaltool/emaildirect-go-client/pkg/xmldoc"
)

const (
	PingPath     = "Ping"
	DatabasePath = "Database"
)

// Payload is a request body which can be serialized to JSON and to XML.
// JSON is serialized from the struct tags, XML from the XMLNode.
type Payload interface {
	XMLRoot() string
	XMLNode() xmldoc.Node
}

// ColumnAdd is the body of the request which adds a custom database column.
type ColumnAdd struct {
	ColumnName string `json:"ColumnName"`
	ColumnType string `json:"ColumnType"`
	ColumnSize int    `json:"ColumnSize"`
}

func (v ColumnAdd) XMLRoot() string {
	return "DatabaseColumnAdd"
}

func (v ColumnAdd) XMLNode() xmldoc.Node {
	return xmldoc.Fields(
		xmldoc.F("ColumnName", v.ColumnName),
		xmldoc.F("ColumnType", v.ColumnType),
		xmldoc.F("ColumnSize", v.ColumnSize),
	)
}

// EncodePayload serializes the payload in the request format.
func EncodePayload(format RequestFormat, p Payload) (string, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalToString(p)
		if err != nil {
			return "", fmt.Errorf("cannot encode JSON payload: %w", err)
		}
		return out, nil
	case FormatXML:
		out, err := xmldoc.MarshalString(p.XMLRoot(), p.XMLNode())
		if err != nil {
			return "", fmt.Errorf("cannot encode XML payload: %w", err)
		}
		return out, nil
	default:
		return "", &ConfigError{Err: ErrInvalidConfig, Detail: fmt.Sprintf(`request format "%s" is not supported`, format)}
	}
}

// Ping checks the API is reachable and the API key is accepted.
func (a *API) Ping(ctx context.Context) (Result, error) {
	return a.Execute(ctx, http.MethodGet, PingPath, "")
}

// Fetch is Execute with defaults, an empty verb means GET and an empty url means the Ping endpoint.
func (a *API) Fetch(ctx context.Context, verb, url, body string) (Result, error) {
	if verb == "" {
		verb = http.MethodGet
	}
	if url == "" {
		url = PingPath
	}
	return a.Execute(ctx, verb, url, body)
}

// AllColumns lists all database columns.
func (a *API) AllColumns(ctx context.Context) (Result, error) {
	return a.Execute(ctx, http.MethodGet, DatabasePath, "")
}

// ColumnDetails returns details of the database column.
func (a *API) ColumnDetails(ctx context.Context, name string) (Result, error) {
	if name == "" {
		return Result{}, &ConfigError{Err: ErrInvalidURL, Detail: "column name is empty"}
	}
	return a.Execute(ctx, http.MethodGet, DatabasePath+"/"+url.PathEscape(name), "")
}

// AddCustomColumn adds a custom database column, the body is serialized in the request format.
func (a *API) AddCustomColumn(ctx context.Context, name, columnType string, size int) (Result, error) {
	return a.Post(ctx, DatabasePath, ColumnAdd{ColumnName: name, ColumnType: columnType, ColumnSize: size})
}

// Post sends the payload serialized in the request format.
func (a *API) Post(ctx context.Context, path string, p Payload) (Result, error) {
	cfg := a.Config()
	body, err := EncodePayload(cfg.RequestFormat(), p)
	if err != nil {
		return Result{}, err
	}
	return a.execute(ctx, cfg, http.MethodPost, path, body)
}
