// Package soap is minimal SOAP 1.1 transport over http.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/cloudcopper/bcx/ports"
)

const (
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	contentType       = "text/xml; charset=utf-8"
	maxResponseSize   = 64 << 20
)

// Fault is SOAP fault returned by server
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		Inner string `xml:",innerxml"`
	} `xml:"detail"`
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return f.String
	}
	return fmt.Sprintf("%v: %v", f.Code, f.String)
}

type requestEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	Soap    string   `xml:"xmlns:soap,attr"`
	Body    struct {
		Content interface{}
	} `xml:"soap:Body"`
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *Fault `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// Client implements ports.ControlTransport
type Client struct {
	log  ports.Logger
	http *http.Client
	url  string

	mu           sync.Mutex
	lastRequest  string
	lastResponse string
}

func NewClient(log ports.Logger, httpClient *http.Client, url string) *Client {
	log = log.With(slog.String("entity", "SoapClient"), slog.String("url", url))
	return &Client{
		log:  log,
		http: httpClient,
		url:  url,
	}
}

// Call posts req wrapped in envelope and decodes body of reply into resp.
// A SOAP fault in reply is returned as *Fault.
func (c *Client) Call(ctx context.Context, action string, req interface{}, resp interface{}) error {
	log := c.log.With(slog.String("action", action))

	env := requestEnvelope{Soap: EnvelopeNamespace}
	env.Body.Content = req
	payload, err := xml.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	payload = append([]byte(xml.Header), payload...)
	c.remember(string(payload), "")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("SOAPAction", fmt.Sprintf("%q", action))

	log.Debug("call", slog.Int("size", len(payload)))
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.remember(string(payload), string(data))
	log.Debug("reply", slog.Int("status", httpResp.StatusCode), slog.Int("size", len(data)))

	var renv responseEnvelope
	if err := xml.Unmarshal(data, &renv); err != nil {
		if httpResp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("http status %d", httpResp.StatusCode)
		}
		return fmt.Errorf("decode envelope: %w", err)
	}
	if renv.Body.Fault != nil {
		return renv.Body.Fault
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("http status %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil
	}
	if err := xml.Unmarshal(renv.Body.Inner, resp); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (c *Client) remember(req, resp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRequest, c.lastResponse = req, resp
}

func (c *Client) LastRequest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequest
}

func (c *Client) LastResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// WriteEnvelope writes content wrapped in SOAP envelope.
// Used by servers speaking the same protocol.
func WriteEnvelope(w io.Writer, content interface{}) error {
	env := requestEnvelope{Soap: EnvelopeNamespace}
	env.Body.Content = content
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(env)
}

// WriteFault writes fault wrapped in SOAP envelope
func WriteFault(w io.Writer, code, msg string) error {
	type fault struct {
		XMLName xml.Name `xml:"soap:Fault"`
		Code    string   `xml:"faultcode"`
		String  string   `xml:"faultstring"`
	}
	return WriteEnvelope(w, fault{Code: code, String: msg})
}

// ReadEnvelope decodes body content of envelope read from r into content
func ReadEnvelope(r io.Reader, content interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseSize))
	if err != nil {
		return err
	}
	var env responseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return err
	}
	return xml.Unmarshal(env.Body.Inner, content)
}
