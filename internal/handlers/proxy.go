package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"aquadash/internal/backend"

	"github.com/gin-gonic/gin"
)

// ProxyForwarder rewrites client JSON requests into the query-string/form
// shape the upstream script service expects and relays the raw reply. It
// exists for clients that speak the upstream action protocol directly; the
// typed /api/v1 routes are the preferred surface.
type ProxyForwarder struct {
	target string
	http   *http.Client
}

func NewProxyForwarder(target string, timeout time.Duration) *ProxyForwarder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProxyForwarder{
		target: strings.TrimRight(strings.TrimSpace(target), "/"),
		http:   &http.Client{Timeout: timeout},
	}
}

// @Summary      Raw upstream forwarder
// @Description  GET requires a recognized action parameter; query parameters are forwarded verbatim. POST JSON bodies are re-encoded as form data. The upstream body and status are relayed unchanged.
// @Tags         proxy
// @Success      200  {string}  string
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/proxy [get]
func (h *Handler) proxyForward(c *gin.Context) {
	if h.proxy == nil || h.proxy.target == "" {
		proxyError(c, http.StatusInternalServerError, "upstream URL not configured")
		return
	}
	h.proxy.forward(c, h)
}

func proxyError(c *gin.Context, code int, msg string) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.JSON(code, gin.H{"status": "error", "message": msg})
}

func (p *ProxyForwarder) forward(c *gin.Context, h *Handler) {
	req := c.Request

	// A bare GET on the forwarder would return the upstream's generic landing
	// response and confuse callers; require a recognized action up front.
	if req.Method == http.MethodGet && !backend.KnownQueryAction(req.URL.Query().Get("action")) {
		proxyError(c, http.StatusBadRequest, "missing or unknown action parameter")
		return
	}

	targetURL, err := p.buildTargetURL(req.URL.Query())
	if err != nil {
		proxyError(c, http.StatusInternalServerError, err.Error())
		return
	}

	var body io.Reader
	contentType := ""
	if req.Method == http.MethodPost {
		form, err := jsonBodyToForm(req.Body)
		if err != nil {
			proxyError(c, http.StatusInternalServerError, fmt.Sprintf("parse request body: %v", err))
			return
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	upReq, err := http.NewRequestWithContext(req.Context(), req.Method, targetURL, body)
	if err != nil {
		proxyError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if contentType != "" {
		upReq.Header.Set("Content-Type", contentType)
	}

	resp, err := p.http.Do(upReq)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("proxy_forward_failed", "err", err, "method", req.Method)
		}
		proxyError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		proxyError(c, http.StatusInternalServerError, err.Error())
		return
	}

	// Relay the raw reply with the upstream status preserved.
	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(resp.StatusCode, "application/json", raw)
}

// buildTargetURL appends all client query parameters to the upstream URL verbatim.
func (p *ProxyForwarder) buildTargetURL(query url.Values) (string, error) {
	u, err := url.Parse(p.target)
	if err != nil {
		return "", fmt.Errorf("parse upstream URL: %w", err)
	}
	q := u.Query()
	for key, vals := range query {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// jsonBodyToForm converts a JSON object body to form values: every top-level
// field is stringified, with objects and arrays serialized to JSON text first.
func jsonBodyToForm(body io.Reader) (url.Values, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	form := url.Values{}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		form.Set(k, fieldString(payload[k]))
	}
	return form, nil
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
