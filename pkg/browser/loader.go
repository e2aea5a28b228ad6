package browser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// Page is a loaded document ready for rendering.
type Page struct {
	URL string
	// MIME distinguishes the render path: text/html or text/gemini.
	MIME   string
	Body   string
	Status int
}

// URL is a parsed subset URL: scheme, host, port, path.
type URL struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// ParseURL splits scheme://host[:port]/path. Missing ports take the
// scheme default.
func ParseURL(raw string) (URL, error) {
	i := strings.Index(raw, "://")
	if i < 0 {
		return URL{}, fault.Newf(fault.Parse, raw, "url %q: missing scheme", raw)
	}
	u := URL{Scheme: strings.ToLower(raw[:i])}
	rest := raw[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		u.Path = rest[j:]
		rest = rest[:j]
	} else {
		u.Path = "/"
	}
	if j := strings.LastIndexByte(rest, ':'); j >= 0 {
		port, err := strconv.Atoi(rest[j+1:])
		if err != nil {
			return URL{}, fault.Newf(fault.Parse, raw, "url %q: bad port", raw)
		}
		u.Port = port
		rest = rest[:j]
	}
	u.Host = rest
	if u.Host == "" {
		return URL{}, fault.Newf(fault.Parse, raw, "url %q: missing host", raw)
	}
	if u.Port == 0 {
		switch u.Scheme {
		case "http":
			u.Port = 80
		case "https":
			u.Port = 443
		case "gemini":
			u.Port = 1965
		}
	}
	return u, nil
}

// String reassembles the URL.
func (u URL) String() string {
	return fmt.Sprintf("%s://%s:%d%s", u.Scheme, u.Host, u.Port, u.Path)
}

// Loader fetches pages over the network backend. TLS comes from the
// backend's provider; without one, https and gemini degrade to a
// themed error page instead of failing the shell.
type Loader struct {
	Net backend.NetworkBackend
}

// Load fetches a URL. The returned page is always renderable: network
// and protocol failures produce error pages, not errors. Only a
// malformed URL is reported as an error.
func (l *Loader) Load(raw string) (Page, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return Page{}, err
	}
	switch u.Scheme {
	case "http":
		return l.loadHTTP(u, nil), nil
	case "https":
		tls := l.Net.TLS()
		if tls == nil {
			return errorPageFor(u, 0, "TLS unavailable", "This host has no TLS provider; https pages cannot be fetched."), nil
		}
		return l.loadHTTP(u, tls), nil
	case "gemini":
		tls := l.Net.TLS()
		if tls == nil {
			return errorPageFor(u, 0, "TLS unavailable", "Gemini requires TLS and this host has no provider."), nil
		}
		return l.loadGemini(u, tls), nil
	}
	return errorPageFor(u, 0, "Unsupported scheme", "Only http, https and gemini URLs are supported."), nil
}

func errorPageFor(u URL, status int, title, detail string) Page {
	return Page{URL: u.String(), MIME: "text/html", Status: status, Body: ErrorPage(status, title, detail)}
}

func (l *Loader) dial(u URL, tls backend.TLSProvider) (backend.Stream, error) {
	stream, err := l.Net.Connect(u.Host, u.Port)
	if err != nil {
		return nil, fault.Wrap(fault.Network, "connect "+u.Host, err)
	}
	if tls != nil {
		wrapped, err := tls.ClientWrap(stream, u.Host)
		if err != nil {
			stream.Close()
			return nil, fault.Wrap(fault.Network, "tls handshake "+u.Host, err)
		}
		return wrapped, nil
	}
	return stream, nil
}

// loadHTTP speaks minimal HTTP/1.0: one request, read to EOF.
func (l *Loader) loadHTTP(u URL, tls backend.TLSProvider) Page {
	stream, err := l.dial(u, tls)
	if err != nil {
		return errorPageFor(u, 0, "Connection failed", err.Error())
	}
	defer stream.Close()

	req := fmt.Sprintf("GET %s HTTP/1.0\r\nHost: %s\r\nUser-Agent: oasis/1.0\r\nConnection: close\r\n\r\n", u.Path, u.Host)
	if _, err := io.WriteString(stream, req); err != nil {
		return errorPageFor(u, 0, "Request failed", err.Error())
	}

	r := bufio.NewReader(stream)
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return errorPageFor(u, 0, "Empty response", "The server closed the connection before responding.")
	}
	status := parseHTTPStatus(statusLine)

	mime := "text/html"
	for {
		line, err := r.ReadString('\n')
		if err != nil || strings.TrimRight(line, "\r\n") == "" {
			break
		}
		name, val, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "content-type") {
			mime = strings.TrimSpace(strings.Split(val, ";")[0])
		}
	}
	body, _ := io.ReadAll(r)
	if status >= 400 {
		return errorPageFor(u, status, "Server error", fmt.Sprintf("The server answered with status %d.", status))
	}
	return Page{URL: u.String(), MIME: mime, Body: string(body), Status: status}
}

func parseHTTPStatus(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	status, _ := strconv.Atoi(fields[1])
	return status
}

// loadGemini speaks the gemini protocol: URL line, status line, body.
func (l *Loader) loadGemini(u URL, tls backend.TLSProvider) Page {
	stream, err := l.dial(u, tls)
	if err != nil {
		return errorPageFor(u, 0, "Connection failed", err.Error())
	}
	defer stream.Close()

	if _, err := io.WriteString(stream, u.String()+"\r\n"); err != nil {
		return errorPageFor(u, 0, "Request failed", err.Error())
	}
	r := bufio.NewReader(stream)
	header, err := r.ReadString('\n')
	if err != nil {
		return errorPageFor(u, 0, "Empty response", "The server closed the connection before responding.")
	}
	header = strings.TrimRight(header, "\r\n")
	if len(header) < 2 {
		return errorPageFor(u, 0, "Protocol error", "Malformed gemini status line.")
	}
	status, _ := strconv.Atoi(header[:2])
	if status/10 != 2 {
		return errorPageFor(u, status, "Gemini error", fmt.Sprintf("The server answered %q.", header))
	}
	mime := strings.TrimSpace(header[2:])
	if mime == "" {
		mime = "text/gemini"
	}
	body, _ := io.ReadAll(r)
	return Page{URL: u.String(), MIME: strings.Split(mime, ";")[0], Body: string(body), Status: status}
}
