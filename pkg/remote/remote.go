// Package remote exposes the shell over the network backend: a
// line-oriented session gated by pre-shared-key authentication.
//
// Handshake: the server sends a random hex challenge line; the client
// answers with hex HMAC-SHA256(psk, challenge). The comparison is
// constant time and a failed handshake closes the stream without a
// diagnostic. Each accepted session runs its own interpreter and
// environment, discarded on disconnect.
package remote

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
)

// challengeBytes is the server nonce length before hex encoding.
const challengeBytes = 16

// Server accepts remote shell sessions.
type Server struct {
	Net backend.NetworkBackend
	PSK []byte
	// NewSession builds a fresh interpreter per connection.
	NewSession func() *term.Interpreter
	Log        *slog.Logger

	listener backend.Listener
}

// Listen binds the server port. Serve must be called to accept.
func (s *Server) Listen(port int) error {
	if len(s.PSK) == 0 {
		return fault.New(fault.Auth, "remote: no pre-shared key configured")
	}
	l, err := s.Net.Listen(port)
	if err != nil {
		return fault.Wrap(fault.Network, "remote: listen", err)
	}
	s.listener = l
	return nil
}

// Serve accepts sessions until the listener closes. The host runs
// this on its own thread; the kernel frame loop is never blocked.
func (s *Server) Serve() {
	for {
		stream, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(stream)
	}
}

// Close shuts the listener down.
func (s *Server) Close() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) handle(stream backend.Stream) {
	defer stream.Close()
	if !s.authenticate(stream) {
		// Silent close: no diagnostic for failed auth.
		return
	}
	if s.Log != nil {
		s.Log.Info("remote session authenticated")
	}
	s.session(stream)
}

// authenticate runs the challenge-response handshake.
func (s *Server) authenticate(stream backend.Stream) bool {
	nonce := make([]byte, challengeBytes)
	if _, err := rand.Read(nonce); err != nil {
		return false
	}
	challenge := hex.EncodeToString(nonce)
	if _, err := io.WriteString(stream, challenge+"\n"); err != nil {
		return false
	}

	r := bufio.NewReader(stream)
	reply, err := r.ReadString('\n')
	if err != nil {
		return false
	}
	reply = strings.TrimRight(reply, "\r\n")

	mac := hmac.New(sha256.New, s.PSK)
	mac.Write([]byte(challenge))
	want := hex.EncodeToString(mac.Sum(nil))

	// Fixed-length constant-time compare; length mismatch fails
	// without short-circuiting on content.
	if len(reply) != len(want) {
		return false
	}
	return hmac.Equal([]byte(reply), []byte(want))
}

// session runs the line loop until exit or disconnect.
func (s *Server) session(stream backend.Stream) {
	interp := s.NewSession()
	r := bufio.NewReader(stream)
	w := bufio.NewWriter(stream)

	writeLine := func(line string) bool {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return false
		}
		return true
	}

	writeLine("oasis remote shell")
	for {
		if !writeLine("") {
			return
		}
		if _, err := w.WriteString(interp.Env.CWD + "> "); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		line, err := r.ReadString('\n')
		if err != nil {
			// Disconnect cancels only this session's output; state is
			// per-session and dropped here.
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		for _, out := range interp.Execute(line) {
			switch out.Kind {
			case term.KindExit:
				_ = w.Flush()
				return
			case term.KindError:
				if out.Err != nil {
					writeLine(out.Err.Kind.String() + ": " + out.Err.Error())
				}
			case term.KindClear:
				// No screen to clear on a line session.
			case term.KindPending:
				writeLine("(command suspended; not supported over remote)")
			default:
				for _, l := range strings.Split(strings.TrimRight(out.TextString(), "\n"), "\n") {
					if l != "" || out.Kind == term.KindText {
						writeLine(l)
					}
				}
			}
		}
	}
}

// Authenticate is the client half of the handshake, exported for the
// host's connect tooling and tests.
func Authenticate(stream backend.Stream, psk []byte) error {
	r := bufio.NewReader(stream)
	challenge, err := r.ReadString('\n')
	if err != nil {
		return fault.Wrap(fault.Network, "read challenge", err)
	}
	mac := hmac.New(sha256.New, psk)
	mac.Write([]byte(strings.TrimRight(challenge, "\r\n")))
	reply := hex.EncodeToString(mac.Sum(nil))
	if _, err := io.WriteString(stream, reply+"\n"); err != nil {
		return fault.Wrap(fault.Network, "send response", err)
	}
	return nil
}
