package remote

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func testServer(psk string) *Server {
	fs := vfs.NewMemFS()
	_ = vfs.Seed(fs)
	return &Server{
		PSK: []byte(psk),
		NewSession: func() *term.Interpreter {
			return term.NewInterpreter(term.NewRegistry(), fs, &platform.FixedServices{Time: time.Unix(0, 0)})
		},
	}
}

func TestHandshakeAndCommand(t *testing.T) {
	srv := testServer("secret-key-123")
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handle(server)
		close(done)
	}()

	if err := Authenticate(client, []byte("secret-key-123")); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	r := bufio.NewReader(client)
	banner, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read banner: %v", err)
	}
	if !strings.Contains(banner, "oasis") {
		t.Errorf("banner = %q", banner)
	}

	if _, err := client.Write([]byte("echo over-the-wire\n")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	_ = client.SetReadDeadline(deadline)
	var saw bool
	for i := 0; i < 10; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		if strings.Contains(line, "over-the-wire") {
			saw = true
			break
		}
	}
	if !saw {
		t.Error("command output never arrived")
	}

	client.Write([]byte("exit\n"))
	client.Close()
	<-done
}

func TestHandshakeRejectsBadPSK(t *testing.T) {
	srv := testServer("right-key-000")
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handle(server)
		close(done)
	}()

	if err := Authenticate(client, []byte("wrong-key-999")); err != nil {
		t.Fatalf("client handshake write failed early: %v", err)
	}
	// Failed auth closes silently: no banner, just EOF.
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err == nil && n > 0 {
		t.Errorf("server sent %q after failed auth, want silent close", buf[:n])
	}
	client.Close()
	<-done
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := testServer("secret-key-123")

	runSession := func(lines []string) string {
		client, server := net.Pipe()
		done := make(chan struct{})
		go func() {
			srv.handle(server)
			close(done)
		}()
		if err := Authenticate(client, []byte("secret-key-123")); err != nil {
			t.Fatal(err)
		}
		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		var out strings.Builder
		go func() {
			buf := make([]byte, 1024)
			for {
				n, err := client.Read(buf)
				if n > 0 {
					out.WriteString(string(buf[:n]))
				}
				if err != nil {
					return
				}
			}
		}()
		for _, l := range lines {
			client.Write([]byte(l + "\n"))
			time.Sleep(20 * time.Millisecond)
		}
		client.Write([]byte("exit\n"))
		time.Sleep(20 * time.Millisecond)
		client.Close()
		<-done
		return out.String()
	}

	runSession([]string{"set X=first"})
	second := runSession([]string{"echo [$X]"})
	if strings.Contains(second, "[first]") {
		t.Error("variable leaked between sessions")
	}
}
