package email

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

// startFakeSMTP accepts one connection and speaks just enough SMTP to
// receive a message.
func startFakeSMTP(t *testing.T) (string, string, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		write("220 localhost ESMTP")

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 localhost")
			case cmd == "DATA":
				write("354 go ahead")
				var data strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					data.WriteString(l)
				}
				write("250 queued")
				received <- data.String()
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("250 OK")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port, received
}

func TestService_SendVerificationEmail(t *testing.T) {
	host, port, received := startFakeSMTP(t)
	svc := NewService(host, port, "", "", "noreply@example.com", logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	link := "http://localhost:3000/user/verify-email?token=abc&email=a%40x.com"
	require.NoError(t, svc.SendVerificationEmail(ctx, "a@x.com", "Alice", link))

	select {
	case msg := <-received:
		assert.Contains(t, msg, "From: noreply@example.com\r\n")
		assert.Contains(t, msg, "To: a@x.com\r\n")
		assert.Contains(t, msg, "Subject: Verification mail\r\n")
		assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
		assert.Contains(t, msg, "Hello, Alice")
		assert.Contains(t, msg, "token=abc&amp;email=a%40x.com")
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestService_SendHonoursCancelledContext(t *testing.T) {
	svc := NewService("127.0.0.1", "1", "", "", "noreply@example.com", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendVerificationEmail(ctx, "a@x.com", "Alice", "http://x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewService_FromDefaultsToUser(t *testing.T) {
	svc := NewService("smtp.example.com", "587", "mailer@example.com", "pw", "", logging.Discard())
	assert.Equal(t, "mailer@example.com", svc.fromEmail)
}

func TestRenderVerificationEmail_EscapesName(t *testing.T) {
	body, err := renderVerificationEmail("<script>alert(1)</script>", "http://localhost:3000/user/verify-email?token=t&email=e")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `href="http://localhost:3000/user/verify-email?token=t&amp;email=e"`)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(logging.NewLoggerWithWriter(&buf, true))

	require.NoError(t, sender.SendVerificationEmail(context.Background(), "a@x.com", "Alice", "http://link"))
	assert.Contains(t, buf.String(), "email=a@x.com")
	assert.Contains(t, buf.String(), "link=http://link")
}
