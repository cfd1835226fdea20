package mail

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPRequiresHostAndPort(t *testing.T) {
	// Act
	_, err := NewSMTP(SMTPConfig{Host: "", Port: 0})

	// Assert
	if err != ErrSMTPHostPortRequired {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
}

func TestSendRejectsEmptyRecipients(t *testing.T) {
	// Arrange
	m, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "no-reply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	// Act
	err = m.Send(context.Background(), Message{Subject: "hello"})

	// Assert
	if err != ErrSMTPNoRecipients {
		t.Fatalf("expected ErrSMTPNoRecipients, got %v", err)
	}
}

func TestSendHonorsContextDeadline(t *testing.T) {
	// Arrange: a server that accepts the connection and never replies.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, aErr := ln.Accept()
			if aErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				_, _ = io.Copy(io.Discard, c)
			}(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	m, err := NewSMTP(SMTPConfig{Host: host, Port: port, From: "no-reply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Act
	start := time.Now()
	err = m.Send(ctx, Message{
		To:       []string{"user@example.com"},
		Subject:  "hello",
		TextBody: "body",
	})
	elapsed := time.Since(start)

	// Assert
	if err == nil {
		t.Fatal("expected an error from the unresponsive server")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("send blocked for %v past the deadline", elapsed)
	}
}

func TestBuildBodyMultipart(t *testing.T) {
	// Act
	body, contentType := buildBody(Message{TextBody: "plain", HTMLBody: "<b>rich</b>"})

	// Assert
	if contentType == "text/plain; charset=UTF-8" || contentType == "text/html; charset=UTF-8" {
		t.Fatalf("expected a multipart content type, got %q", contentType)
	}
	for _, want := range []string{"plain", "<b>rich</b>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}
