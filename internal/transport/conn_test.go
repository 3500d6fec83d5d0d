package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/inconshreveable/log15"
	"golang.org/x/text/encoding/charmap"
)

func quietLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

func TestLookupCharmap(t *testing.T) {
	tests := map[string]*charmap.Charmap{
		"":             charmap.ISO8859_1,
		"latin1":       charmap.ISO8859_1,
		"ISO-8859-1":   charmap.ISO8859_1,
		"iso8859_15":   charmap.ISO8859_15,
		"Windows-1252": charmap.Windows1252,
		"cp1251":       charmap.Windows1251,
		"KOI8-R":       charmap.KOI8R,
	}
	for name, want := range tests {
		got, err := lookupCharmap(name)
		if err != nil {
			t.Errorf("lookupCharmap(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("lookupCharmap(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := lookupCharmap("klingon"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("lookupCharmap(klingon) error = %v", err)
	}
}

func TestDecodingReader(t *testing.T) {
	input := "PRIVMSG #chan :caf\xe9\r\nPRIVMSG #chan :café\r\nNOTICE me :plain\r\n"
	r := newDecodingReader(iotest.HalfReader(strings.NewReader(input)), charmap.ISO8859_1.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := "PRIVMSG #chan :café\r\nPRIVMSG #chan :café\r\nNOTICE me :plain\r\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestDecodingReaderSmallReads(t *testing.T) {
	r := newDecodingReader(strings.NewReader("\xfcber\r\n"), charmap.ISO8859_1.NewDecoder())
	out, err := io.ReadAll(iotest.OneByteReader(r))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "über\r\n" {
		t.Errorf("got %q", out)
	}
}

func TestWriteLine(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	c := newConn(client, Config{Logger: quietLogger()}, charmap.ISO8859_1)
	defer c.Close()

	go func() {
		for _, line := range []string{"NICK me\r\n", "USER me 0 * :Me\r\n"} {
			if err := c.WriteLine(line); err != nil {
				t.Error(err)
			}
		}
	}()

	s := bufio.NewScanner(server)
	var got []string
	for len(got) < 2 && s.Scan() {
		got = append(got, s.Text())
	}
	want := []string{"NICK me\r", "USER me 0 * :Me\r"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteLineRateLimited(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go io.Copy(io.Discard, server)

	c := newConn(client, Config{SendRate: 20, SendBurst: 2, Logger: quietLogger()}, charmap.ISO8859_1)
	defer c.Close()

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := c.WriteLine("PING :x\r\n"); err != nil {
			t.Fatal(err)
		}
	}
	// two lines from the burst, two more at 50ms apart
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("4 lines took %v, limiter not applied", elapsed)
	}
}

func TestCloseWakesWriters(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go io.Copy(io.Discard, server)

	c := newConn(client, Config{SendRate: 0.01, SendBurst: 1, Logger: quietLogger()}, charmap.ISO8859_1)
	if err := c.WriteLine("first\r\n"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.WriteLine("second\r\n") }()
	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("WriteLine after Close succeeded")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WriteLine still blocked after Close")
	}
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.WriteString(conn, ":irc.example.net NOTICE * :caf\xe9\r\n")
		bufio.NewReader(conn).ReadString('\n')
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, Config{Addr: ln.Addr().String(), Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	line, err := bufio.NewReader(c.Reader()).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != ":irc.example.net NOTICE * :café\r\n" {
		t.Errorf("line = %q", line)
	}
	if err := c.WriteLine("QUIT\r\n"); err != nil {
		t.Fatal(err)
	}
}

func TestDialErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Dial(ctx, Config{Addr: "127.0.0.1:1", Encoding: "klingon"}); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("bad encoding error = %v", err)
	}
	if _, err := Dial(ctx, Config{Addr: "127.0.0.1:1", Proxy: "gopher://x"}); err == nil {
		t.Error("unsupported proxy scheme accepted")
	}
}
