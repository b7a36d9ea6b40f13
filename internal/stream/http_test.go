package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWriteWAVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAVHeader(&buf, 48000); err != nil {
		t.Fatal(err)
	}
	hdr := buf.Bytes()
	if len(hdr) != 44 {
		t.Fatalf("header length = %d, want 44", len(hdr))
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", hdr)
	}
	if ch := binary.LittleEndian.Uint16(hdr[22:]); ch != 2 {
		t.Errorf("channels = %d, want 2", ch)
	}
	if rate := binary.LittleEndian.Uint32(hdr[24:]); rate != 48000 {
		t.Errorf("sample rate = %d, want 48000", rate)
	}
	if br := binary.LittleEndian.Uint32(hdr[28:]); br != 48000*4 {
		t.Errorf("byte rate = %d, want %d", br, 48000*4)
	}
}

func TestHTTPHandlerStreamsPCM(t *testing.T) {
	b := NewBroadcaster(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16, 1)
	go b.Run(ctx, source)

	srv := httptest.NewServer(NewHTTPHandler(b, 8000))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", ct)
	}

	hdr := make([]byte, 44)
	if _, err := io.ReadFull(resp.Body, hdr); err != nil {
		t.Fatalf("read header: %v", err)
	}

	// The listener is registered before the header is flushed.
	source <- []int16{256, -1}

	pcm := make([]byte, 4)
	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(resp.Body, pcm)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("read pcm: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for PCM")
	}
	want := []byte{0x00, 0x01, 0xff, 0xff}
	if !bytes.Equal(pcm, want) {
		t.Errorf("pcm = % x, want % x", pcm, want)
	}
}
