package web

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastReachesClients(t *testing.T) {
	h := NewHub()
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		h.Run()
	}()
	defer h.Stop()

	client := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- client

	h.BroadcastMessage(Message{Type: MessageTypeStatus, Data: "ok"})

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != MessageTypeStatus {
			t.Fatalf("type = %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the broadcast")
	}
}

func TestHubStopReleasesClientsAndReturns(t *testing.T) {
	h := NewHub()
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		h.Run()
	}()

	client := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- client

	h.Stop()
	h.Stop() // safe twice

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	// The client's send channel is closed so its write pump ends too.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}
}
