package mediastream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// dialTestConn upgrades against an httptest server and hands both ends to
// the test.
func dialTestConn(t *testing.T, serve func(*Conn)) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var wg sync.WaitGroup
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(NewConn(ws))
		}()
	}))
	t.Cleanup(func() {
		wg.Wait()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnReadEvent(t *testing.T) {
	got := make(chan *Event, 1)
	client := dialTestConn(t, func(c *Conn) {
		defer c.Close()
		ev, err := c.ReadEvent()
		if err != nil {
			t.Errorf("ReadEvent: %v", err)
			return
		}
		got <- ev
	})

	err := client.WriteMessage(websocket.TextMessage, []byte(`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1"}}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := <-got
	if ev.Event != EventStart || ev.Start == nil || ev.Start.CallSID != "CA1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestConnWriteMedia(t *testing.T) {
	client := dialTestConn(t, func(c *Conn) {
		defer c.Close()
		if err := c.WriteMedia("MZ1", []byte{0xFF, 0x7F}); err != nil {
			t.Errorf("WriteMedia: %v", err)
		}
	})

	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ev, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Event != EventMedia || ev.StreamSID != "MZ1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	audio, err := ev.Audio()
	if err != nil {
		t.Fatalf("Audio: %v", err)
	}
	if len(audio) != 2 || audio[0] != 0xFF {
		t.Fatalf("audio = %x", audio)
	}
}

func TestConnCloseUnblocksRead(t *testing.T) {
	done := make(chan error, 1)
	client := dialTestConn(t, func(c *Conn) {
		go func() {
			_, err := c.ReadEvent()
			done <- err
		}()
		c.Close()
		c.Close() // second close is a no-op
	})
	defer client.Close()

	if err := <-done; err == nil {
		t.Fatal("want read error after close")
	}
}
