package tcp

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"jasper-mate-utils/src/fxt/node"
)

const testDoc = `{
  "points": [
    {"id":1,"type":"fxt.point.bool","name":"a"},
    {"id":2,"type":"fxt.point.bool","name":"b"}
  ],
  "chassis": [
    {"name":"main","baseIntervalMs":5}
  ]
}`

func newTestNode(t *testing.T) *node.Node {
	t.Helper()
	n, err := node.Load([]byte(testDoc))
	if err != nil {
		t.Fatalf("node.Load: %v", err)
	}
	if err := n.StartAll([]string{"main"}); err != nil {
		t.Fatalf("start node: %v", err)
	}
	t.Cleanup(func() { _ = n.StopAll([]string{"main"}) })
	return n
}

func TestTCPServerWelcomeAndWrite(t *testing.T) {
	n := newTestNode(t)
	srv := NewTCPServer("0", n, "test", false)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.listener = listener
	srv.stopChan = make(chan struct{})
	go srv.acceptLoop()
	go srv.updateLoop()
	defer srv.Stop()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	var welcome WelcomeMessage
	if err := json.Unmarshal(line, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.Type != "welcome" {
		t.Errorf("expected welcome message, got %q", welcome.Type)
	}

	write := WriteCommand{
		Type: "write",
		Commands: []json.RawMessage{
			json.RawMessage(`{"id":1,"valid":true,"val":true}`),
		},
	}
	raw, _ := json.Marshal(write)
	if _, err := conn.Write(append(raw, '\n')); err != nil {
		t.Fatalf("write command: %v", err)
	}

	line, err = reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read write response: %v", err)
	}
	var resp WriteResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("decode write response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok write response, got %+v", resp)
	}

	if v, valid := n.DB.LookupByID(1).ReadBool(); !valid || !v {
		t.Errorf("expected point 1 to be true after write, got valid=%v val=%v", valid, v)
	}
}

func TestTCPServerRejectsSecondClient(t *testing.T) {
	n := newTestNode(t)
	srv := NewTCPServer("0", n, "test", false)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.listener = listener
	srv.stopChan = make(chan struct{})
	go srv.acceptLoop()
	defer srv.Stop()

	first, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial first: %v", err)
	}
	defer first.Close()
	time.Sleep(50 * time.Millisecond)

	second, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial second: %v", err)
	}
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 16)
	n2, err := second.Read(buf)
	if err == nil && n2 > 0 {
		t.Fatalf("expected second client connection to be closed without data, got %d bytes", n2)
	}
}
