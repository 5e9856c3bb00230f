// Package tcp implements the push command surface for a single
// commissioning client: unlike the HTTP command surface, which is
// stateless request/response, the TCP surface holds one connection open
// and pushes point state to it as it changes, accepting batched
// point-command writes back.
package tcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"jasper-mate-utils/src/fxt/node"
)

// TCPServer manages the single commissioning-client TCP connection.
type TCPServer struct {
	listener   net.Listener
	clientConn *ClientConnection
	mu         sync.RWMutex
	n          *node.Node
	stopChan   chan struct{}
	port       string
	version    string
	localOnly  bool // if true, only accept connections from localhost
}

// ClientConnection represents the one connected TCP client.
type ClientConnection struct {
	conn    net.Conn
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// PointUpdateMessage is pushed to the client on every update tick.
type PointUpdateMessage struct {
	Type   string            `json:"type"`
	Points []json.RawMessage `json:"points"`
}

// WelcomeMessage is sent to clients when they connect.
type WelcomeMessage struct {
	Type        string `json:"type"`
	Server      string `json:"server"`
	Version     string `json:"version,omitempty"`
	Protocol    string `json:"protocol"`
	Description string `json:"description"`
}

// WriteCommand is received from TCP clients: always a batch of raw
// point-command JSON objects (see point.Database.ApplyCommand), applied
// in array order.
type WriteCommand struct {
	Type     string            `json:"type"` // always "write"
	Commands []json.RawMessage `json:"commands"`
}

// CommandResult reports the outcome of one command in a batch.
type CommandResult struct {
	Index   int    `json:"index"`
	Status  string `json:"status"` // "ok" or "error"
	Message string `json:"message,omitempty"`
}

// WriteResponse is sent back to TCP clients after a write batch.
type WriteResponse struct {
	Type        string          `json:"type"` // "write-response"
	Status      string          `json:"status"`
	Results     []CommandResult `json:"results,omitempty"`
	Message     string          `json:"message,omitempty"`
	FailedIndex int             `json:"failedIndex,omitempty"`
}

// NewTCPServer creates a new TCP server instance. n may be nil at
// construction if no node has been loaded yet; SetNode attaches one
// later (e.g. once the command surface's /api/fxt/node load completes).
func NewTCPServer(port string, n *node.Node, version string, serveExternally bool) *TCPServer {
	return &TCPServer{
		n:         n,
		stopChan:  make(chan struct{}),
		port:      port,
		version:   version,
		localOnly: !serveExternally,
	}
}

// SetNode swaps the node the server pushes updates from and applies
// writes to. Safe to call concurrently with Start/updateLoop.
func (s *TCPServer) SetNode(n *node.Node) {
	s.mu.Lock()
	s.n = n
	s.mu.Unlock()
}

func (s *TCPServer) node() *node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n
}

// Start starts the TCP server.
func (s *TCPServer) Start() error {
	var addr string
	if s.localOnly {
		addr = "127.0.0.1:" + s.port
	} else {
		addr = "0.0.0.0:" + s.port
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server on %s: %v", addr, err)
	}

	s.listener = listener
	if s.localOnly {
		log.Printf("TCP server listening on %s (localhost only)", addr)
	} else {
		log.Printf("TCP server listening on %s (all interfaces)", addr)
	}

	go s.acceptLoop()
	go s.updateLoop()

	return nil
}

// Stop stops the TCP server.
func (s *TCPServer) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	if s.clientConn != nil {
		s.clientConn.conn.Close()
		s.clientConn = nil
	}
	s.mu.Unlock()
}

// IsConnected returns whether a TCP client is currently connected.
func (s *TCPServer) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientConn != nil
}

func (s *TCPServer) acceptLoop() {
	for {
		select {
		case <-s.stopChan:
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.stopChan:
					return
				default:
					log.Printf("TCP accept error: %v", err)
					continue
				}
			}

			remoteAddr := conn.RemoteAddr().(*net.TCPAddr)
			if s.localOnly {
				if !remoteAddr.IP.IsLoopback() && remoteAddr.IP.String() != "127.0.0.1" {
					log.Printf("TCP connection rejected: non-localhost IP %s", remoteAddr.IP.String())
					conn.Close()
					continue
				}
			}

			s.mu.Lock()
			if s.clientConn != nil {
				log.Printf("TCP connection rejected: client already connected")
				conn.Close()
				s.mu.Unlock()
				continue
			}

			clientConn := &ClientConnection{
				conn:    conn,
				writer:  bufio.NewWriter(conn),
				encoder: json.NewEncoder(conn),
			}
			s.clientConn = clientConn
			s.mu.Unlock()

			log.Printf("TCP client connected from %s", remoteAddr.String())
			s.sendWelcomeMessage(clientConn)

			go s.handleClient(clientConn)
		}
	}
}

// handleClient handles communication with a connected client. When the
// client disconnects, every output point the node's cards own is
// invalidated — mirroring the teacher's write-all-outputs-to-safe-state
// behavior on TCP client loss, since a commissioning client disconnect
// means nothing is actively supervising what it was driving.
func (s *TCPServer) handleClient(clientConn *ClientConnection) {
	defer func() {
		s.mu.Lock()
		wasConnected := s.clientConn == clientConn
		if wasConnected {
			s.clientConn = nil
		}
		s.mu.Unlock()
		clientConn.conn.Close()
		log.Printf("TCP client disconnected")

		if wasConnected {
			if n := s.node(); n != nil {
				log.Printf("commissioning client disconnected - writing all outputs to safe state")
				n.WriteOutputsToSafeState()
			}
		}
	}()

	scanner := bufio.NewScanner(clientConn.conn)
	for scanner.Scan() {
		var cmd WriteCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			log.Printf("TCP: failed to parse command: %v", err)
			continue
		}
		if cmd.Type != "write" {
			log.Printf("TCP: unknown message type: %s", cmd.Type)
			continue
		}
		s.processWriteCommand(&cmd, clientConn)
	}

	if err := scanner.Err(); err != nil {
		log.Printf("TCP: client read error: %v", err)
	}
}

// processWriteCommand applies a batch of point commands, each posted
// onto every running chassis the way httpapi's point command handler
// does, and reports per-command success/failure back to the client.
func (s *TCPServer) processWriteCommand(cmd *WriteCommand, clientConn *ClientConnection) {
	if len(cmd.Commands) == 0 {
		response := WriteResponse{Type: "write-response", Status: "error", Message: "no commands in batch"}
		s.sendResponse(clientConn, response)
		return
	}

	n := s.node()
	if n == nil {
		response := WriteResponse{Type: "write-response", Status: "error", Message: "no node loaded"}
		s.sendResponse(clientConn, response)
		return
	}

	results := make([]CommandResult, len(cmd.Commands))
	response := WriteResponse{Type: "write-response", Status: "ok"}

	for i, raw := range cmd.Commands {
		if err := s.applyCommand(n, raw); err != nil {
			results[i] = CommandResult{Index: i, Status: "error", Message: err.Error()}
			if response.Status == "ok" {
				response.Status = "error"
				response.FailedIndex = i
				response.Message = err.Error()
			}
			continue
		}
		results[i] = CommandResult{Index: i, Status: "ok"}
	}

	response.Results = results
	s.sendResponse(clientConn, response)
}

// applyCommand posts raw onto every running chassis's mailbox so the
// write never races that chassis's scan/execute/flush loop, the same
// pattern httpapi.pointCommandHandler uses.
func (s *TCPServer) applyCommand(n *node.Node, raw json.RawMessage) error {
	errCh := make(chan error, 1)
	posted := false
	for _, ch := range n.Chassis {
		posted = true
		ch.Post(func() {
			select {
			case errCh <- n.DB.ApplyCommand(raw):
			default:
			}
		})
	}
	if !posted {
		return fmt.Errorf("node has no chassis to apply the command on")
	}
	return <-errCh
}

// updateLoop sends periodic point-state snapshots (500ms) to the
// connected client, if any.
func (s *TCPServer) updateLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.RLock()
			clientConn := s.clientConn
			s.mu.RUnlock()
			if clientConn == nil {
				continue
			}

			n := s.node()
			if n == nil {
				continue
			}
			raw, err := n.DB.DumpAll()
			if err != nil {
				log.Printf("TCP: dump points: %v", err)
				continue
			}
			var points []json.RawMessage
			if err := json.Unmarshal(raw, &points); err != nil {
				log.Printf("TCP: decode point dump: %v", err)
				continue
			}
			s.sendUpdate(clientConn, points)
		}
	}
}

func (s *TCPServer) sendWelcomeMessage(clientConn *ClientConnection) {
	clientConn.mu.Lock()
	defer clientConn.mu.Unlock()

	msg := WelcomeMessage{
		Type:        "welcome",
		Server:      "fxt command surface",
		Version:     s.version,
		Protocol:    "JSON",
		Description: "fxt runtime commissioning server - pushes point state updates and accepts point-command writes",
	}
	if err := clientConn.encoder.Encode(msg); err != nil {
		log.Printf("TCP: failed to send welcome message: %v", err)
	}
}

func (s *TCPServer) sendUpdate(clientConn *ClientConnection, points []json.RawMessage) {
	clientConn.mu.Lock()
	defer clientConn.mu.Unlock()

	msg := PointUpdateMessage{Type: "point-update", Points: points}
	if err := clientConn.encoder.Encode(msg); err != nil {
		log.Printf("TCP: failed to send update: %v", err)
	}
}

func (s *TCPServer) sendResponse(clientConn *ClientConnection, response WriteResponse) {
	clientConn.mu.Lock()
	defer clientConn.mu.Unlock()
	if err := clientConn.encoder.Encode(response); err != nil {
		log.Printf("TCP: failed to send write response: %v", err)
	}
}
