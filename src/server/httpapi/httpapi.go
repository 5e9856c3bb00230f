// Package httpapi is the chassis command surface: a gorilla/mux router
// exposing the running Node over HTTP, replacing the teacher's
// card-centric jaspermate-io routes with Node/Point/Chassis routes. As
// with the teacher's handlers, every response is JSON and every error
// comes back as {"error": "..."}.
package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"jasper-mate-utils/src/fxt/node"

	"github.com/gorilla/mux"
)

const serviceName = "jaspermate-fxt-api"

// App owns the currently loaded Node (if any) and the order its chassis
// were started in, so a reload or shutdown can stop them cleanly. A
// *node.Node is immutable after Load, so the mutex here only ever guards
// swapping the pointer itself, never a field within it.
type App struct {
	mu           sync.RWMutex
	n            *node.Node
	chassisOrder []string
	version      string
	onChange     []func(*node.Node)
}

// NewApp returns an App with no node loaded; LoadNode (or the server's
// boot-time auto-load from config.GetNodePath) populates one.
func NewApp(version string) *App {
	return &App{version: version}
}

// NodeOrNil returns the currently loaded node, or nil if none has been
// loaded yet. Used at boot to hand the TCP server whatever LoadNode
// already produced from config.GetNodePath.
func (a *App) NodeOrNil() *node.Node {
	return a.currentNode()
}

// OnNodeChanged registers fn to run every time LoadNode successfully
// swaps in a new node, after the swap. Used to keep the TCP command
// surface's node reference in sync with the HTTP surface's.
func (a *App) OnNodeChanged(fn func(*node.Node)) {
	a.mu.Lock()
	a.onChange = append(a.onChange, fn)
	a.mu.Unlock()
}

// Router builds the complete gorilla/mux router for this App.
func (a *App) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", a.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/fxt/node", a.loadNodeHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/fxt/node", a.nodeInfoHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/fxt/points", a.dumpPointsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/fxt/points/command", a.pointCommandHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/fxt/chassis", a.listChassisHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/fxt/chassis/{name}/start", a.chassisStartHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/fxt/chassis/{name}/stop", a.chassisStopHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/fxt/cards/{id}/reboot", a.cardRebootHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/fxt/cards/{id}/baud", a.cardSetBaudRateHandler).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *App) currentNode() *node.Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.n
}

func (a *App) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	loaded := a.currentNode() != nil
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    serviceName,
		"version":    a.version,
		"nodeLoaded": loaded,
	})
}

// LoadNode builds a Node from raw configuration JSON, stops and discards
// any previously loaded node, and starts every chassis the document
// named, in n.Chassis map iteration order (not document order; the
// order is not defined). Exposed both to the HTTP handler and to
// main's boot-time auto-load from config.GetNodePath.
func (a *App) LoadNode(raw []byte) error {
	n, err := node.Load(raw)
	if err != nil {
		return err
	}

	order := make([]string, 0, len(n.Chassis))
	for name := range n.Chassis {
		order = append(order, name)
	}

	if err := n.StartAll(order); err != nil {
		return err
	}

	a.mu.Lock()
	old, oldOrder := a.n, a.chassisOrder
	a.n, a.chassisOrder = n, order
	listeners := append([]func(*node.Node){}, a.onChange...)
	a.mu.Unlock()

	if old != nil {
		if err := old.StopAll(oldOrder); err != nil {
			log.Printf("httpapi: stopping previous node: %v", err)
		}
	}
	for _, fn := range listeners {
		fn(n)
	}
	return nil
}

func (a *App) loadNodeHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := readAll(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.LoadNode(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) nodeInfoHandler(w http.ResponseWriter, r *http.Request) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points":     n.DB.Len(),
		"cards":      len(n.Cards),
		"components": len(n.Components),
		"chains":     len(n.Chains),
		"chassis":    len(n.Chassis),
	})
}

func (a *App) dumpPointsHandler(w http.ResponseWriter, r *http.Request) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return
	}
	raw, err := n.DB.DumpAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// pointCommandHandler applies one runtime point-command JSON object
// (see point.Database.ApplyCommand) on the owning chassis's own
// goroutine via Post, so a write never races that chassis's
// scan/execute/flush cycle. Since a command names a point rather than a
// chassis, it is posted to every running chassis; only the one that
// actually owns the point will find it and apply it, the rest are no-ops
// racing nothing since ApplyCommand itself is safe to call concurrently.
func (a *App) pointCommandHandler(w http.ResponseWriter, r *http.Request) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return
	}
	raw, err := readAll(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

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
		writeError(w, http.StatusNotFound, "node has no chassis to apply the command on")
		return
	}
	if err := <-errCh; err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) listChassisHandler(w http.ResponseWriter, r *http.Request) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return
	}
	out := make(map[string]interface{}, len(n.Chassis))
	for name, ch := range n.Chassis {
		out[name] = map[string]interface{}{
			"tick": ch.Tick(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chassis": out})
}

func (a *App) chassisStartHandler(w http.ResponseWriter, r *http.Request) {
	a.chassisLifecycle(w, r, func(ch chassisStarter) error { return ch.Start() })
}

func (a *App) chassisStopHandler(w http.ResponseWriter, r *http.Request) {
	a.chassisLifecycle(w, r, func(ch chassisStarter) error { return ch.Stop() })
}

// chassisStarter is satisfied by *chassis.Chassis; named locally so
// chassisLifecycle doesn't need to import the chassis package just to
// spell out the method set.
type chassisStarter interface {
	Start() error
	Stop() error
}

func (a *App) chassisLifecycle(w http.ResponseWriter, r *http.Request, do func(chassisStarter) error) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return
	}
	name := mux.Vars(r)["name"]
	ch, ok := n.Chassis[name]
	if !ok {
		writeError(w, http.StatusNotFound, "chassis not found")
		return
	}
	if err := do(ch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rebooter and baudSetter are satisfied by *card.AsyncCard backed by a
// driver that supports the corresponding operation (modbusio.Driver
// does); named locally to avoid importing the card package just to
// spell out the method set, matching chassisStarter above.
type rebooter interface {
	Reboot() error
}

type baudSetter interface {
	SetBaudRate(int) error
}

// cardRebootHandler and cardSetBaudRateHandler power-cycle or reconfigure
// one physical slave card. They run on the caller's goroutine rather
// than posting through the owning chassis: these act on the driver's
// own device session, not on the card's Virtual Points, so they can't
// race a scan/execute/flush cycle the way a point write could.
func (a *App) cardRebootHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := a.lookupCard(w, r)
	if !ok {
		return
	}
	rb, ok := c.(rebooter)
	if !ok {
		writeError(w, http.StatusBadRequest, "card does not support reboot")
		return
	}
	if err := rb.Reboot(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) cardSetBaudRateHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := a.lookupCard(w, r)
	if !ok {
		return
	}
	bs, ok := c.(baudSetter)
	if !ok {
		writeError(w, http.StatusBadRequest, "card does not support baud rate changes")
		return
	}
	raw, err := readAll(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Baud int `json:"baud"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := bs.SetBaudRate(req.Baud); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) lookupCard(w http.ResponseWriter, r *http.Request) (interface{}, bool) {
	n := a.currentNode()
	if n == nil {
		writeError(w, http.StatusNotFound, "no node loaded")
		return nil, false
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return nil, false
	}
	c, ok := n.Cards[uint32(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "card not found")
		return nil, false
	}
	return c, true
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
