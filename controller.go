package trimpotd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/mdouchement/logger"
	"github.com/trimpotd/trimpotd/mcp4x"
)

type Controller struct {
	pot      Digipot
	sensor   Sensor
	shaper   Shaper
	events   chan event
	manual   chan manualOp
	done     chan struct{}
	listener net.Listener
	ticker   *time.Ticker
	reassert time.Duration
	park     bool
	pots     map[mcp4x.Channel]Pot
	active   map[mcp4x.Channel]Evaluation
	pending  map[mcp4x.Channel]Evaluation
	pinned   map[mcp4x.Channel]Evaluation
}

func New(cfg Config, pot Digipot, sensor Sensor, shaper Shaper) (*Controller, error) {
	c := &Controller{
		pot:      pot,
		sensor:   sensor,
		shaper:   shaper,
		events:   make(chan event, 10),
		manual:   make(chan manualOp),
		done:     make(chan struct{}),
		ticker:   time.NewTicker(cfg.Polling.Duration),
		reassert: cfg.Device.Reassert.Duration,
		park:     cfg.Device.ParkOnExit,
		pots:     make(map[mcp4x.Channel]Pot),
		active:   make(map[mcp4x.Channel]Evaluation),
		pending:  make(map[mcp4x.Channel]Evaluation),
		pinned:   make(map[mcp4x.Channel]Evaluation),
	}

	for _, pot := range cfg.PotSettings {
		c.pots[pot.Channel] = *pot
	}

	err := os.MkdirAll(filepath.Dir(cfg.Socket), 0o755)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if _, err := os.Stat(cfg.Socket); err == nil {
		fmt.Printf("Removing existing %s\n", cfg.Socket)
		os.Remove(cfg.Socket)
	}
	c.listener, err = net.Listen("unix", cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	return c, nil
}

func (c *Controller) Launch(ctx context.Context) {
	log := logger.LogWith(ctx)

	go c.eventLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", c.monitor(log))
	mux.HandleFunc("/set", c.set(log))
	mux.HandleFunc("/release", c.release(log))
	mux.HandleFunc("/shutdown", c.shutdown(log))
	go func() {
		for {
			log.Info("Starting HTTP server on ", c.listener.Addr().String())
			err := http.Serve(c.listener, mux)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Error("Could not serve HTTP")
			}
			time.Sleep(2 * time.Second)
		}
	}()

	evalCh := make(chan map[mcp4x.Channel]Evaluation, 1)
	go c.gatherTemperatures(ctx, log, evalCh)
	go c.apply(ctx, log, evalCh)

	go func() {
		<-ctx.Done()
		c.ticker.Stop()
		if err := c.listener.Close(); err != nil {
			log.WithError(err).Error("Could not close socket listener")
		}
		if err := os.Remove(c.listener.Addr().String()); err != nil && !os.IsNotExist(err) {
			// listener.Close() should close the socket but ceinture et bretelles!
			log.WithError(err).Errorf("Could not remove socket %s", c.listener.Addr().String())
		}
	}()
}

// Wait blocks until the hardware writer has finished its teardown, parking
// included. Close the transport only after Wait returns.
func (c *Controller) Wait() {
	<-c.done
}

// eventLoop owns the watcher registry and the broadcast snapshot. Nothing
// here touches the hardware.
func (c *Controller) eventLoop(ctx context.Context) {
	log := logger.LogWith(ctx)
	watchers := map[int64]chan<- []byte{}
	snapshot := map[mcp4x.Channel]Evaluation{}

	broadcast := func() {
		payload, err := json.Marshal(slices.Collect(maps.Values(snapshot)))
		if err != nil {
			log.WithError(err).Error("Could not serialize evaluations") // Should never happen
			return
		}

		for _, watcher := range watchers {
			select {
			case watcher <- payload:
			default:
				// A stalled monitor must not stall the daemon.
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			for id, watcher := range watchers {
				close(watcher)
				delete(watchers, id)
			}
			return
		case e := <-c.events:
			switch e.name {
			case eventUpdateEval:
				snapshot[e.eval.Pot] = e.eval
				broadcast()
			case eventWatch:
				watchers[e.monitorID] = e.monitor
				broadcast()
			case eventUnwatch:
				close(watchers[e.monitorID])
				delete(watchers, e.monitorID)
			}
		}
	}
}

func (c *Controller) gatherTemperatures(ctx context.Context, log logger.Logger, ch chan<- map[mcp4x.Channel]Evaluation) {
	defer close(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ticker.C:
			temps, err := c.sensor.Temperatures()
			if err != nil {
				log.WithError(err).Error("Could not read temperature sensors")
				continue
			}

			select {
			case ch <- c.shaper.Eval(temps):
			case <-ctx.Done():
				return
			}
		}
	}
}

// apply is the only goroutine that talks to the hardware. It owns the
// active/pending/pinned maps so no locking is needed around the device.
func (c *Controller) apply(ctx context.Context, log logger.Logger, evalCh <-chan map[mcp4x.Channel]Evaluation) {
	defer close(c.done)

	var reassertCh <-chan time.Time
	if c.reassert > 0 {
		t := time.NewTicker(c.reassert)
		defer t.Stop()
		reassertCh = t.C
	}

	for {
		select {
		case <-ctx.Done():
			c.parkAll(log)
			return
		case evals, ok := <-evalCh:
			if !ok {
				evalCh = nil
				continue
			}
			c.applyEvals(log, evals)
		case op := <-c.manual:
			c.applyManual(log, op)
		case <-reassertCh:
			c.reassertActive(log)
		}
	}
}

func (c *Controller) applyEvals(log logger.Logger, evals map[mcp4x.Channel]Evaluation) {
	for pot, eval := range evals {
		if _, ok := c.pinned[pot]; ok {
			// Manual pin wins until released.
			continue
		}

		if sa, ok := c.active[pot]; ok {
			if eval.Position == sa.Position {
				// No change, just reset everything.
				delete(c.pending, pot)
				continue
			}

			// Setup base variables for delay computing.
			d := c.pots[pot].SlewUp.Duration
			if eval.Position < sa.Position {
				d = c.pots[pot].SlewDown.Duration
			}

			// Do we need to await certain time before moving the wiper?
			if d > 0 {
				sp, ok := c.pending[pot]
				if !ok {
					// First change, store for later
					c.pending[pot] = eval
					continue
				}

				if eval.EvaluatedAt.Sub(sp.EvaluatedAt) < d {
					// Still awaiting the specified delay, await next iteration.
					continue
				}

				// Delay reached, reset the map and move the wiper.
				delete(c.pending, pot)
			}
		}

		log.Infof("Set position %d for pot%d(%s) on %s of %.0f°C", eval.Position, eval.Pot, eval.Label, strconv.Quote(eval.TemperatureName), eval.Temperature)
		if err := c.pot.SetPosition(pot, eval.Position); err != nil {
			log.WithError(err).Errorf("Could not set position for pot%d", pot)
			continue
		}

		c.active[pot] = eval
		c.events <- event{name: eventUpdateEval, eval: eval}
	}
}

func (c *Controller) applyManual(log logger.Logger, op manualOp) {
	targets := []mcp4x.Channel{op.pot}
	if op.pot == mcp4x.AllChannels {
		targets = slices.Sorted(maps.Keys(c.pots))
	}

	switch op.kind {
	case opPin:
		if err := c.pot.SetPosition(op.pot, op.position); err != nil {
			op.reply <- err
			return
		}

		for _, pot := range targets {
			eval := Evaluation{
				Pot:         pot,
				EvaluatedAt: time.Now(),
				Label:       c.pots[pot].Label,
				Position:    op.position,
				Manual:      true,
			}
			c.pinned[pot] = eval
			c.active[pot] = eval
			delete(c.pending, pot)
			c.events <- event{name: eventUpdateEval, eval: eval}
		}

		log.Infof("Pinned position %d for %s", op.position, op.pot)
		op.reply <- nil

	case opShutdown:
		if err := c.pot.Shutdown(op.pot); err != nil {
			op.reply <- err
			return
		}

		for _, pot := range targets {
			eval := Evaluation{
				Pot:         pot,
				EvaluatedAt: time.Now(),
				Label:       c.pots[pot].Label,
				Shutdown:    true,
				Manual:      true,
			}
			c.pinned[pot] = eval
			c.active[pot] = eval
			delete(c.pending, pot)
			c.events <- event{name: eventUpdateEval, eval: eval}
		}

		log.Infof("Shutdown %s", op.pot)
		op.reply <- nil

	case opRelease:
		for _, pot := range targets {
			delete(c.pinned, pot)
			delete(c.pending, pot)
			// Dropping the active entry forces the next evaluation through,
			// delay-free. Required to wake a pot out of shutdown.
			delete(c.active, pot)
		}

		log.Infof("Released %s", op.pot)
		op.reply <- nil
	}
}

func (c *Controller) reassertActive(log logger.Logger) {
	for pot, eval := range c.active {
		if eval.Shutdown {
			continue
		}

		log.Debugf("Reassert position %d for pot%d", eval.Position, pot)
		if err := c.pot.SetPosition(pot, eval.Position); err != nil {
			log.WithError(err).Errorf("Could not reassert position for pot%d", pot)
		}
	}
}

func (c *Controller) parkAll(log logger.Logger) {
	if !c.park {
		return
	}

	log.Info("Parking pots (shutdown)")
	if err := c.pot.Shutdown(mcp4x.AllChannels); err != nil {
		log.WithError(err).Error("Could not park pots")
	}
}

func (c *Controller) do(ctx context.Context, op manualOp) error {
	op.reply = make(chan error, 1)

	select {
	case c.manual <- op:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-op.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) monitor(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Client connected")

		// Set http headers required for SSE.
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		disconnected := r.Context().Done()

		id := genID()
		ch := make(chan []byte, 20)
		c.events <- event{name: eventWatch, monitorID: id, monitor: ch}

		rc := http.NewResponseController(w)
		for {
			select {
			case <-disconnected:
				log.Info("Client disconnected")
				c.events <- event{name: eventUnwatch, monitorID: id}
				return
			case payload, ok := <-ch:
				if !ok {
					// Daemon teardown closed the stream.
					return
				}

				_, err := w.Write(append(payload, '\n', '\n'))
				if err != nil {
					log.WithError(err).Error("Could not write monitor SSE payload")
					return
				}

				err = rc.Flush()
				if err != nil {
					log.WithError(err).Error("Could not flush monitor SSE payload")
					return
				}
			}
		}
	}
}

func (c *Controller) set(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var params struct {
			Pot      int  `json:"pot"`
			Position *int `json:"position"`
		}
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if params.Position == nil || *params.Position < 0 || *params.Position > 255 {
			http.Error(w, "position must be in range [0,255]", http.StatusBadRequest)
			return
		}

		pot, err := parsePot(params.Pot)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = c.do(r.Context(), manualOp{kind: opPin, pot: pot, position: uint8(*params.Position)})
		if err != nil {
			log.WithError(err).Errorf("Could not pin %s", pot)
			http.Error(w, err.Error(), opStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Controller) release(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pot, err := decodePot(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = c.do(r.Context(), manualOp{kind: opRelease, pot: pot})
		if err != nil {
			log.WithError(err).Errorf("Could not release %s", pot)
			http.Error(w, err.Error(), opStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Controller) shutdown(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pot, err := decodePot(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = c.do(r.Context(), manualOp{kind: opShutdown, pot: pot})
		if err != nil {
			log.WithError(err).Errorf("Could not shutdown %s", pot)
			http.Error(w, err.Error(), opStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func decodePot(r *http.Request) (mcp4x.Channel, error) {
	var params struct {
		Pot int `json:"pot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		return 0, err
	}

	return parsePot(params.Pot)
}

func parsePot(pot int) (mcp4x.Channel, error) {
	switch pot {
	case 0:
		return mcp4x.Channel0, nil
	case 1:
		return mcp4x.Channel1, nil
	case 2:
		return mcp4x.AllChannels, nil
	default:
		return 0, errors.New("pot must be 0, 1 or 2 (all)")
	}
}

func opStatus(err error) int {
	if errors.Is(err, mcp4x.ErrWrongChannel) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
