package path_plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunLive starts the UDP-to-UDP planning loop and blocks until ctx is done
// or the socket fails.
func RunLive(ctx context.Context, cfg AppConfig, logger *zap.Logger) error {
	return runLive(ctx, cfg, logger, clock.New())
}

func runLive(ctx context.Context, cfg AppConfig, logger *zap.Logger, clk clock.Clock) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	addr, err := net.ResolveUDPAddr("udp", cfg.Live.UDPAddr)
	if err != nil {
		return fmt.Errorf("resolve live addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Live.UDPAddr, err)
	}

	sender, err := NewOutputSender(cfg.Output.UDPAddr)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_ = sender.Close()
	}()
	viz, err := StartViz(cfg.Viz, logger)
	if err != nil {
		_ = conn.Close()
		return err
	}

	store := &liveStore{}
	runner := newLiveRunner(cfg, NewPlanner(cfg.Planner, logger), store, sender, viz, logger, clk)
	logger.Info("planner live loop starting",
		zap.String("listen", cfg.Live.UDPAddr),
		zap.String("output", cfg.Output.UDPAddr),
		zap.Float64("hz", cfg.Hz),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenSnapshots(gctx, conn, cfg.Live, store, clk, logger)
	})
	g.Go(func() error {
		return runner.loop(gctx)
	})
	return g.Wait()
}

type liveRunner struct {
	cfg     AppConfig
	planner *Planner
	store   *liveStore
	sender  *OutputSender
	viz     *VizMetrics
	logger  *zap.Logger
	clock   clock.Clock

	t0      time.Time
	lastSeq uint64
}

func newLiveRunner(cfg AppConfig, planner *Planner, store *liveStore, sender *OutputSender, viz *VizMetrics, logger *zap.Logger, clk clock.Clock) *liveRunner {
	return &liveRunner{
		cfg:     cfg,
		planner: planner,
		store:   store,
		sender:  sender,
		viz:     viz,
		logger:  logger,
		clock:   clk,
		t0:      clk.Now(),
	}
}

// loop steps the planner at the configured rate until ctx is done.
func (r *liveRunner) loop(ctx context.Context) error {
	period := time.Duration(float64(time.Second) / r.cfg.Hz)
	ticker := r.clock.Ticker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.cycle(now)
		}
	}
}

// cycle runs one planning step on the newest snapshot. A snapshot older than
// the hold time is treated as missing input.
func (r *liveRunner) cycle(now time.Time) Output {
	simT := now.Sub(r.t0).Seconds()
	snap, receivedAt, seq := r.store.Snapshot()

	hold := time.Duration(r.cfg.Live.HoldSeconds * float64(time.Second))
	if seq == 0 || now.Sub(receivedAt) > hold {
		snap = Snapshot{T: simT}
	} else if snap.T == 0 {
		snap.T = simT
	}
	fresh := seq != r.lastSeq
	r.lastSeq = seq

	if r.viz != nil {
		r.viz.UpdateInput(snap)
	}
	out := r.planner.Step(snap)
	r.sender.Send(out)
	if r.viz != nil {
		r.viz.UpdateOutput(out)
	}

	if r.cfg.Log.Cycles {
		r.logger.Debug("cycle",
			zap.Float64("t", out.T),
			zap.Bool("fresh_input", fresh),
			zap.Stringer("state", out.State),
			zap.Int("waypoints", len(out.Path.WayPoints)),
			zap.Bool("clear", out.Path.Clear),
			zap.Bool("stabilized", out.Stabilized),
			zap.Int("obstacles", len(out.Obstacles)),
			zap.Float64("closest_obstacle", out.ClosestObstacle),
		)
	}
	return out
}

type liveStore struct {
	mu         sync.RWMutex
	last       Snapshot
	receivedAt time.Time
	seq        uint64
}

// Update stores the latest snapshot and advances the sequence counter.
func (s *liveStore) Update(snap Snapshot, receivedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snap
	s.receivedAt = receivedAt
	s.seq++
}

// Snapshot returns the most recent snapshot and metadata.
func (s *liveStore) Snapshot() (Snapshot, time.Time, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.receivedAt, s.seq
}

// listenSnapshots reads snapshot datagrams until ctx is done.
func listenSnapshots(ctx context.Context, conn *net.UDPConn, cfg LiveConfig, store *liveStore, clk clock.Clock, logger *zap.Logger) error {
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	bufSize := cfg.ReadBuffer
	if bufSize <= 0 {
		bufSize = 65536
	}
	buf := make([]byte, bufSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn("snapshot read failed", zap.Error(err))
			continue
		}
		snap, err := parseSnapshot(buf[:n])
		if err != nil {
			logger.Debug("dropping malformed snapshot", zap.Error(err), zap.Int("bytes", n))
			continue
		}
		store.Update(snap, clk.Now())
	}
}

// parseSnapshot decodes a JSON snapshot datagram.
func parseSnapshot(b []byte) (Snapshot, error) {
	var snap Snapshot
	if len(b) == 0 {
		return snap, errors.New("empty payload")
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
