// Package pipeline decodes layer 3 frames on sharded workers and fans the
// resulting reports out to reporters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/serialx/hashring"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/interthread"
	"firestige.xyz/gsml3/internal/l3"
	"firestige.xyz/gsml3/internal/l3/mm"
	"firestige.xyz/gsml3/internal/log"
	"firestige.xyz/gsml3/internal/metrics"
	"firestige.xyz/gsml3/internal/reporter"
)

const (
	defaultWorkers     = 4
	defaultHighWater   = 1024
	defaultLowWater    = 256
	defaultIdentityTTL = 10 * time.Minute
	drainPoll          = 50 * time.Millisecond
)

// Config contains pipeline configuration.
type Config struct {
	Workers     int // number of shards, one worker each
	HighWater   int // shard depth at which Submit blocks, 0 = never
	LowWater    int // shard depth at which a blocked Submit resumes
	IdentityTTL time.Duration
	UplinkOnly  bool
	Reporters   []reporter.Reporter
}

// Pipeline shards packets by channel so that frames of one dedicated
// channel are decoded in order, then delivers reports by priority.
type Pipeline struct {
	cfg Config

	ring       *hashring.HashRing
	shardIndex map[string]int
	shards     []*interthread.QueueWithWait[core.Packet]
	reports    *interthread.PriorityQueue[*core.Report]
	messages   *interthread.Map[core.ChannelKey, mm.Message]
	identities *cache.Cache // channel → last mobile identity

	pending atomic.Int64
	idle    *interthread.Semaphore
	seq     atomic.Uint64
	stats   *Metrics

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
}

// New creates a pipeline. Call Start before submitting packets.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.HighWater < 0 {
		cfg.HighWater = defaultHighWater
	}
	if cfg.LowWater < 0 || (cfg.HighWater > 0 && cfg.LowWater >= cfg.HighWater) {
		cfg.LowWater = cfg.HighWater / 4
	}
	if cfg.IdentityTTL <= 0 {
		cfg.IdentityTTL = defaultIdentityTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:        cfg,
		shardIndex: make(map[string]int, cfg.Workers),
		shards:     make([]*interthread.QueueWithWait[core.Packet], cfg.Workers),
		identities: cache.New(cfg.IdentityTTL, cfg.IdentityTTL/2),
		idle:       interthread.NewSemaphore(),
		stats:      &Metrics{},
		ctx:        ctx,
		cancel:     cancel,
	}

	nodes := make([]string, cfg.Workers)
	for i := range nodes {
		nodes[i] = "shard-" + strconv.Itoa(i)
		p.shardIndex[nodes[i]] = i
		p.shards[i] = interthread.NewQueueWithWait[core.Packet](
			interthread.WithRelease(func(core.Packet) { p.done() }),
			interthread.WithGauge(metrics.QueueDepth.WithLabelValues(nodes[i])),
			interthread.WithReleaseCounter(metrics.QueueReleasedTotal.WithLabelValues(nodes[i])),
		)
	}
	p.ring = hashring.New(nodes)

	p.reports = interthread.NewPriorityQueue(reportBefore,
		interthread.WithRelease(func(*core.Report) { p.done() }),
		interthread.WithGauge(metrics.QueueDepth.WithLabelValues("reports")),
		interthread.WithReleaseCounter(metrics.QueueReleasedTotal.WithLabelValues("reports")),
	)
	p.messages = interthread.NewMap[core.ChannelKey, mm.Message](
		interthread.WithGauge(metrics.QueueDepth.WithLabelValues("messages")),
	)
	return p
}

// reportBefore orders reports by priority. Equal priorities keep their
// insertion order.
func reportBefore(a, b *core.Report) bool {
	return a.Priority > b.Priority
}

// Start launches one worker per shard and the report loop.
func (p *Pipeline) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already started")
	}
	log.GetLogger().WithFields(map[string]interface{}{
		"workers":    p.cfg.Workers,
		"highWater":  p.cfg.HighWater,
		"lowWater":   p.cfg.LowWater,
		"uplinkOnly": p.cfg.UplinkOnly,
		"reporters":  len(p.cfg.Reporters),
	}).Info("pipeline starting")

	for i, shard := range p.shards {
		p.wg.Add(1)
		go p.worker(i, shard)
	}
	p.wg.Add(1)
	go p.reportLoop()
	return nil
}

// Submit queues pkt on the shard owning its channel. It blocks while that
// shard is at or above the high water mark.
func (p *Pipeline) Submit(pkt core.Packet) error {
	if p.closed.Load() {
		return core.ErrPipelineStopped
	}
	shard := p.shardFor(pkt.Channel)
	if p.cfg.HighWater > 0 && shard.Size() >= p.cfg.HighWater {
		p.stats.Throttled.Add(1)
		shard.Wait(p.cfg.LowWater)
	}
	p.stats.Submitted.Add(1)
	p.pending.Add(1)
	// after Stop the shard releases the packet, which settles pending
	shard.Write(pkt)
	return nil
}

func (p *Pipeline) shardFor(ch core.ChannelKey) *interthread.QueueWithWait[core.Packet] {
	node, ok := p.ring.GetNode(ch.String())
	if !ok {
		return p.shards[0]
	}
	return p.shards[p.shardIndex[node]]
}

// done settles one submitted packet.
func (p *Pipeline) done() {
	if p.pending.Add(-1) == 0 {
		p.idle.Post()
	}
}

func (p *Pipeline) worker(id int, shard *interthread.QueueWithWait[core.Packet]) {
	defer p.wg.Done()
	logger := log.GetLogger().WithField("shard", id)
	logger.Debug("worker started")

	for {
		pkt, ok := shard.Read()
		if !ok {
			if p.closed.Load() {
				logger.Debug("worker stopped")
				return
			}
			continue
		}
		p.process(pkt)
	}
}

// process decodes one packet and queues its report. Every path either
// queues a report or settles the packet.
func (p *Pipeline) process(pkt core.Packet) {
	if p.cfg.UplinkOnly && !pkt.Uplink {
		p.skip()
		return
	}
	if len(pkt.Payload) > 0 && l3.ProtocolDiscriminator(pkt.Payload[0]&0x0f) != l3.PDMobilityManagement {
		p.skip()
		return
	}

	start := time.Now()
	msg, err := mm.ParseBytes(pkt.Payload)
	metrics.DecodeLatencySeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		p.reports.Write(p.errorReport(pkt, err))
		return
	}

	p.stats.Decoded.Add(1)
	metrics.FramesTotal.WithLabelValues("decoded").Inc()
	metrics.MessagesTotal.WithLabelValues(msg.MessageType().String()).Inc()

	p.messages.Write(pkt.Channel, msg)
	p.reports.Write(p.messageReport(pkt, msg))
}

func (p *Pipeline) skip() {
	p.stats.Skipped.Add(1)
	metrics.FramesTotal.WithLabelValues("skipped").Inc()
	p.done()
}

func (p *Pipeline) envelope(pkt core.Packet) *core.Report {
	return &core.Report{
		Sequence:    p.seq.Add(1),
		Priority:    core.PriorityNormal,
		Timestamp:   pkt.Timestamp,
		Channel:     pkt.Channel,
		Uplink:      pkt.Uplink,
		FrameNumber: pkt.FrameNumber,
		Labels: core.Labels{
			core.LabelGSMTAPARFCN:    strconv.Itoa(int(pkt.Channel.ARFCN)),
			core.LabelGSMTAPTimeslot: strconv.Itoa(int(pkt.Channel.Timeslot)),
			core.LabelGSMTAPChannel:  pkt.Channel.String(),
			core.LabelGSMTAPFrame:    strconv.FormatUint(uint64(pkt.FrameNumber), 10),
		},
	}
}

func (p *Pipeline) messageReport(pkt core.Packet, msg mm.Message) *core.Report {
	r := p.envelope(pkt)
	r.MessageType = msg.MessageType().String()
	r.Summary = msg.String()
	r.Message = msg
	r.Labels[core.LabelMMType] = r.MessageType

	key := pkt.Channel.String()
	if id, ok := mm.IdentityOf(msg); ok && id.Type != l3.IdentityNone {
		r.Identity = id.String()
		p.identities.SetDefault(key, r.Identity)
		r.Labels[core.LabelMMIdentity] = r.Identity
	} else if cached, ok := p.identities.Get(key); ok {
		r.Identity = cached.(string)
	}
	if cause, ok := mm.CauseOf(msg); ok {
		r.Labels[core.LabelMMCause] = cause.String()
	}
	if lai, ok := mm.LAIOf(msg); ok {
		r.Labels[core.LabelMMLAI] = lai.String()
	}
	if req, ok := msg.(*mm.CMServiceRequest); ok {
		r.Labels[core.LabelMMServiceType] = req.ServiceType.String()
	}

	switch msg.MessageType() {
	case mm.TypeLocationUpdatingReject, mm.TypeCMServiceReject, mm.TypeCMServiceAbort, mm.TypeMMStatus:
		r.Priority = core.PriorityHigh
	}
	return r
}

func (p *Pipeline) errorReport(pkt core.Packet, err error) *core.Report {
	result, cause := classify(err)
	if result == "unsupported" {
		p.stats.Unsupported.Add(1)
	} else {
		p.stats.Malformed.Add(1)
	}
	metrics.FramesTotal.WithLabelValues(result).Inc()
	metrics.DecodeErrorsTotal.WithLabelValues(cause).Inc()
	log.GetLogger().WithError(err).WithField("channel", pkt.Channel.String()).Debug("decode failed")

	r := p.envelope(pkt)
	r.Priority = core.PriorityHigh
	r.Error = err.Error()
	r.RawPayload = pkt.Payload
	r.Labels[core.LabelDecodeError] = cause
	var de *mm.DecodeError
	if errors.As(err, &de) && de.Type != 0 {
		r.MessageType = de.Type.String()
	}
	if cached, ok := p.identities.Get(pkt.Channel.String()); ok {
		r.Identity = cached.(string)
	}
	return r
}

// classify maps a decode error to a frame result and a cause label.
func classify(err error) (result, cause string) {
	switch {
	case errors.Is(err, core.ErrUnknownMessageType):
		return "unsupported", "unknown_type"
	case errors.Is(err, core.ErrUnsupportedDirection):
		return "unsupported", "direction"
	case errors.Is(err, core.ErrWrongProtocol):
		return "unsupported", "protocol"
	case errors.Is(err, core.ErrFrameTooShort), errors.Is(err, core.ErrFrameOverflow):
		return "malformed", "truncated"
	case errors.Is(err, core.ErrInvalidElement):
		return "malformed", "invalid_element"
	case errors.Is(err, core.ErrLengthMismatch):
		return "malformed", "length"
	default:
		return "malformed", "other"
	}
}

func (p *Pipeline) reportLoop() {
	defer p.wg.Done()
	for {
		r, ok := p.reports.Read()
		if !ok {
			if p.closed.Load() {
				return
			}
			continue
		}
		p.deliver(r)
		p.done()
	}
}

func (p *Pipeline) deliver(r *core.Report) {
	for _, rep := range p.cfg.Reporters {
		if err := rep.Report(p.ctx, r); err != nil {
			p.stats.ReportErrors.Add(1)
			metrics.ReportsTotal.WithLabelValues(rep.Name(), "error").Inc()
			log.GetLogger().WithError(err).WithField("reporter", rep.Name()).Warn("report failed")
			continue
		}
		metrics.ReportsTotal.WithLabelValues(rep.Name(), "ok").Inc()
	}
	p.stats.Reported.Add(1)
}

// Await returns the latest message decoded on ch, waiting at most d for
// one to arrive.
func (p *Pipeline) Await(ch core.ChannelKey, d time.Duration) (mm.Message, bool) {
	return p.messages.GetTimeout(ch, d)
}

// Latest returns the latest message decoded on ch without waiting.
func (p *Pipeline) Latest(ch core.ChannelKey) (mm.Message, bool) {
	return p.messages.GetNoBlock(ch)
}

// Identity returns the last mobile identity seen on ch within the identity
// TTL.
func (p *Pipeline) Identity(ch core.ChannelKey) (string, bool) {
	v, ok := p.identities.Get(ch.String())
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Pending returns the number of submitted packets not yet settled.
func (p *Pipeline) Pending() int64 {
	return p.pending.Load()
}

// Drain blocks until every submitted packet has been reported or
// released, or ctx is done.
func (p *Pipeline) Drain(ctx context.Context) error {
	for p.pending.Load() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.idle.GetTimeout(drainPoll)
	}
	return nil
}

// Stop drains within ctx, discards whatever is left, waits for the workers
// and closes the reporters.
func (p *Pipeline) Stop(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.GetLogger().Info("pipeline stopping")

	drainErr := p.Drain(ctx)
	if drainErr != nil {
		log.GetLogger().WithError(drainErr).WithField("pending", p.pending.Load()).Warn("pipeline drain incomplete")
	}

	for _, shard := range p.shards {
		shard.Close()
	}
	p.cancel()
	p.reports.Close()
	p.messages.Close()
	p.wg.Wait()
	p.identities.Flush()

	var errs []error
	if drainErr != nil {
		errs = append(errs, fmt.Errorf("drain: %w", drainErr))
	}
	for _, rep := range p.cfg.Reporters {
		if err := rep.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reporter %s: %w", rep.Name(), err))
		}
	}

	s := p.Stats()
	log.GetLogger().WithFields(map[string]interface{}{
		"submitted": s.Submitted,
		"decoded":   s.Decoded,
		"malformed": s.Malformed,
		"reported":  s.Reported,
	}).Info("pipeline stopped")
	return errors.Join(errs...)
}
