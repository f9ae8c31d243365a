package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/l3/mm"
	"firestige.xyz/gsml3/internal/reporter"
)

// recorder is a reporter that keeps every report.
type recorder struct {
	mu      sync.Mutex
	reports []*core.Report
	gate    chan struct{} // when set, the first Report blocks until closed
	entered chan struct{}
	closed  bool
	fail    bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Report(ctx context.Context, rep *core.Report) error {
	r.mu.Lock()
	first := len(r.reports) == 0
	r.reports = append(r.reports, rep)
	gate := r.gate
	r.mu.Unlock()
	if first && gate != nil {
		close(r.entered)
		<-gate
	}
	if r.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) snapshot() []*core.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*core.Report(nil), r.reports...)
}

func packet(t *testing.T, ch core.ChannelKey, uplink bool, fn uint32, payload string) core.Packet {
	t.Helper()
	b, err := hex.DecodeString(payload)
	require.NoError(t, err)
	return core.Packet{Timestamp: time.Now(), Channel: ch, Uplink: uplink, FrameNumber: fn, Payload: b}
}

const (
	imsiDetach = "050133080910101032547698"
	luReject   = "050411"
	mmStatus   = "053111"
)

var (
	sdcch0 = core.ChannelKey{ARFCN: 871, Timeslot: 1, SubType: 8, SubSlot: 0}
	sdcch1 = core.ChannelKey{ARFCN: 871, Timeslot: 1, SubType: 8, SubSlot: 1}
)

func startPipeline(t *testing.T, cfg Config) (*Pipeline, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg.Reporters = append(cfg.Reporters, rec)
	p := New(cfg)
	require.NoError(t, p.Start())
	t.Cleanup(func() { p.Stop(context.Background()) })
	return p, rec
}

func drain(t *testing.T, p *Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Drain(ctx))
}

func TestPipeline_BasicFlow(t *testing.T) {
	p, rec := startPipeline(t, Config{Workers: 2})

	require.NoError(t, p.Submit(packet(t, sdcch0, true, 10, imsiDetach)))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 11, luReject)))
	drain(t, p)

	reports := rec.snapshot()
	require.Len(t, reports, 2)

	detach := reports[0]
	if detach.MessageType != mm.TypeIMSIDetachIndication.String() {
		detach = reports[1]
	}
	assert.Equal(t, mm.TypeIMSIDetachIndication.String(), detach.MessageType)
	assert.Contains(t, detach.Identity, "IMSI")
	assert.Equal(t, detach.Identity, detach.Labels[core.LabelMMIdentity])
	assert.Equal(t, "871", detach.Labels[core.LabelGSMTAPARFCN])
	assert.IsType(t, &mm.IMSIDetachIndication{}, detach.Message)

	latest, ok := p.Latest(sdcch0)
	require.True(t, ok)
	assert.Equal(t, mm.TypeLocationUpdatingReject, latest.MessageType())

	id, ok := p.Identity(sdcch0)
	require.True(t, ok)
	assert.Equal(t, detach.Identity, id)

	for _, r := range reports {
		if r.MessageType == mm.TypeLocationUpdatingReject.String() {
			assert.Equal(t, core.PriorityHigh, r.Priority)
			assert.Equal(t, id, r.Identity, "identity carried over from the channel")
			assert.Contains(t, r.Labels[core.LabelMMCause], "network failure")
		}
	}

	s := p.Stats()
	assert.Equal(t, uint64(2), s.Submitted)
	assert.Equal(t, uint64(2), s.Decoded)
	assert.Equal(t, uint64(2), s.Reported)
	assert.Equal(t, int64(0), s.Pending)
	assert.Len(t, s.Shards, 2)
}

func TestPipeline_DecodeFailure(t *testing.T) {
	p, rec := startPipeline(t, Config{Workers: 1})

	require.NoError(t, p.Submit(packet(t, sdcch0, true, 1, "0501")))
	require.NoError(t, p.Submit(packet(t, sdcch0, true, 2, "057f")))
	drain(t, p)

	reports := rec.snapshot()
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, core.PriorityHigh, r.Priority)
		assert.NotEmpty(t, r.Error)
		assert.Nil(t, r.Message)
	}
	assert.Equal(t, "truncated", reports[0].Labels[core.LabelDecodeError])
	assert.Equal(t, mm.TypeIMSIDetachIndication.String(), reports[0].MessageType)
	assert.Equal(t, []byte{0x05, 0x01}, reports[0].RawPayload)
	assert.Equal(t, "unknown_type", reports[1].Labels[core.LabelDecodeError])

	s := p.Stats()
	assert.Equal(t, uint64(1), s.Malformed)
	assert.Equal(t, uint64(1), s.Unsupported)
}

func TestPipeline_DownlinkMessages(t *testing.T) {
	p, rec := startPipeline(t, Config{Workers: 1})

	require.NoError(t, p.Submit(packet(t, sdcch0, false, 1, "0521")))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 2, "051801")))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 3, "0532450685e7799b3d03")))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 4, "051a00f110000105f4cafe0001")))
	drain(t, p)

	reports := rec.snapshot()
	require.Len(t, reports, 4)
	byFrame := make(map[uint32]*core.Report, len(reports))
	for _, r := range reports {
		assert.Empty(t, r.Error)
		assert.NotNil(t, r.Message)
		assert.Equal(t, core.PriorityNormal, r.Priority)
		byFrame[r.FrameNumber] = r
	}
	assert.Equal(t, mm.TypeCMServiceAccept.String(), byFrame[1].MessageType)
	assert.Equal(t, mm.TypeIdentityRequest.String(), byFrame[2].MessageType)
	assert.Contains(t, byFrame[3].Summary, "short=gsml3")
	assert.Contains(t, byFrame[4].Identity, "TMSI")

	s := p.Stats()
	assert.Equal(t, uint64(4), s.Decoded)
	assert.Zero(t, s.Unsupported)
	assert.Zero(t, s.Malformed)
}

func TestPipeline_Skips(t *testing.T) {
	p, rec := startPipeline(t, Config{Workers: 1, UplinkOnly: true})

	require.NoError(t, p.Submit(packet(t, sdcch0, false, 1, luReject)))
	// radio resource management, PD 6
	require.NoError(t, p.Submit(packet(t, sdcch0, true, 2, "061500")))
	require.NoError(t, p.Submit(packet(t, sdcch0, true, 3, imsiDetach)))
	drain(t, p)

	reports := rec.snapshot()
	require.Len(t, reports, 1)
	assert.Equal(t, uint32(3), reports[0].FrameNumber)
	assert.Equal(t, uint64(2), p.Stats().Skipped)
}

func TestPipeline_ReportPriority(t *testing.T) {
	rec := &recorder{gate: make(chan struct{}), entered: make(chan struct{})}
	p := New(Config{Workers: 1, Reporters: []reporter.Reporter{rec}})
	require.NoError(t, p.Start())
	defer p.Stop(context.Background())

	require.NoError(t, p.Submit(packet(t, sdcch0, true, 1, imsiDetach)))
	<-rec.entered

	require.NoError(t, p.Submit(packet(t, sdcch0, true, 2, imsiDetach)))
	require.NoError(t, p.Submit(packet(t, sdcch0, true, 3, imsiDetach)))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 4, luReject)))
	require.NoError(t, p.Submit(packet(t, sdcch0, false, 5, mmStatus)))
	require.Eventually(t, func() bool { return p.reports.Size() == 4 }, 2*time.Second, 5*time.Millisecond)

	close(rec.gate)
	drain(t, p)

	var order []uint32
	for _, r := range rec.snapshot() {
		order = append(order, r.FrameNumber)
	}
	assert.Equal(t, []uint32{1, 4, 5, 2, 3}, order)
}

func TestPipeline_ChannelOrder(t *testing.T) {
	p, rec := startPipeline(t, Config{Workers: 4})

	channels := []core.ChannelKey{sdcch0, sdcch1, {ARFCN: 10, Timeslot: 2, SubType: 4}}
	for fn := uint32(0); fn < 50; fn++ {
		for _, ch := range channels {
			require.NoError(t, p.Submit(packet(t, ch, true, fn, imsiDetach)))
		}
	}
	drain(t, p)

	last := map[core.ChannelKey]int64{}
	for _, r := range rec.snapshot() {
		prev, seen := last[r.Channel]
		if seen {
			assert.Greater(t, int64(r.FrameNumber), prev, "channel %s", r.Channel)
		}
		last[r.Channel] = int64(r.FrameNumber)
	}
	assert.Len(t, rec.snapshot(), 150)
}

func TestPipeline_Backpressure(t *testing.T) {
	rec := &recorder{}
	p := New(Config{Workers: 1, HighWater: 2, LowWater: 0, Reporters: []reporter.Reporter{rec}})
	defer p.Stop(context.Background())

	require.NoError(t, p.Submit(packet(t, sdcch0, true, 1, imsiDetach)))
	require.NoError(t, p.Submit(packet(t, sdcch0, true, 2, imsiDetach)))

	third := packet(t, sdcch0, true, 3, imsiDetach)
	submitted := make(chan error, 1)
	go func() { submitted <- p.Submit(third) }()

	select {
	case <-submitted:
		t.Fatal("Submit should block at the high water mark")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, p.Start())
	select {
	case err := <-submitted:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit did not resume after the shard drained")
	}
	drain(t, p)
	assert.Len(t, rec.snapshot(), 3)
	assert.Equal(t, uint64(1), p.Stats().Throttled)
}

func TestPipeline_Await(t *testing.T) {
	p, _ := startPipeline(t, Config{Workers: 2})

	got := make(chan mm.Message, 1)
	go func() {
		msg, _ := p.Await(sdcch1, 2*time.Second)
		got <- msg
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Submit(packet(t, sdcch1, true, 1, imsiDetach)))

	msg := <-got
	require.NotNil(t, msg)
	assert.Equal(t, mm.TypeIMSIDetachIndication, msg.MessageType())

	_, ok := p.Await(sdcch0, 10*time.Millisecond)
	assert.False(t, ok)
}

func TestPipeline_StopDrainsAndCloses(t *testing.T) {
	rec := &recorder{fail: true}
	p := New(Config{Workers: 2, Reporters: []reporter.Reporter{rec}})
	require.NoError(t, p.Start())

	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(packet(t, sdcch0, true, uint32(i), imsiDetach)))
	}
	require.NoError(t, p.Stop(context.Background()))
	assert.Len(t, rec.snapshot(), 20)
	assert.Equal(t, uint64(20), p.Stats().ReportErrors)
	assert.True(t, rec.closed)

	assert.ErrorIs(t, p.Submit(packet(t, sdcch0, true, 99, imsiDetach)), core.ErrPipelineStopped)
	assert.NoError(t, p.Stop(context.Background()))
	assert.Error(t, p.Start(), "restart is not supported")
}

func TestPipeline_StopReleasesUndrained(t *testing.T) {
	p := New(Config{Workers: 1})
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Submit(packet(t, sdcch0, true, uint32(i), imsiDetach)))
	}
	assert.Equal(t, int64(3), p.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), p.Pending(), "closing the shards settles queued packets")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		result string
		cause  string
	}{
		{core.ErrUnknownMessageType, "unsupported", "unknown_type"},
		{fmt.Errorf("x: %w", core.ErrUnsupportedDirection), "unsupported", "direction"},
		{&mm.DecodeError{Err: core.ErrFrameTooShort}, "malformed", "truncated"},
		{core.ErrInvalidElement, "malformed", "invalid_element"},
		{core.ErrLengthMismatch, "malformed", "length"},
		{errors.New("?"), "malformed", "other"},
	}
	for _, tt := range tests {
		result, cause := classify(tt.err)
		assert.Equal(t, tt.result, result, tt.err.Error())
		assert.Equal(t, tt.cause, cause, tt.err.Error())
	}
}

func TestBuilder(t *testing.T) {
	rec := &recorder{}
	p := NewBuilder().
		FromConfig(config.PipelineConfig{Workers: 3, HighWater: 100, LowWater: 10, IdentityTTLDuration: time.Minute, UplinkOnly: true}).
		WithReporters(rec).
		Build()

	assert.Len(t, p.shards, 3)
	assert.Equal(t, 100, p.cfg.HighWater)
	assert.Equal(t, 10, p.cfg.LowWater)
	assert.Equal(t, time.Minute, p.cfg.IdentityTTL)
	assert.True(t, p.cfg.UplinkOnly)
	assert.Len(t, p.cfg.Reporters, 1)

	p = NewBuilder().WithWorkers(2).WithWaterMarks(8, 8).WithUplinkOnly(false).Build()
	assert.Equal(t, 2, p.cfg.LowWater, "low water at or above high water falls back to a quarter")
}
