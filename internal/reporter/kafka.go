package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/log"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
)

// KafkaOptions configures the Kafka reporter.
type KafkaOptions struct {
	Brokers      []string      `mapstructure:"brokers"`       // required
	Topic        string        `mapstructure:"topic"`         // required
	BatchSize    int           `mapstructure:"batch_size"`    // default 100
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // default 100ms
	Compression  string        `mapstructure:"compression"`   // none|gzip|snappy|lz4, default snappy
	MaxAttempts  int           `mapstructure:"max_attempts"`  // default 3
	Encoding     string        `mapstructure:"encoding"`      // json|protobuf, default json
	Async        bool          `mapstructure:"async"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes reports keyed by channel so one channel stays on one
// partition.
type Kafka struct {
	opts   KafkaOptions
	writer messageWriter

	reported atomic.Uint64
	failed   atomic.Uint64
}

func NewKafka(options map[string]any) (*Kafka, error) {
	opts, err := parseKafkaOptions(options)
	if err != nil {
		return nil, err
	}
	codec, err := compressionCodec(opts.Compression)
	if err != nil {
		return nil, err
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:          opts.Brokers,
		Topic:            opts.Topic,
		Balancer:         &kafka.Hash{},
		BatchSize:        opts.BatchSize,
		BatchTimeout:     opts.BatchTimeout,
		MaxAttempts:      opts.MaxAttempts,
		CompressionCodec: codec,
		Async:            opts.Async,
	})
	log.GetLogger().WithFields(map[string]interface{}{
		"brokers":     opts.Brokers,
		"topic":       opts.Topic,
		"compression": opts.Compression,
		"encoding":    opts.Encoding,
	}).Info("kafka reporter created")
	return &Kafka{opts: opts, writer: w}, nil
}

func parseKafkaOptions(options map[string]any) (KafkaOptions, error) {
	opts := KafkaOptions{
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Compression:  defaultCompression,
		MaxAttempts:  defaultMaxAttempts,
		Encoding:     "json",
	}
	if err := decodeOptions(options, &opts); err != nil {
		return opts, err
	}
	if len(opts.Brokers) == 0 {
		return opts, fmt.Errorf("%w: kafka brokers is required", core.ErrConfigInvalid)
	}
	if opts.Topic == "" {
		return opts, fmt.Errorf("%w: kafka topic is required", core.ErrConfigInvalid)
	}
	if opts.Encoding != "json" && opts.Encoding != "protobuf" {
		return opts, fmt.Errorf("%w: kafka encoding %q, must be json or protobuf", core.ErrConfigInvalid, opts.Encoding)
	}
	return opts, nil
}

func compressionCodec(name string) (kafka.CompressionCodec, error) {
	switch name {
	case "none", "":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	default:
		return nil, fmt.Errorf("%w: invalid compression type: %s", core.ErrConfigInvalid, name)
	}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Report(ctx context.Context, r *core.Report) error {
	if r == nil {
		return fmt.Errorf("nil report")
	}
	msg, err := k.message(r)
	if err != nil {
		k.failed.Add(1)
		return fmt.Errorf("serialize report failed: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.failed.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}
	k.reported.Add(1)
	return nil
}

func (k *Kafka) message(r *core.Report) (kafka.Message, error) {
	value, err := encodeReport(r, k.opts.Encoding)
	if err != nil {
		return kafka.Message{}, err
	}
	msg := kafka.Message{
		Key:   []byte(r.Channel.String()),
		Value: value,
		Time:  r.Timestamp,
	}
	if len(r.Labels) > 0 {
		msg.Headers = make([]kafka.Header, 0, len(r.Labels))
		for key, v := range r.Labels {
			msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(v)})
		}
	}
	return msg, nil
}

// encodeReport serializes r as a JSON document or a google.protobuf.Struct.
func encodeReport(r *core.Report, encoding string) ([]byte, error) {
	fields := Fields(r)
	if encoding == "protobuf" {
		s, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(s)
	}
	return json.Marshal(fields)
}

func (k *Kafka) Close() error {
	err := k.writer.Close()
	log.GetLogger().WithFields(map[string]interface{}{
		"reported": k.reported.Load(),
		"failed":   k.failed.Load(),
	}).Info("kafka reporter closed")
	return err
}
